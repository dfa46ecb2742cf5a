package nlp_test

import (
	"testing"

	"evidence-engine/internal/nlp"

	"github.com/stretchr/testify/assert"
)

func TestSignalExtractor_ExtractLocaleYear(t *testing.T) {
	extractor := nlp.NewSignalExtractor(nlp.NewLanguageDetector())

	tests := []struct {
		name        string
		text        string
		wantCountry string
		wantYear    int
	}{
		{
			"italian post about italy",
			"Il ministero ha detto che i casi in Italia sono aumentati nel 2024",
			"italy", 2024,
		},
		{
			"english post about italy",
			"The italian regions are reporting that the cases have grown in 2023",
			"italy", 2023,
		},
		{
			"usa signal",
			"Negli stati uniti sono stati segnalati molti casi che il governo non ha confermato",
			"usa", 0,
		},
		{
			"italy wins over other countries",
			"In Italia e in Francia i dati che sono stati pubblicati non coincidono",
			"italy", 0,
		},
		{
			"most recent plausible year wins",
			"Confronto tra il 2019 e il 2024 sui dati che il ministero ha pubblicato",
			"", 2024,
		},
		{
			"implausible years ignored",
			"Un documento del 1850 citato nel testo che non ha altre date",
			"", 0,
		},
		{
			"no signals",
			"Una frase che non contiene paesi e che non ha date rilevanti",
			"", 0,
		},
		{
			"empty text",
			"",
			"", 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			country, year := extractor.ExtractLocaleYear(tt.text)
			assert.Equal(t, tt.wantCountry, country)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}
