package nlp_test

import (
	"strings"
	"testing"

	"evidence-engine/internal/nlp"

	"github.com/stretchr/testify/assert"
)

func TestTermExtractor_ExtractTerms(t *testing.T) {
	extractor := nlp.NewTermExtractor(nlp.NewLanguageDetector())

	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		terms := extractor.ExtractTerms("Il vaccino per la malattia è un farmaco", "it")
		assert.Contains(t, terms, "vaccino")
		assert.Contains(t, terms, "malattia")
		assert.Contains(t, terms, "farmaco")
		assert.NotContains(t, terms, "il")
		assert.NotContains(t, terms, "per")
		assert.NotContains(t, terms, "un")
	})

	t.Run("frequency ranks first", func(t *testing.T) {
		terms := extractor.ExtractTerms("vaccino vaccino vaccino malattia farmaco", "it")
		assert.Equal(t, "vaccino", terms[0])
	})

	t.Run("length breaks frequency ties", func(t *testing.T) {
		terms := extractor.ExtractTerms("casa malattia", "it")
		assert.Equal(t, []string{"malattia", "casa"}, terms)
	})

	t.Run("lexicographic order breaks length ties", func(t *testing.T) {
		terms := extractor.ExtractTerms("zona dato", "it")
		assert.Equal(t, []string{"dato", "zona"}, terms)
	})

	t.Run("language hint aliases", func(t *testing.T) {
		terms := extractor.ExtractTerms("the vaccine data and the results", "english")
		assert.Contains(t, terms, "vaccine")
		assert.NotContains(t, terms, "the")
		assert.NotContains(t, terms, "and")
	})

	t.Run("unknown hint falls back to detection", func(t *testing.T) {
		terms := extractor.ExtractTerms("Il ministero ha detto che i vaccini sono sicuri per tutti", "")
		assert.Contains(t, terms, "vaccini")
		assert.NotContains(t, terms, "che")
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Empty(t, extractor.ExtractTerms("   ", "it"))
	})

	t.Run("long input is truncated not rejected", func(t *testing.T) {
		text := strings.Repeat("vaccino malattia terapia ", 2000)
		terms := extractor.ExtractTerms(text, "it")
		assert.NotEmpty(t, terms)
		assert.LessOrEqual(t, len(terms), 50)
	})
}
