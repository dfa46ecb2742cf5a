package domain_test

import (
	"strings"
	"testing"
	"time"

	"evidence-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longBody(topic string) string {
	return strings.Repeat(topic+" e dati epidemiologici aggiornati ", 20)
}

func TestDocumentFilter_MustTermsForTopic(t *testing.T) {
	filter := domain.NewDocumentFilter(domain.DefaultFilterConfig())

	t.Run("topic stems plus italian locale terms", func(t *testing.T) {
		terms := filter.MustTermsForTopic("vaccino covid", "I vaccini in Italia sono sicuri")
		assert.Equal(t, []string{"coronavirus", "covid", "immuniz", "italia", "italy", "sars", "vaccin"}, terms)
	})

	t.Run("no locale indicators drop country terms", func(t *testing.T) {
		terms := filter.MustTermsForTopic("influenza", "flu season is coming")
		assert.Equal(t, []string{"flu", "influenza"}, terms)
	})

	t.Run("unknown topic yields no terms", func(t *testing.T) {
		assert.Empty(t, filter.MustTermsForTopic("astrologia", "oroscopo del giorno"))
	})
}

func TestDocumentFilter_FilterByTopic(t *testing.T) {
	filter := domain.NewDocumentFilter(domain.DefaultFilterConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -30).Format(time.RFC3339)

	base := domain.Document{
		ID:          "ok",
		Title:       "Campagna vaccinale",
		Text:        longBody("vaccino"),
		Lang:        "it",
		PublishedAt: recent,
	}

	t.Run("gates reject independently", func(t *testing.T) {
		tooOld := base
		tooOld.ID = "old"
		tooOld.PublishedAt = now.AddDate(0, 0, -800).Format(time.RFC3339)

		wrongLang := base
		wrongLang.ID = "lang"
		wrongLang.Lang = "de"

		tooShort := base
		tooShort.ID = "short"
		tooShort.Text = "breve"

		offTopic := base
		offTopic.ID = "offtopic"
		offTopic.Title = "Risultati sportivi"
		offTopic.Text = longBody("calcio")

		docs := []domain.Document{base, tooOld, wrongLang, tooShort, offTopic}
		filtered := filter.FilterByTopic(docs, []string{"vaccin"}, nil, now)

		require.Len(t, filtered, 1)
		assert.Equal(t, "ok", filtered[0].ID)
	})

	t.Run("untagged language and missing timestamp pass", func(t *testing.T) {
		doc := base
		doc.Lang = ""
		doc.PublishedAt = ""

		filtered := filter.FilterByTopic([]domain.Document{doc}, []string{"vaccin"}, nil, now)
		assert.Len(t, filtered, 1)
	})

	t.Run("empty title and body never pass", func(t *testing.T) {
		doc := domain.Document{ID: "empty", Lang: "it", PublishedAt: recent}
		assert.Empty(t, filter.FilterByTopic([]domain.Document{doc}, nil, nil, now))
	})

	t.Run("expanded keys gate applies when present", func(t *testing.T) {
		filtered := filter.FilterByTopic([]domain.Document{base}, nil, []string{"chemioterapia"}, now)
		assert.Empty(t, filtered)

		filtered = filter.FilterByTopic([]domain.Document{base}, nil, []string{"vaccinale"}, now)
		assert.Len(t, filtered, 1)
	})

	t.Run("dropping term gates never shrinks the result", func(t *testing.T) {
		docs := []domain.Document{base}
		strict := filter.FilterByTopic(docs, []string{"vaccin"}, []string{"vaccinale"}, now)
		relaxed := filter.FilterByTopic(docs, nil, nil, now)
		assert.GreaterOrEqual(t, len(relaxed), len(strict))
	})

	t.Run("preserves input order", func(t *testing.T) {
		second := base
		second.ID = "second"
		filtered := filter.FilterByTopic([]domain.Document{base, second}, []string{"vaccin"}, nil, now)
		require.Len(t, filtered, 2)
		assert.Equal(t, "ok", filtered[0].ID)
		assert.Equal(t, "second", filtered[1].ID)
	})
}

func TestContainsAnyTerm(t *testing.T) {
	assert.True(t, domain.ContainsAnyTerm("I vaccini COVID in Italia", []string{"covid"}))
	assert.True(t, domain.ContainsAnyTerm("dati vaccinali", []string{"xyz", "vaccin"}))
	assert.False(t, domain.ContainsAnyTerm("dati vaccinali", []string{"covid"}))
	assert.False(t, domain.ContainsAnyTerm("", []string{"covid"}))
	assert.False(t, domain.ContainsAnyTerm("testo", nil))
}
