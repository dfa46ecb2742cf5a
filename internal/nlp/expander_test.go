package nlp_test

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"evidence-engine/internal/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMeSH struct {
	headings map[string][]string
	err      error
	queries  []string
}

func (s *stubMeSH) MeSHTerms(_ context.Context, query string, _ int) ([]string, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.headings[query], nil
}

func TestSeedExpander_ExpandTopic(t *testing.T) {
	t.Run("seed dictionary expansion", func(t *testing.T) {
		expander := nlp.NewSeedExpander(nil, nil)

		terms, err := expander.ExpandTopic(context.Background(), "vaccino", nil)
		require.NoError(t, err)
		assert.Contains(t, terms, "vaccino")
		assert.Contains(t, terms, "vaccine")
		assert.Contains(t, terms, "immunizzazione")
		assert.Contains(t, terms, "#vaccini")
	})

	t.Run("compound topic matches multiple seeds", func(t *testing.T) {
		expander := nlp.NewSeedExpander(nil, nil)

		terms, err := expander.ExpandTopic(context.Background(), "vaccino covid", nil)
		require.NoError(t, err)
		assert.Contains(t, terms, "coronavirus")
		assert.Contains(t, terms, "immunizzazione")
	})

	t.Run("unknown topic still gets variants", func(t *testing.T) {
		expander := nlp.NewSeedExpander(nil, nil)

		terms, err := expander.ExpandTopic(context.Background(), "omeopatia", nil)
		require.NoError(t, err)
		assert.Contains(t, terms, "omeopatia")
		assert.Contains(t, terms, "Omeopatia")
		assert.Contains(t, terms, "#omeopatia")
		assert.Contains(t, terms, "omeopatie")
	})

	t.Run("result is sorted and deduplicated", func(t *testing.T) {
		expander := nlp.NewSeedExpander(nil, nil)

		terms, err := expander.ExpandTopic(context.Background(), "covid", []string{"covid"})
		require.NoError(t, err)
		assert.IsIncreasing(t, terms)
	})

	t.Run("empty topic yields nothing", func(t *testing.T) {
		expander := nlp.NewSeedExpander(nil, nil)

		terms, err := expander.ExpandTopic(context.Background(), "  ", nil)
		require.NoError(t, err)
		assert.Empty(t, terms)
	})

	t.Run("mesh headings are added with variants", func(t *testing.T) {
		mesh := &stubMeSH{headings: map[string][]string{
			"omeopatia": {"Homeopathy"},
		}}
		expander := nlp.NewSeedExpander(mesh, nil)

		terms, err := expander.ExpandTopic(context.Background(), "omeopatia", nil)
		require.NoError(t, err)
		assert.Contains(t, terms, "Homeopathy")
		assert.Contains(t, terms, "homeopathy")
	})

	t.Run("mesh failure degrades to dictionary expansion", func(t *testing.T) {
		mesh := &stubMeSH{err: errors.New("rate limited")}
		expander := nlp.NewSeedExpander(mesh, nil)

		terms, err := expander.ExpandTopic(context.Background(), "vaccino", nil)
		require.NoError(t, err)
		assert.Contains(t, terms, "vaccino")
	})

	t.Run("only longer post terms reach mesh", func(t *testing.T) {
		mesh := &stubMeSH{headings: map[string][]string{}}
		expander := nlp.NewSeedExpander(mesh, nil)

		_, err := expander.ExpandTopic(context.Background(), "covid", []string{"flu", "glicemia"})
		require.NoError(t, err)
		assert.Equal(t, []string{"covid", "glicemia"}, mesh.queries)
	})
}

func TestSimpleVariants(t *testing.T) {
	t.Run("case hashtag and plural variants", func(t *testing.T) {
		variants := nlp.SimpleVariants("vaccino")
		assert.Contains(t, variants, "vaccino")
		assert.Contains(t, variants, "Vaccino")
		assert.Contains(t, variants, "#vaccino")
		assert.Contains(t, variants, "vaccini")
		assert.Contains(t, variants, "vaccinos")
	})

	t.Run("accents are stripped", func(t *testing.T) {
		variants := nlp.SimpleVariants("sanità")
		assert.Contains(t, variants, "sanita")
		assert.Contains(t, variants, "#sanita")
	})

	t.Run("leading accented rune capitalizes cleanly", func(t *testing.T) {
		variants := nlp.SimpleVariants("élite")
		assert.Contains(t, variants, "Élite")
		assert.Contains(t, variants, "elite")
		for _, v := range variants {
			assert.True(t, utf8.ValidString(v), "variant %q is not valid UTF-8", v)
		}
	})

	t.Run("english plural rules", func(t *testing.T) {
		variants := nlp.SimpleVariants("therapy")
		assert.Contains(t, variants, "therapies")
	})

	t.Run("multi word terms get title case", func(t *testing.T) {
		variants := nlp.SimpleVariants("west nile")
		assert.Contains(t, variants, "West Nile")
	})

	t.Run("empty term yields nothing", func(t *testing.T) {
		assert.Empty(t, nlp.SimpleVariants(""))
	})

	t.Run("output is sorted", func(t *testing.T) {
		assert.IsIncreasing(t, nlp.SimpleVariants("covid"))
	})
}

func TestAvailableTopics(t *testing.T) {
	topics := nlp.AvailableTopics()
	assert.Contains(t, topics, "vaccino")
	assert.Contains(t, topics, "west nile")
	assert.IsIncreasing(t, topics)
}
