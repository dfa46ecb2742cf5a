package domain_test

import (
	"fmt"
	"strings"
	"testing"

	"evidence-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestTextChunker_WordBased(t *testing.T) {
	t.Run("long text produces overlapping windows", func(t *testing.T) {
		chunker := domain.NewTextChunker(domain.ChunkConfig{
			Strategy:      domain.StrategyWordBased,
			MaxWords:      350,
			OverlapWords:  40,
			MinChunkWords: 50,
		})

		chunks := chunker.Chunk(words(1000))
		require.Len(t, chunks, 3)

		for _, chunk := range chunks {
			assert.LessOrEqual(t, chunk.WordCount, 350)
			assert.GreaterOrEqual(t, chunk.WordCount, 50)
		}

		// Consecutive chunks share the trailing overlap window.
		first := strings.Fields(chunks[0].Content)
		second := strings.Fields(chunks[1].Content)
		assert.Equal(t, first[len(first)-40:], second[:40])
	})

	t.Run("trailing window below minimum fresh words is dropped", func(t *testing.T) {
		chunker := domain.NewTextChunker(domain.ChunkConfig{
			Strategy:      domain.StrategyWordBased,
			MaxWords:      100,
			OverlapWords:  20,
			MinChunkWords: 30,
		})

		// 185 words: windows at 0-100 and 80-180 cover everything but the
		// final 5 words; a third window would add only 5 fresh words.
		chunks := chunker.Chunk(words(185))
		require.Len(t, chunks, 2)
	})

	t.Run("short text yields single chunk", func(t *testing.T) {
		chunker := domain.NewTextChunker(domain.ChunkConfig{
			Strategy:      domain.StrategyWordBased,
			MaxWords:      350,
			OverlapWords:  40,
			MinChunkWords: 50,
		})

		chunks := chunker.Chunk(words(120))
		require.Len(t, chunks, 1)
		assert.Equal(t, 120, chunks[0].WordCount)
		assert.Equal(t, "chunk_0000", chunks[0].ChunkID)
	})

	t.Run("text below minimum yields nothing", func(t *testing.T) {
		chunker := domain.NewTextChunker(domain.ChunkConfig{
			Strategy:      domain.StrategyWordBased,
			MaxWords:      350,
			OverlapWords:  40,
			MinChunkWords: 50,
		})

		assert.Empty(t, chunker.Chunk(words(10)))
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		chunker := domain.NewTextChunker(domain.DefaultChunkConfig())
		assert.Empty(t, chunker.Chunk("   \n\t  "))
	})
}

func TestTextChunker_SentenceBased(t *testing.T) {
	chunker := domain.NewTextChunker(domain.ChunkConfig{
		Strategy:      domain.StrategySentenceBased,
		MaxWords:      12,
		OverlapWords:  0,
		MinChunkWords: 5,
	})

	text := "Alpha beta gamma delta epsilon zeta. " +
		"Eta theta iota kappa lambda mu. " +
		"Nu xi omicron pi rho sigma."

	chunks := chunker.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha beta gamma delta epsilon zeta. Eta theta iota kappa lambda mu.", chunks[0].Content)
	assert.Equal(t, 12, chunks[0].WordCount)
	assert.Equal(t, "Nu xi omicron pi rho sigma.", chunks[1].Content)

	t.Run("sentence overlap never splits a sentence", func(t *testing.T) {
		overlapping := domain.NewTextChunker(domain.ChunkConfig{
			Strategy:      domain.StrategySentenceBased,
			MaxWords:      12,
			OverlapWords:  6,
			MinChunkWords: 5,
		})

		chunks := overlapping.Chunk(text)
		require.Len(t, chunks, 2)
		// The second chunk restarts with the whole previous sentence.
		assert.True(t, strings.HasPrefix(chunks[1].Content, "Eta theta iota kappa lambda mu."))
	})

	t.Run("dangling short tail is dropped", func(t *testing.T) {
		chunks := chunker.Chunk("Alpha beta gamma delta epsilon zeta. Eta theta iota kappa lambda mu. Nu xi.")
		require.Len(t, chunks, 1)
	})
}

func TestTextChunker_Fallback(t *testing.T) {
	chunker := domain.NewTextChunker(domain.ChunkConfig{
		Strategy:      domain.ChunkStrategy("semantic"),
		MaxWords:      100,
		OverlapWords:  10,
		MinChunkWords: 20,
	})

	chunks, fellBack := chunker.ChunkWithFallback(words(150))
	assert.True(t, fellBack)
	require.NotEmpty(t, chunks)
}

func TestChunkConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.ChunkConfig
		wantErr bool
	}{
		{"defaults are valid", domain.DefaultChunkConfig(), false},
		{"zero max words", domain.ChunkConfig{MaxWords: 0}, true},
		{"negative overlap", domain.ChunkConfig{MaxWords: 100, OverlapWords: -1}, true},
		{"negative minimum", domain.ChunkConfig{MaxWords: 100, MinChunkWords: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
