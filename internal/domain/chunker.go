package domain

import (
	"fmt"
	"strings"
)

// ChunkStrategy selects the chunking algorithm. The strategy set is closed;
// dispatch happens through TextChunker rather than open subclassing.
type ChunkStrategy string

const (
	// StrategyWordBased splits on fixed-size word windows with overlap.
	StrategyWordBased ChunkStrategy = "word_based"
	// StrategySentenceBased accumulates whole sentences up to the word limit.
	StrategySentenceBased ChunkStrategy = "sentence_based"
)

// ChunkConfig holds chunking parameters.
type ChunkConfig struct {
	Strategy      ChunkStrategy
	MaxWords      int
	OverlapWords  int
	MinChunkWords int
	// PreserveSentences trims word-based windows back to the last sentence
	// boundary found in the final 30% of the window.
	PreserveSentences bool
	// LangHint steers the sentence boundary pattern (Italian vs other).
	LangHint string
}

// DefaultChunkConfig returns the engine defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Strategy:          StrategyWordBased,
		MaxWords:          350,
		OverlapWords:      40,
		MinChunkWords:     50,
		PreserveSentences: true,
	}
}

// Validate checks that the chunking parameters are usable.
func (c ChunkConfig) Validate() error {
	if c.MaxWords <= 0 {
		return fmt.Errorf("maxWords must be positive, got %d", c.MaxWords)
	}
	if c.OverlapWords < 0 {
		return fmt.Errorf("overlapWords must be non-negative, got %d", c.OverlapWords)
	}
	if c.MinChunkWords < 0 {
		return fmt.Errorf("minChunkWords must be non-negative, got %d", c.MinChunkWords)
	}
	return nil
}

// TextChunk is a contiguous fragment of a document's text.
type TextChunk struct {
	Content   string
	WordCount int
	CharCount int
	ChunkID   string
}

// strategyChunker is implemented by each chunking strategy.
type strategyChunker interface {
	chunk(text string) ([]TextChunk, error)
}

// TextChunker dispatches to the configured strategy. An internal strategy
// failure silently falls back to word-based chunking on the same input;
// this is the engine's only automatic cross-strategy fallback.
type TextChunker struct {
	cfg ChunkConfig
}

// NewTextChunker creates a chunker; zero-valued config fields get defaults.
func NewTextChunker(cfg ChunkConfig) *TextChunker {
	def := DefaultChunkConfig()
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = def.MaxWords
	}
	if cfg.OverlapWords < 0 {
		cfg.OverlapWords = def.OverlapWords
	}
	if cfg.MinChunkWords <= 0 {
		cfg.MinChunkWords = def.MinChunkWords
	}
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	return &TextChunker{cfg: cfg}
}

// Chunk splits text using the configured strategy. Unknown strategies and
// strategy-internal failures fall back to word-based chunking.
func (c *TextChunker) Chunk(text string) []TextChunk {
	chunks, _ := c.ChunkWithFallback(text)
	return chunks
}

// ChunkWithFallback is Chunk plus a flag reporting whether the word-based
// fallback was taken, so callers can log the degradation.
func (c *TextChunker) ChunkWithFallback(text string) ([]TextChunk, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	var strategy strategyChunker
	switch c.cfg.Strategy {
	case StrategySentenceBased:
		strategy = &sentenceChunker{cfg: c.cfg}
	case StrategyWordBased:
		strategy = &wordChunker{cfg: c.cfg}
	default:
		chunks, _ := (&wordChunker{cfg: c.cfg}).chunk(text)
		return chunks, true
	}

	chunks, err := strategy.chunk(text)
	if err != nil {
		chunks, _ = (&wordChunker{cfg: c.cfg}).chunk(text)
		return chunks, true
	}
	return chunks, false
}

type wordChunker struct {
	cfg ChunkConfig
}

func (c *wordChunker) chunk(text string) ([]TextChunk, error) {
	words := strings.Fields(NormalizeSpaces(text))
	if len(words) == 0 {
		return nil, nil
	}

	overlap := c.cfg.OverlapWords
	if overlap > c.cfg.MaxWords/2 {
		overlap = c.cfg.MaxWords / 2
	}
	step := c.cfg.MaxWords - overlap
	if step < 1 {
		step = 1
	}

	var chunks []TextChunk
	index := 0
	for i := 0; i < len(words); i += step {
		end := i + c.cfg.MaxWords
		if end > len(words) {
			end = len(words)
		}
		// A trailing window that adds fewer than MinChunkWords of fresh
		// words past the overlap region only repeats the previous chunk.
		if i > 0 && end == len(words) && end-i-overlap < c.cfg.MinChunkWords {
			break
		}

		content := strings.Join(words[i:end], " ")
		if c.cfg.PreserveSentences && end < len(words) {
			content = trimToSentenceBoundary(content)
		}

		wc := len(strings.Fields(content))
		if wc >= c.cfg.MinChunkWords {
			chunks = append(chunks, TextChunk{
				Content:   strings.TrimSpace(content),
				WordCount: wc,
				CharCount: len(content),
				ChunkID:   fmt.Sprintf("chunk_%04d", index),
			})
			index++
		}
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}

// trimToSentenceBoundary cuts the window back to the last sentence-ending
// punctuation, but only if it falls in the final 30% of the window.
func trimToSentenceBoundary(content string) string {
	best := -1
	for _, ending := range []string{".", "!", "?"} {
		if pos := strings.LastIndex(content, ending); pos > best && float64(pos) > float64(len(content))*0.7 {
			best = pos
		}
	}
	if best > 0 {
		return content[:best+1]
	}
	return content
}

type sentenceChunker struct {
	cfg ChunkConfig
}

func (c *sentenceChunker) chunk(text string) ([]TextChunk, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	sentences := SplitSentences(NormalizeSpaces(text), c.cfg.LangHint)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []TextChunk
	var current []string
	currentWords := 0
	index := 0

	emit := func() {
		content := strings.TrimSpace(strings.Join(current, " "))
		chunks = append(chunks, TextChunk{
			Content:   content,
			WordCount: currentWords,
			CharCount: len(content),
			ChunkID:   fmt.Sprintf("chunk_%04d", index),
		})
		index++
	}

	for _, sentence := range sentences {
		sw := len(strings.Fields(sentence))
		if currentWords+sw > c.cfg.MaxWords && len(current) > 0 && currentWords >= c.cfg.MinChunkWords {
			emit()
			// The next chunk starts with a sentence-aligned overlap window
			// built by walking backward from the end of the emitted chunk.
			overlap := overlapSentences(current, c.cfg.OverlapWords)
			current = append(append([]string{}, overlap...), sentence)
			currentWords = 0
			for _, s := range current {
				currentWords += len(strings.Fields(s))
			}
		} else {
			current = append(current, sentence)
			currentWords += sw
		}
	}

	// Dangling final chunk below the minimum is dropped.
	if len(current) > 0 && currentWords >= c.cfg.MinChunkWords {
		emit()
	}
	return chunks, nil
}

// overlapSentences collects trailing whole sentences totalling at most
// overlapWords words; it never splits inside a sentence.
func overlapSentences(sentences []string, overlapWords int) []string {
	if len(sentences) == 0 || overlapWords <= 0 {
		return nil
	}
	var overlap []string
	words := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		sw := len(strings.Fields(sentences[i]))
		if words+sw > overlapWords {
			break
		}
		overlap = append([]string{sentences[i]}, overlap...)
		words += sw
	}
	return overlap
}
