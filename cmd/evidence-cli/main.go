// Command evidence-cli runs the context-selection pipeline against a local
// JSON document pool, without a running server or database. Useful for
// tuning ranking parameters and inspecting what a given post would retrieve.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"evidence-engine/internal/di"
	"evidence-engine/internal/domain"
	"evidence-engine/internal/infra/config"
	"evidence-engine/internal/nlp"
	"evidence-engine/internal/usecase"
)

var (
	topic      string
	postText   string
	postFile   string
	docsFile   string
	topDocs    int
	candidateK int
	maxChunks  int
	optimize   bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "evidence-cli",
	Short:         "Hybrid evidence retrieval from a local document pool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select context chunks for a post from a JSON document pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, input, err := buildUsecase()
		if err != nil {
			return err
		}
		out, err := uc.Execute(cmd.Context(), input)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show retrieval diagnostics for a post and document pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, input, err := buildUsecase()
		if err != nil {
			return err
		}
		stats, err := uc.Stats(cmd.Context(), input)
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&topic, "topic", "", "claim topic (required)")
	rootCmd.PersistentFlags().StringVar(&postText, "post", "", "post text to analyze")
	rootCmd.PersistentFlags().StringVar(&postFile, "post-file", "", "read post text from file ('-' for stdin)")
	rootCmd.PersistentFlags().StringVar(&docsFile, "documents", "", "JSON file with the document pool (required)")
	rootCmd.PersistentFlags().IntVar(&topDocs, "top-docs", 0, "override number of documents to keep")
	rootCmd.PersistentFlags().IntVar(&candidateK, "candidate-k", 0, "override vector candidate pool size")
	rootCmd.PersistentFlags().IntVar(&maxChunks, "max-chunks", 0, "override maximum context chunks")
	rootCmd.PersistentFlags().BoolVar(&optimize, "optimize-for-query", false, "re-rank chunks by query overlap")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(statsCmd)
}

type poolDocument struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Text         string            `json:"text"`
	URL          string            `json:"url"`
	Lang         string            `json:"lang"`
	PublishedAt  string            `json:"published_at"`
	Source       string            `json:"source"`
	PlatformMeta map[string]string `json:"platform_meta"`
	Embedding    []float32         `json:"embedding"`
}

func buildUsecase() (usecase.SelectContextUsecase, usecase.SelectContextInput, error) {
	var input usecase.SelectContextInput

	if topic == "" {
		return nil, input, fmt.Errorf("--topic is required")
	}
	if docsFile == "" {
		return nil, input, fmt.Errorf("--documents is required")
	}

	post := postText
	if postFile != "" {
		data, err := readPost(postFile)
		if err != nil {
			return nil, input, err
		}
		post = data
	}

	docs, embeddings, err := loadPool(docsFile)
	if err != nil {
		return nil, input, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Load()
	encoder := di.NewEncoder(cfg)
	uc, err := di.NewSelectUsecase(cfg, encoder, nlp.NewLanguageDetector(), log)
	if err != nil {
		return nil, input, err
	}

	input = usecase.SelectContextInput{
		Topic:            topic,
		PostText:         post,
		Documents:        docs,
		Embeddings:       embeddings,
		OptimizeForQuery: optimize,
		TopDocs:          topDocs,
		CandidateK:       candidateK,
		MaxChunks:        maxChunks,
	}
	return uc, input, nil
}

func readPost(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read post file: %w", err)
	}
	return string(data), nil
}

func loadPool(path string) ([]domain.Document, [][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read document pool: %w", err)
	}

	var pool []poolDocument
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, nil, fmt.Errorf("parse document pool: %w", err)
	}

	docs := make([]domain.Document, 0, len(pool))
	embeddings := make([][]float32, 0, len(pool))
	haveEmbeddings := true
	for _, p := range pool {
		docs = append(docs, domain.Document{
			ID:           p.ID,
			Title:        p.Title,
			Text:         p.Text,
			URL:          p.URL,
			Lang:         p.Lang,
			PublishedAt:  p.PublishedAt,
			Source:       p.Source,
			PlatformMeta: p.PlatformMeta,
		})
		embeddings = append(embeddings, p.Embedding)
		if len(p.Embedding) == 0 {
			haveEmbeddings = false
		}
	}

	// Stored embeddings are only usable when every document carries one;
	// otherwise the pipeline re-encodes the whole pool.
	if !haveEmbeddings {
		embeddings = nil
	}
	return docs, embeddings, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
