// Package entrez implements a minimal NCBI E-utilities client used to
// pull Medical Subject Headings (MeSH) for topic expansion.
package entrez

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client talks to the E-utilities esearch and efetch endpoints.
// NCBI allows 3 requests per second without an API key and 10 with one;
// the built-in limiter enforces whichever applies.
type Client struct {
	BaseURL string
	Email   string
	APIKey  string

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client. Email is required by NCBI usage policy;
// callers without one should not construct a client at all.
func NewClient(email, apiKey string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("ncbi email is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := rate.Limit(3)
	if apiKey != "" {
		rps = rate.Limit(10)
	}
	return &Client{
		BaseURL:    defaultBaseURL,
		Email:      email,
		APIKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rps, 1),
		logger:     logger,
	}, nil
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// MeSHTerms searches PubMed for the query and extracts the MeSH
// headings ("MH  - " lines) from the MEDLINE records of the top hits.
// Qualifiers after "/" and major-topic asterisks are stripped.
func (c *Client) MeSHTerms(ctx context.Context, query string, maxResults int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 40
	}

	ids, err := c.search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		c.logger.Debug("entrez_no_results", slog.String("query", query))
		return nil, nil
	}

	medline, err := c.fetchMedline(ctx, ids)
	if err != nil {
		return nil, err
	}

	terms := parseMeSHHeadings(medline)
	c.logger.Debug("entrez_mesh_fetched",
		slog.String("query", query),
		slog.Int("term_count", len(terms)))
	return terms, nil
}

func (c *Client) search(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"sort":    {"relevance"},
		"retmode": {"json"},
	}
	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode esearch response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

func (c *Client) fetchMedline(ctx context.Context, ids []string) (string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"rettype": {"medline"},
		"retmode": {"text"},
	}
	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return "", fmt.Errorf("efetch failed: %w", err)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("email", c.Email)
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eutils returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseMeSHHeadings extracts headings from MEDLINE "MH  - " lines,
// deduplicated in first-seen order.
func parseMeSHHeadings(medline string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, line := range strings.Split(medline, "\n") {
		if !strings.HasPrefix(line, "MH ") {
			continue
		}
		_, value, found := strings.Cut(line, "-")
		if !found {
			continue
		}
		term := strings.TrimSpace(value)
		if idx := strings.Index(term, "/"); idx >= 0 {
			term = term[:idx]
		}
		term = strings.TrimSpace(strings.ReplaceAll(term, "*", ""))
		if len(term) < 3 {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}
