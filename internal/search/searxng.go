package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/nawka12/AiChanWeb/internal/httpkit"
)

// SearXNG implements the Provider interface for a SearXNG instance.
type SearXNG struct {
	baseURL    string
	exclude    []string
	httpClient *http.Client
	logger     *slog.Logger
}

// SearXNGOption configures a SearXNG provider.
type SearXNGOption func(*SearXNG)

// WithExcludedEngines drops results attributed to exactly one engine
// when that engine is in names. Results that several engines agree on
// are kept.
func WithExcludedEngines(names ...string) SearXNGOption {
	return func(s *SearXNG) { s.exclude = names }
}

// WithSearXNGHTTPClient replaces the default HTTP client.
func WithSearXNGHTTPClient(c *http.Client) SearXNGOption {
	return func(s *SearXNG) { s.httpClient = c }
}

// NewSearXNG creates a SearXNG provider. The baseURL should be the root
// URL of the SearXNG instance (e.g., "http://localhost:8080").
func NewSearXNG(baseURL string, logger *slog.Logger, opts ...SearXNGOption) *SearXNG {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SearXNG{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("provider", "searxng"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.httpClient == nil {
		s.httpClient = httpkit.NewClient(
			httpkit.WithTimeout(15*time.Second),
			httpkit.WithLogger(s.logger),
		)
	}
	return s
}

func (s *SearXNG) Name() string { return "searxng" }

// searxngResponse is the JSON response from SearXNG's /search endpoint.
type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
	Engines []string `json:"engines"`
}

func (s *SearXNG) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
	}

	if opts.Language != "" {
		params.Set("language", opts.Language)
	}

	reqURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("searxng: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("searxng: HTTP %d: %s", resp.StatusCode, body)
	}

	var sr searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("searxng: decode response: %w", err)
	}

	results := make([]Result, 0, len(sr.Results))
	skipped := 0
	for _, r := range sr.Results {
		if s.excluded(r.Engines) {
			skipped++
			continue
		}
		if opts.Count > 0 && len(results) >= opts.Count {
			break
		}
		results = append(results, Result{
			Title:   CleanSnippet(r.Title),
			URL:     r.URL,
			Content: CleanSnippet(r.Content),
			Engines: r.Engines,
		})
	}

	if skipped > 0 {
		s.logger.Debug("skipped single-engine results", "query", query, "skipped", skipped, "engines", s.exclude)
	}
	return results, nil
}

func (s *SearXNG) excluded(engines []string) bool {
	return len(engines) == 1 && slices.Contains(s.exclude, engines[0])
}
