package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nawka12/AiChanWeb/internal/httpkit"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave implements the Provider interface for the Brave Search API.
type Brave struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// BraveOption configures a Brave provider.
type BraveOption func(*Brave)

// WithBraveEndpoint overrides the API URL.
func WithBraveEndpoint(u string) BraveOption {
	return func(b *Brave) { b.endpoint = u }
}

// NewBrave creates a Brave Search provider.
func NewBrave(apiKey string, logger *slog.Logger, opts ...BraveOption) *Brave {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Brave{
		apiKey:   apiKey,
		endpoint: braveEndpoint,
		logger:   logger.With("provider", "brave"),
	}
	for _, o := range opts {
		o(b)
	}
	b.httpClient = httpkit.NewClient(
		httpkit.WithTimeout(15*time.Second),
		httpkit.WithLogger(b.logger),
	)
	return b
}

func (b *Brave) Name() string { return "brave" }

// braveResponse is the JSON response from Brave's web search API.
type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (b *Brave) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.Count
	if count == 0 {
		count = 5
	}

	params := url.Values{
		"q":     {query},
		"count": {strconv.Itoa(count)},
	}

	if opts.Language != "" {
		params.Set("search_lang", opts.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("brave: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("brave: HTTP %d: %s", resp.StatusCode, body)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	results := make([]Result, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		results = append(results, Result{
			Title:   CleanSnippet(r.Title),
			URL:     r.URL,
			Content: CleanSnippet(r.Description),
			Engines: []string{"brave"},
		})
	}

	return results, nil
}
