// Package query turns a user's question into web search queries.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/llm"
	"github.com/nawka12/AiChanWeb/internal/prompts"
)

// Generation parameters for the query writer.
const (
	MaxTokens   = 100
	Temperature = 0.7
)

// Generator asks the provider for search queries.
type Generator struct {
	client   llm.Client
	username string
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithUsername sets the name the persona uses for the user.
func WithUsername(name string) Option {
	return func(g *Generator) { g.username = name }
}

// WithClock replaces time.Now for the date in the persona.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator that calls client.
func New(client llm.Client, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		client:   client,
		username: prompts.DefaultUsername,
		now:      time.Now,
		logger:   logger.With("component", "query"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns the queries for question in the provider's order.
// Search mode yields one query; deepsearch yields as many as the
// provider wrote. Repeated queries are kept. Offline mode is an error.
func (g *Generator) Generate(ctx context.Context, cmd chat.Command, question, summary string) ([]string, error) {
	var persona string
	switch cmd {
	case chat.Search:
		persona = prompts.Query(g.username, g.now())
	case chat.DeepSearch:
		persona = prompts.DeepQuery(g.username, g.now())
	default:
		return nil, fmt.Errorf("generate queries: mode %q does not search", cmd)
	}

	resp, err := g.client.Complete(ctx, llm.Request{
		System:      persona,
		Messages:    []chat.Turn{chat.UserText(prompts.QueryPrompt(summary, question))},
		MaxTokens:   MaxTokens,
		Temperature: llm.Temperature(Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("generate queries: %w", err)
	}

	var queries []string
	if cmd == chat.Search {
		if q := strings.TrimSpace(resp.Text); q != "" {
			queries = []string{q}
		}
	} else {
		queries = SplitQueries(resp.Text)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("generate queries: provider returned no query")
	}

	g.logger.Debug("queries generated", "mode", cmd, "count", len(queries), "queries", queries)
	return queries, nil
}

// SplitQueries splits comma-separated provider output into trimmed,
// non-empty queries.
func SplitQueries(s string) []string {
	fields := strings.Split(s, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if q := strings.TrimSpace(f); q != "" {
			out = append(out, q)
		}
	}
	return out
}
