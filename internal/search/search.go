// Package search provides the web search backends and the orchestrator
// that runs a request's queries against them.
//
// Each backend implements the [Provider] interface and is registered by
// name. The [Manager] routes searches to the configured primary
// provider, and the [Orchestrator] drives a list of queries through it
// one at a time, reporting progress between steps.
package search

import (
	"context"
	"fmt"
	"slices"
)

// Result is a single search result.
type Result struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content,omitempty"`
	Engines []string `json:"engines,omitempty"`
}

// Options are optional parameters for a search query.
type Options struct {
	// Count is the maximum number of results to return.
	// Providers may return fewer. Zero means provider default.
	Count int `json:"count,omitempty"`

	// Language is an ISO 639-1 language code (e.g., "en", "de").
	Language string `json:"language,omitempty"`
}

// Provider is the interface that search backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "searxng", "brave").
	Name() string

	// Search executes a query and returns results in rank order.
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// Searcher is what the orchestrator needs from a backend. Both
// [Provider] implementations and [Manager] satisfy it.
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// Manager holds configured providers and routes searches.
type Manager struct {
	providers map[string]Provider
	primary   string
}

// NewManager creates a search manager. The primary provider name
// determines which backend serves searches.
func NewManager(primary string) *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		primary:   primary,
	}
}

// Register adds a provider to the manager.
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Search runs a query against the primary provider.
func (m *Manager) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	p, ok := m.providers[m.primary]
	if !ok {
		return nil, fmt.Errorf("search provider %q not configured", m.primary)
	}
	return p.Search(ctx, query, opts)
}

// Primary returns the name of the provider searches go to.
func (m *Manager) Primary() string { return m.primary }

// Providers returns the sorted names of all registered providers.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Configured reports whether the primary provider is registered.
func (m *Manager) Configured() bool {
	_, ok := m.providers[m.primary]
	return ok
}
