package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

// ResultsPerQuery is how many results each query contributes.
const ResultsPerQuery = 3

// Progress reports one step of a run. Steps before a query have Done
// false; the single final step has Done true and carries the caller's
// MessageIndex.
type Progress struct {
	Message  string
	Queries  []string
	Position int
	Total    int

	Done         bool
	MessageIndex int
}

// ProgressFunc receives progress synchronously, in order. The run does
// not continue until it returns.
type ProgressFunc func(Progress)

// Plan is the input to [Orchestrator.Run].
type Plan struct {
	Queries  []string
	Question string
	// MessageIndex is the conversation position the search belongs to.
	MessageIndex int
}

// Outcome is the aggregate of a successful run.
type Outcome struct {
	Results []Result
	// Prompt is the question augmented with every result.
	Prompt string
	// Status is the final progress message with all queries.
	Status chat.SearchStatus
}

// Orchestrator runs queries strictly one after another. Sequential
// execution keeps progress events in the order the user sees them.
type Orchestrator struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over searcher.
func NewOrchestrator(searcher Searcher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		searcher: searcher,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Run executes plan. Before each query it reports progress with the
// query about to run, the queries issued so far, and its 1-based
// position. Each query contributes at most [ResultsPerQuery] results.
// The first failure aborts the run; progress already reported stands.
func (o *Orchestrator) Run(ctx context.Context, plan Plan, progress ProgressFunc) (*Outcome, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	total := len(plan.Queries)
	if total == 0 {
		return nil, fmt.Errorf("search: no queries")
	}

	var all []Result
	for i, q := range plan.Queries {
		pos := i + 1
		progress(Progress{
			Message:  ProgressMessage(q, pos, total),
			Queries:  slices.Clone(plan.Queries[:pos]),
			Position: pos,
			Total:    total,
		})

		start := time.Now()
		results, err := o.searcher.Search(ctx, q, Options{Count: ResultsPerQuery})
		if err != nil {
			return nil, fmt.Errorf("search %q (%d/%d): %w", q, pos, total, err)
		}
		if len(results) > ResultsPerQuery {
			results = results[:ResultsPerQuery]
		}
		all = append(all, results...)

		o.logger.Debug("query searched",
			"query", q,
			"position", pos,
			"total", total,
			"results", len(results),
			"duration", time.Since(start),
		)
	}

	status := chat.SearchStatus{
		Content: CompletionMessage(total),
		Queries: slices.Clone(plan.Queries),
	}
	progress(Progress{
		Message:      status.Content,
		Queries:      slices.Clone(status.Queries),
		Position:     total,
		Total:        total,
		Done:         true,
		MessageIndex: plan.MessageIndex,
	})

	return &Outcome{
		Results: all,
		Prompt:  FormatAugmented(all, plan.Question),
		Status:  status,
	}, nil
}

// ProgressMessage is shown while query pos of total runs.
func ProgressMessage(query string, pos, total int) string {
	return fmt.Sprintf("Searching the web for \"%s\"... (%d/%d)", query, pos, total)
}

// CompletionMessage is shown once every query has run. The result count
// is total*ResultsPerQuery, the most a run can collect, not what the
// backend actually returned.
func CompletionMessage(total int) string {
	noun := "queries"
	if total == 1 {
		noun = "query"
	}
	return fmt.Sprintf("Done! Searched %d %s with %d results.", total, noun, total*ResultsPerQuery)
}

// FormatAugmented renders results ahead of the user's question.
func FormatAugmented(results []Result, question string) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("URL: %s, Title: %s, Content: %s", r.URL, r.Title, r.Content)
	}
	return "Here's more data from the web about my question:\n\n" +
		strings.Join(blocks, "\n\n") +
		"\n\nMy question is: " + question
}
