// Package summarizer maintains the rolling context summary of a
// conversation. The summary lets the query writer resolve follow-up
// questions ("and who won after that?") without the full history.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/llm"
	"github.com/nawka12/AiChanWeb/internal/prompts"
)

// MinTurns is the shortest conversation worth summarizing.
const MinTurns = 2

// MaxTokens bounds the summary length.
const MaxTokens = 200

// Summarizer condenses the last exchange plus the previous summary into
// a new summary.
type Summarizer struct {
	client llm.Client
	logger *slog.Logger
}

// New creates a summarizer that calls client.
func New(client llm.Client, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client: client,
		logger: logger.With("component", "summarizer"),
	}
}

// Needed reports whether a conversation is long enough to summarize.
func Needed(conversation []chat.Turn) bool {
	return len(conversation) >= MinTurns
}

// Summarize returns a new summary built from the last two turns of
// conversation and prior. Conversations shorter than [MinTurns] return
// "" without calling the provider.
func (s *Summarizer) Summarize(ctx context.Context, prior string, conversation []chat.Turn) (string, error) {
	if !Needed(conversation) {
		return "", nil
	}

	last := conversation[len(conversation)-MinTurns:]
	start := time.Now()
	resp, err := s.client.Complete(ctx, llm.Request{
		System:    prompts.Context(),
		Messages:  []chat.Turn{chat.UserText(prompts.ContextPrompt(prior, last))},
		MaxTokens: MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize context: %w", err)
	}

	s.logger.Debug("context summarized",
		"turns", len(conversation),
		"had_prior", prior != "",
		"summary_len", len(resp.Text),
		"duration", time.Since(start),
	)
	return resp.Text, nil
}
