// Package responder produces the assistant's final answer for a
// request.
package responder

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

// MaxTokens bounds the final answer in every mode.
const MaxTokens = 4096

// Canned replies used when the provider returns no text.
const (
	EasterEggTrigger = "jomok"
	EasterEggReply   = "aiaiai"
	EmptyReply       = "I apologize, but I don't have a response at the moment."
)

// Generator issues the final completion.
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
		logger:   logger.With("component", "responder"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Respond sends messages under the persona for cmd and returns the
// reply text. An empty reply is replaced by [Fallback]; it is never
// returned as "".
func (g *Generator) Respond(ctx context.Context, cmd chat.Command, messages []chat.Turn) (string, error) {
	start := time.Now()
	resp, err := g.client.Complete(ctx, llm.Request{
		System:    prompts.System(cmd, g.username, g.now()),
		Messages:  messages,
		MaxTokens: MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}

	text := resp.Text
	if strings.TrimSpace(text) == "" {
		text = Fallback(messages)
		g.logger.Warn("provider returned no text, using fallback",
			"mode", cmd,
			"stop_reason", resp.StopReason,
		)
	}

	g.logger.Info("response generated",
		"mode", cmd,
		"model", resp.Model,
		"messages", len(messages),
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return text, nil
}

// Fallback is the reply used when the provider produced nothing. The
// last user turn equal to [EasterEggTrigger], ignoring case and
// surrounding space, gets [EasterEggReply]; anything else gets
// [EmptyReply].
func Fallback(messages []chat.Turn) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != chat.RoleUser {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(messages[i].Content.String()), EasterEggTrigger) {
			return EasterEggReply
		}
		break
	}
	return EmptyReply
}
