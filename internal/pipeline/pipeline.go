// Package pipeline runs one chat request from start to finish: session
// lookup, the optional web search phase, the final answer, and the
// session update, reporting progress and the result to an emitter.
//
// Stages are built per request around a provider client made from the
// current credential, so a credential saved at runtime applies to the
// next request.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/llm"
	"github.com/nawka12/AiChanWeb/internal/query"
	"github.com/nawka12/AiChanWeb/internal/responder"
	"github.com/nawka12/AiChanWeb/internal/search"
	"github.com/nawka12/AiChanWeb/internal/session"
	"github.com/nawka12/AiChanWeb/internal/stream"
	"github.com/nawka12/AiChanWeb/internal/summarizer"
)

// Credentials supplies the provider key. An empty key means none is
// configured.
type Credentials interface {
	Key() string
}

// Request is one submitted chat message.
type Request struct {
	UserID  string
	Message string
	Command chat.Command
}

// Pipeline handles chat requests.
type Pipeline struct {
	store     session.Store
	creds     Credentials
	newClient llm.Factory
	searcher  search.Searcher
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now for the dates in the personas.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline.
func New(store session.Store, creds Credentials, newClient llm.Factory, searcher search.Searcher, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		store:     store,
		creds:     creds,
		newClient: newClient,
		searcher:  searcher,
		now:       time.Now,
		logger:    logger.With("component", "pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Handle processes req and writes its events to em.
//
// On success the last event is a final event with the stored
// conversation. A [*ConfigurationError] or [*ProviderError] also ends
// with a final event, carrying the user-facing message and no
// conversation. A [*SearchError] emits nothing further; the caller
// decides how to report it, since progress may already be on the
// wire. The returned error is for the caller's logs and transport.
func (p *Pipeline) Handle(ctx context.Context, req Request, em stream.Emitter) error {
	start := time.Now()
	log := p.logger.With("user_id", req.UserID, "mode", req.Command)

	key := p.creds.Key()
	if key == "" {
		return p.fail(log, em, &ConfigurationError{})
	}
	log.Debug("using credential", "key_prefix", keyPrefix(key))
	client := p.newClient(key)

	p.store.SetCommand(req.UserID, req.Command)
	sess := p.store.Get(req.UserID)
	messageIndex := len(sess.Conversation)

	var turn chat.Turn
	if req.Command.Searches() {
		prompt, err := p.searchPhase(ctx, client, req, sess, messageIndex, em, log)
		if err != nil {
			log.Error("search failed", "error", err)
			return err
		}
		turn = chat.UserText(prompt)
	} else {
		turn = chat.UserText(req.Message)
		if summarizer.Needed(sess.Conversation) {
			summary, err := summarizer.New(client, p.logger).Summarize(ctx, sess.Summary, sess.Conversation)
			if err != nil {
				return p.fail(log, em, &ProviderError{Err: err})
			}
			p.store.SetSummary(req.UserID, summary)
		}
	}

	// Re-read so turns stored by a concurrent request for the same user
	// are part of the history the model sees.
	messages := chat.Merge(p.store.Get(req.UserID).Conversation, []chat.Turn{turn})

	reply, err := responder.New(client, p.logger, responder.WithClock(p.now)).Respond(ctx, req.Command, messages)
	if err != nil {
		return p.fail(log, em, &ProviderError{Err: err})
	}

	conversation := p.store.AppendTurns(req.UserID, chat.UserText(req.Message), chat.AssistantText(reply))
	_ = em.Emit(stream.Final(reply, conversation))

	log.Info("chat handled",
		"turns", len(conversation),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// searchPhase returns the question augmented with web results.
func (p *Pipeline) searchPhase(ctx context.Context, client llm.Client, req Request, sess session.Session, messageIndex int, em stream.Emitter, log *slog.Logger) (string, error) {
	summary := sess.Summary
	if summarizer.Needed(sess.Conversation) {
		s, err := summarizer.New(client, p.logger).Summarize(ctx, sess.Summary, sess.Conversation)
		if err != nil {
			return "", &SearchError{Stage: "context", Err: err}
		}
		p.store.SetSummary(req.UserID, s)
		summary = s
	}

	queries, err := query.New(client, p.logger, query.WithClock(p.now)).Generate(ctx, req.Command, req.Message, summary)
	if err != nil {
		return "", &SearchError{Stage: "queries", Err: err}
	}

	progress := func(pr search.Progress) {
		if !pr.Done {
			_ = em.Emit(stream.Progress(pr.Message, pr.Queries))
			return
		}
		p.store.AppendSearchStatus(req.UserID, chat.SearchStatusRecord{
			MessageIndex: pr.MessageIndex,
			Status:       chat.SearchStatus{Content: pr.Message, Queries: pr.Queries},
		})
		_ = em.Emit(stream.Completed(pr.Message, pr.Queries, pr.MessageIndex))
	}

	out, err := search.NewOrchestrator(p.searcher, p.logger).Run(ctx, search.Plan{
		Queries:      queries,
		Question:     req.Message,
		MessageIndex: messageIndex,
	}, progress)
	if err != nil {
		return "", &SearchError{Stage: "run", Err: err}
	}

	log.Debug("search complete", "queries", len(queries), "results", len(out.Results))
	return out.Prompt, nil
}

// fail logs err and ends the stream with its user-facing message.
func (p *Pipeline) fail(log *slog.Logger, em stream.Emitter, err error) error {
	log.Error("chat failed", "error", err)
	_ = em.Emit(stream.Final(UserMessage(err), nil))
	return err
}

func keyPrefix(key string) string {
	if len(key) <= 5 {
		return "..."
	}
	return key[:5] + "..."
}
