package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot
// flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// SSEEmitter writes events as server-sent events. Headers go out with
// the first event, so a handler can still reply with a normal status
// code while [SSEEmitter.Started] is false.
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	started bool
	logger  *slog.Logger
}

// NewSSEEmitter wraps w. It fails when w does not support flushing.
func NewSSEEmitter(w http.ResponseWriter, logger *slog.Logger) (*SSEEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEEmitter{
		w:       w,
		flusher: flusher,
		rc:      http.NewResponseController(w),
		logger:  logger,
	}, nil
}

func (e *SSEEmitter) start() {
	h := e.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	e.w.WriteHeader(http.StatusOK)
	e.started = true
}

// Emit implements [Emitter].
func (e *SSEEmitter) Emit(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	if !e.started {
		e.start()
	}

	// Provider calls between events can be slow; keep the write
	// deadline ahead of them.
	if err := e.rc.SetWriteDeadline(time.Now().Add(120 * time.Second)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		e.logger.Debug("failed to reset write deadline", "error", err)
	}

	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		e.logger.Debug("failed to write SSE event", "type", ev.Type, "error", err)
		return err
	}
	e.flusher.Flush()
	return nil
}

// Started implements [Emitter].
func (e *SSEEmitter) Started() bool { return e.started }
