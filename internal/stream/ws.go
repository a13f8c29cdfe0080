package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// WSEmitter writes each event as one JSON text frame. One WSEmitter
// may serve several requests on the same connection, one after
// another; call [WSEmitter.Reset] between them.
type WSEmitter struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
	logger  *slog.Logger
}

// NewWSEmitter wraps an upgraded connection.
func NewWSEmitter(conn *websocket.Conn, logger *slog.Logger) *WSEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSEmitter{conn: conn, logger: logger}
}

// Emit implements [Emitter].
func (e *WSEmitter) Emit(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = true
	_ = e.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := e.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		e.logger.Debug("failed to write websocket event", "type", ev.Type, "error", err)
		return err
	}
	return nil
}

// Started implements [Emitter].
func (e *WSEmitter) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Reset marks the start of the next request on the connection.
func (e *WSEmitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false
}
