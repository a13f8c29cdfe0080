// Package api implements the HTTP API behind the AiChan web front-end.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nawka12/AiChanWeb/internal/buildinfo"
	"github.com/nawka12/AiChanWeb/internal/pipeline"
	"github.com/nawka12/AiChanWeb/internal/session"
	"github.com/nawka12/AiChanWeb/internal/stream"
	"github.com/nawka12/AiChanWeb/internal/web"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response,
// which is not actionable but worth tracking for debugging.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// ChatHandler runs one chat request.
type ChatHandler interface {
	Handle(ctx context.Context, req pipeline.Request, em stream.Emitter) error
}

// Credentials is the credential store as the API sees it.
type Credentials interface {
	Save(key string) error
	Masked() string
	IsSet() bool
}

// Server is the HTTP API server.
type Server struct {
	address  string
	port     int
	chat     ChatHandler
	sessions session.Store
	creds    Credentials
	validate *validator.Validate
	upgrader websocket.Upgrader
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, chat ChatHandler, sessions session.Store, creds Credentials, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address:  address,
		port:     port,
		chat:     chat,
		sessions: sessions,
		creds:    creds,
		validate: newValidator(),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		logger:   logger.With("component", "api"),
	}
}

// Handler returns the full route table wrapped in the request
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /chat/ws", s.handleChatWS)

	// Sessions
	mux.HandleFunc("GET /conversation/{userId}", s.handleConversation)
	mux.HandleFunc("GET /conversation/{userId}/transcript", s.handleTranscript)
	mux.HandleFunc("POST /reset/{userId}", s.handleReset)
	mux.HandleFunc("POST /update-command", s.handleUpdateCommand)

	// Credential
	mux.HandleFunc("POST /save-api-key", s.handleSaveAPIKey)
	mux.HandleFunc("GET /get-api-key", s.handleGetAPIKey)

	// Health endpoints
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Web UI
	web.RegisterRoutes(mux)

	return s.withRequestID(s.withLogging(mux))
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // Long for streaming responses
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type loggerKey struct{}

// withRequestID assigns every request an id, echoes it in X-Request-ID
// and attaches it to the request's logger. A well-formed incoming id is
// kept.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		logger := s.logger.With("request_id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey{}, logger)))
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log(r).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// log returns the request-scoped logger.
func (s *Server) log(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return s.logger
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]string{"error": message}, s.log(r))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.log(r))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"status": "healthy",
		"uptime": buildinfo.Uptime().Round(time.Second).String(),
	}, s.log(r))
}
