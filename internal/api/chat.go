package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/pipeline"
	"github.com/nawka12/AiChanWeb/internal/stream"
)

// ChatRequest is the body of POST /chat and of each WebSocket frame.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	UserID  string `json:"userId" validate:"required"`
	Command string `json:"command" validate:"omitempty,oneof=offline search deepsearch"`
}

func (req ChatRequest) pipelineRequest() pipeline.Request {
	// Validation has already restricted Command to known values.
	cmd, _ := chat.ParseCommand(req.Command)
	return pipeline.Request{UserID: req.UserID, Message: req.Message, Command: cmd}
}

// handleChat streams the pipeline's events as server-sent events.
// POST /chat {"message": "...", "userId": "...", "command": "search"}
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	log := s.log(r)

	em, err := stream.NewSSEEmitter(w, log)
	if err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// A client that goes away does not stop the request; its remaining
	// writes fail quietly.
	ctx := context.WithoutCancel(r.Context())
	err = s.chat.Handle(ctx, req.pipelineRequest(), em)

	var searchErr *pipeline.SearchError
	if !errors.As(err, &searchErr) {
		return
	}
	if em.Started() {
		// Status already committed by a progress event.
		_ = em.Emit(stream.Failure(pipeline.MsgSearchFailed))
		return
	}
	s.errorResponse(w, r, http.StatusInternalServerError, pipeline.MsgSearchFailed)
}

// handleChatWS accepts chat requests as JSON text frames and answers
// each with the same events as POST /chat. Requests on one connection
// run one after another.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	log := s.log(r)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	em := stream.NewWSEmitter(conn, log)
	ctx := context.WithoutCancel(r.Context())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read ended", "error", err)
			}
			return
		}
		em.Reset()

		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			_ = em.Emit(stream.Failure("invalid request body"))
			continue
		}
		if err := s.validate.Struct(req); err != nil {
			_ = em.Emit(stream.Failure(validationMessage(err)))
			continue
		}

		err = s.chat.Handle(ctx, req.pipelineRequest(), em)
		var searchErr *pipeline.SearchError
		if errors.As(err, &searchErr) {
			_ = em.Emit(stream.Failure(pipeline.MsgSearchFailed))
		}
	}
}
