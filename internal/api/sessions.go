package api

import (
	"net/http"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/transcript"
)

// ConversationResponse is the body of GET /conversation/{userId}.
type ConversationResponse struct {
	Conversation   []chat.Turn               `json:"conversation"`
	SearchStatuses []chat.SearchStatusRecord `json:"searchStatuses"`
	Command        chat.Command              `json:"command"`
}

// handleConversation returns the stored session. Unknown users get an
// empty one; nothing is created.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	resp := ConversationResponse{
		Conversation:   []chat.Turn{},
		SearchStatuses: []chat.SearchStatusRecord{},
		Command:        chat.Offline,
	}
	if sess, ok := s.sessions.Peek(r.PathValue("userId")); ok {
		resp.Conversation = sess.Conversation
		resp.SearchStatuses = sess.SearchLog
		if sess.Command != "" {
			resp.Command = sess.Command
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp, s.log(r))
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	sess, _ := s.sessions.Peek(userID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := transcript.Render(w, transcript.Page{
		UserID:       userID,
		Conversation: sess.Conversation,
		SearchLog:    sess.SearchLog,
		Command:      sess.Command,
	})
	if err != nil {
		s.log(r).Error("transcript render failed", "user_id", userID, "error", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sessions.Reset(r.PathValue("userId"))
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"success": true}, s.log(r))
}

// UpdateCommandRequest is the body of POST /update-command.
type UpdateCommandRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Command string `json:"command" validate:"omitempty,oneof=offline search deepsearch"`
}

func (s *Server) handleUpdateCommand(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommandRequest
	if !s.decode(w, r, &req) {
		return
	}
	cmd, _ := chat.ParseCommand(req.Command)
	s.sessions.SetCommand(req.UserID, cmd)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"success": true}, s.log(r))
}
