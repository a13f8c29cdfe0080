package api

import (
	"errors"
	"net/http"

	"github.com/nawka12/AiChanWeb/internal/credential"
)

// SaveAPIKeyRequest is the body of POST /save-api-key.
type SaveAPIKeyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleSaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req SaveAPIKeyRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.creds.Save(req.APIKey); err != nil {
		if errors.Is(err, credential.ErrEmptyKey) {
			s.errorResponse(w, r, http.StatusBadRequest, credential.ErrEmptyKey.Error())
			return
		}
		s.log(r).Error("saving credential failed", "error", err)
		s.errorResponse(w, r, http.StatusInternalServerError, "failed to save API key")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"message": "API key saved and updated successfully"}, s.log(r))
}

// APIKeyStatus is the body of GET /get-api-key. The key itself is never
// returned, only one asterisk per character.
type APIKeyStatus struct {
	APIKey string `json:"apiKey"`
	IsSet  bool   `json:"isSet"`
}

func (s *Server) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, APIKeyStatus{APIKey: s.creds.Masked(), IsSet: s.creds.IsSet()}, s.log(r))
}
