package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "writing response", "error", err.Error())
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, status int, msg string, details ...string) {
	s.writeJSON(ctx, w, status, errorResponse{Error: msg, Details: details})
}
