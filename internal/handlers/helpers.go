package handlers

import (
	"encoding/json"
	"net/http"

	"careerpath-ai/internal/contextutil"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		contextutil.LoggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

// errorResponse is the JSON body for error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}
