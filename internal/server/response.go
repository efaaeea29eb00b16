package server

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/soundrooms/resonance/internal/logging"
)

// errorResponse is the wire shape of every non-2xx reply
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.WithFields(logging.Fields{"component": "server"}).
			Error("encode response", logging.Fields{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
