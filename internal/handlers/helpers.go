package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

const maxClientErrorMessage = 200

// envelope is the shape of every JSON response from this API.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// respondJSON writes a success envelope around data.
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{
		Success: true,
		Data:    data,
	})
}

// respondJSONError writes an error envelope. Messages are truncated so
// wrapped internal errors do not leak full detail to clients.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	if len(message) > maxClientErrorMessage {
		message = message[:maxClientErrorMessage] + "..."
	}
	writeEnvelope(w, status, envelope{
		Success: false,
		Error:   errorType,
		Message: message,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
