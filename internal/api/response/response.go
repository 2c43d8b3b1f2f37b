package response

import (
	"encoding/json"
	"net/http"
)

// APIError is the error tag/message pair contract used by the scoring
// endpoint: a short machine-readable tag ("Missing Parameter", "Invalid
// Parameter", "Invalid JSON") plus a human-readable message, with no
// "code" field duplicating the HTTP status.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Tagged writes an APIError response with the given status code and tag.
func Tagged(w http.ResponseWriter, status int, tag, message string) {
	JSON(w, status, APIError{Error: tag, Message: message})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}
