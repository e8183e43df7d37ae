package transport

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Path      string            `json:"path"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// now is replaced in tests.
var now = time.Now

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody for the given status and message.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteFieldErrors(w, r, status, message, nil)
}

// WriteFieldErrors writes an ErrorBody carrying per-field validation messages.
func WriteFieldErrors(w http.ResponseWriter, r *http.Request, status int, message string, fields map[string]string) {
	WriteJSON(w, status, ErrorBody{
		Timestamp: now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Path:      r.URL.Path,
		Message:   message,
		Fields:    fields,
	})
}
