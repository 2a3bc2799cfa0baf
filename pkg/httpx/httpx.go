// Package httpx carries small helpers shared by the JSON endpoints.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteError renders a failure in the same shape the HTML error view uses:
// a numeric error code plus a user-facing message.
func WriteError(w http.ResponseWriter, status, errorCode int, message string) {
	WriteJSON(w, status, map[string]any{
		"request_id":    NewRequestID(),
		"error_code":    errorCode,
		"error_message": message,
	})
}
