package server

import (
	"encoding/json"
	"net/http"

	apperr "github.com/shifthunter/backend/internal/errors"
)

// WriteJSON serializes v to the response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a service/repo error to its HTTP status and writes a
// JSON error body.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := apperr.Map(err)
	WriteJSON(w, status, map[string]string{"message": msg})
}

// DecodeJSON parses the request body into v, reporting malformed or
// oversized input as a bad request.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return false
	}
	return true
}
