package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"gatekeeper/pkg/platform/sentinel"
)

// Error is a transport-level error with an HTTP status and a stable machine code.
// Handlers build these from domain failures; WriteError renders the JSON envelope.
type Error struct {
	Status      int
	Code        string
	Description string
}

func (e *Error) Error() string { return e.Code + ": " + e.Description }

// NewError builds a transport error.
func NewError(status int, code, description string) *Error {
	return &Error{Status: status, Code: code, Description: description}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError centralizes error translation to HTTP responses so every handler
// returns a consistent JSON envelope. Internal errors never leak descriptions.
func WriteError(w http.ResponseWriter, err error) {
	var te *Error
	if errors.As(err, &te) {
		body := map[string]string{"error": te.Code}
		if te.Status < http.StatusInternalServerError && te.Description != "" {
			body["error_description"] = te.Description
		}
		WriteJSON(w, te.Status, body)
		return
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
}

// Decode reads a JSON request body into T, returning false after writing a
// bad-request envelope when parsing fails.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewError(http.StatusBadRequest, "bad_request", "malformed JSON body"))
		return req, false
	}
	return req, true
}
