package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks a 404 from the server: the partner, message or
// request does not exist. Callers render a distinct not-found view for
// it, separate from the loading and failure states.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx response decoded from the server. Violations
// carries field-level validation messages (e.g. a duplicate friend
// request) keyed by field name; Message is the global error text.
type Error struct {
	StatusCode int
	Message    string            `json:"message"`
	Violations map[string]string `json:"violations"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: unexpected status %d", e.StatusCode)
}

// Unwrap lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}
