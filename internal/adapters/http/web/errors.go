package web

import (
	"errors"

	"github.com/okian/inningscast/internal/adapters/http/api"
)

// ErrTemplate wraps template parse and execution failures.
var ErrTemplate = errors.New("template failure")

// ValidationError reports the first malformed form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Unwrap lets callers classify validation failures as bad requests.
func (e *ValidationError) Unwrap() error {
	return api.ErrBadRequest
}
