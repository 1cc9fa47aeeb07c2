package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a missing or malformed request field. Nothing has
// been recorded or sent when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// CallError wraps a failure to obtain any model output: admission timeout,
// cancellation, rate limiting or a transport error.
type CallError struct {
	Intent Intent
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Intent, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func missing(field string) error {
	return &ValidationError{Field: field, Message: field + " is required"}
}

// requireText returns a ValidationError for the first blank value.
// pairs alternates field name and value.
func requireText(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return missing(pairs[i])
		}
	}
	return nil
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
