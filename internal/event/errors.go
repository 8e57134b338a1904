package event

import (
	"errors"
	"fmt"
)

// DecodeError reports an event that could not be decoded or failed
// validation.
type DecodeError struct {
	// Kind is the declared kind, if one was present.
	Kind Kind

	// Reason is a short human-readable description.
	Reason string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := e.Reason
	if e.Kind != "" {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("decode event: %s: %v", msg, e.Err)
	}
	return "decode event: " + msg
}

// Unwrap returns the underlying parse error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
