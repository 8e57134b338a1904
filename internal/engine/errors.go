package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/feedline/internal/event"
)

// DispatchError reports an event the engine refused or failed to journal.
// Reducer transitions themselves never fail.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Kind is the kind of the rejected event, if known.
	Kind event.Kind

	// Seq is the sequence number the event was assigned, or 0.
	Seq int64

	// Err is the underlying cause.
	Err error
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeInvalidEvent indicates the event failed validation or encoding.
	ErrCodeInvalidEvent DispatchErrorCode = "INVALID_EVENT"

	// ErrCodeJournalFailed indicates the event could not be written to the journal.
	// The registry is left untouched.
	ErrCodeJournalFailed DispatchErrorCode = "JOURNAL_FAILED"

	// ErrCodeEngineStopped indicates the engine no longer accepts events.
	ErrCodeEngineStopped DispatchErrorCode = "ENGINE_STOPPED"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	msg := string(e.Code)
	if e.Kind != "" {
		msg = fmt.Sprintf("%s (kind=%s", msg, e.Kind)
		if e.Seq > 0 {
			msg = fmt.Sprintf("%s, seq=%d", msg, e.Seq)
		}
		msg += ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

func dispatchCode(err error) (DispatchErrorCode, bool) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// IsInvalidEvent reports whether err is an INVALID_EVENT dispatch error.
// Uses errors.As to handle wrapped errors.
func IsInvalidEvent(err error) bool {
	code, ok := dispatchCode(err)
	return ok && code == ErrCodeInvalidEvent
}

// IsJournalError reports whether err is a JOURNAL_FAILED dispatch error.
func IsJournalError(err error) bool {
	code, ok := dispatchCode(err)
	return ok && code == ErrCodeJournalFailed
}

// IsStopped reports whether err is an ENGINE_STOPPED dispatch error.
func IsStopped(err error) bool {
	code, ok := dispatchCode(err)
	return ok && code == ErrCodeEngineStopped
}
