package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for retry and HTTP-mapping decisions.
type Kind string

const (
	// KindIntegrity is a mutation that would break an already-committed
	// invariant. Never retried; indicates a caller bug or stale UI state.
	KindIntegrity Kind = "INTEGRITY_VIOLATION"

	// KindStateConflict is an operation that is not valid for the current
	// state of the target. Caller may retry after re-fetching state.
	KindStateConflict Kind = "STATE_CONFLICT"

	// KindConcurrentUpdate is a lost-update race detected by the optimistic
	// fallback. Transient; re-read and retry with backoff.
	KindConcurrentUpdate Kind = "CONCURRENT_UPDATE"

	// KindNotFound is a missing row, or a row that does not belong to the
	// claimed parent.
	KindNotFound Kind = "RESOURCE_NOT_FOUND"

	// KindTransient is a lock wait timeout or other infrastructure failure
	// unrelated to business rules. Retry with backoff, bounded.
	KindTransient Kind = "TRANSIENT_INFRASTRUCTURE"
)

// Error carries a classification alongside an operator-readable message.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a classification to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &Error{Kind: kind, Message: message, Detail: detail, Err: err}
}

// KindOf returns the classification of err, or "" if err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the caller should retry after backoff.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConcurrentUpdate, KindTransient:
		return true
	}
	return false
}
