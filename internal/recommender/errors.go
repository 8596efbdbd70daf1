package recommender

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recommendation failures so the outer API layer can
// map them to status codes without string matching.
type ErrorKind string

const (
	// KindInvalidQuery marks empty or degenerate input after
	// normalization. A client error; never retried.
	KindInvalidQuery ErrorKind = "invalid_query"

	// KindContentUnavailable marks a failed URL fetch or extraction.
	// A client error; the caller should supply the text directly.
	KindContentUnavailable ErrorKind = "content_unavailable"

	// KindUnavailable marks an exhausted embedding backend. A transient
	// server-side condition, distinct from client input errors.
	KindUnavailable ErrorKind = "recommendation_unavailable"
)

// Error carries a failure kind plus a human message for the caller.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, if the error came from the engine.
func KindOf(err error) (ErrorKind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}
