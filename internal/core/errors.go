package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a request exceeds its timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled is returned when a request was aborted before completion.
	ErrCancelled = errors.New("request cancelled")
)

// InvalidRequestSpecError reports a spec that cannot be dispatched.
type InvalidRequestSpecError struct {
	Reason string
}

func (e *InvalidRequestSpecError) Error() string {
	return "invalid request: " + e.Reason
}

// NetworkError reports a transport-level failure (DNS, refused connection, TLS...).
type NetworkError struct {
	Reason string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return "network error: " + e.Err.Error()
	}
	return fmt.Sprintf("network error: %s", e.Reason)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return &InvalidRequestSpecError{Reason: fmt.Sprintf(format, args...)}
}
