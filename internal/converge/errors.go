package converge

import (
	"errors"
	"fmt"
	"time"

	"github.com/mantalabs/kinde2e/internal/command"
	"github.com/mantalabs/kinde2e/internal/sentinel"
)

const (
	// ErrUnsatisfied is returned by a Predicate whose condition does not hold.
	ErrUnsatisfied = sentinel.Error("condition not satisfied")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = sentinel.Error("convergence timed out")

	// ErrInvalidInterval is returned by Await for a non-positive interval.
	ErrInvalidInterval = sentinel.Error("poll interval must be positive")
)

// TimeoutError reports a wait that used up its deadline.
type TimeoutError struct {
	// Name identifies what was awaited.
	Name string
	// LastErr is the failure of the final attempt.
	LastErr  error
	Elapsed  time.Duration
	Attempts int
	// Diagnostic is the output of the diagnose hook, if it succeeded.
	Diagnostic string
	// DiagnosticErr is set when the diagnose hook itself failed.
	DiagnosticErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: %s after %s (%d attempts)", e.Name, ErrTimeout, e.Elapsed, e.Attempts)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

// Unwrap exposes ErrTimeout and the last attempt's error.
func (e *TimeoutError) Unwrap() []error {
	if e.LastErr == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.LastErr}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable by DefaultRetryable. Nil stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient anywhere in its chain.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// DefaultRetryable treats non-zero tool exits and Transient errors as worth
// another attempt. Start failures, decode errors, and oversized output are not.
func DefaultRetryable(err error) bool {
	return command.IsFailed(err) || IsTransient(err)
}
