package kinde2e

import (
	"github.com/mantalabs/kinde2e/internal/cluster"
	"github.com/mantalabs/kinde2e/internal/command"
	"github.com/mantalabs/kinde2e/internal/converge"
	"github.com/mantalabs/kinde2e/internal/sentinel"
)

// Sentinel errors for inspection with errors.Is.
const (
	// ErrInvalidConfig is returned by Config.Validate and by Run before any
	// tool is invoked.
	ErrInvalidConfig = sentinel.Error("invalid configuration")

	// ErrClusterBusy is returned by Run when another run holds the lock for
	// the same cluster name.
	ErrClusterBusy = cluster.ErrClusterBusy

	// ErrTeardownFailed matches Report.TeardownErr. It is never returned by
	// Run.
	ErrTeardownFailed = cluster.ErrTeardownFailed

	// ErrUnsatisfied matches a poll whose log lacked a marker.
	ErrUnsatisfied = converge.ErrUnsatisfied

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = converge.ErrTimeout

	// ErrOutputTooLarge is returned when a command's output exceeds the
	// capture limit.
	ErrOutputTooLarge = command.ErrOutputTooLarge
)

// CommandError is returned when an external tool exits non-zero. Inspect it
// with errors.As to get the tool, arguments, exit code and stderr tail.
type CommandError = command.FailedError

// DecodeError is returned when a tool's JSON output cannot be decoded.
type DecodeError = command.DecodeError

// TimeoutError is returned when the log never showed every marker before the
// deadline. It carries the last failure, the elapsed time, the attempt count
// and the diagnostic captured at the end.
type TimeoutError = converge.TimeoutError
