package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mantalabs/kinde2e/internal/sentinel"
)

// ErrOutputTooLarge is returned by Output and JSON when standard output
// exceeds the runner's capture limit.
const ErrOutputTooLarge = sentinel.Error("command output exceeds capture limit")

// FailedError reports a tool that ran and exited non-zero.
type FailedError struct {
	Tool     string
	Args     []string
	ExitCode int
	// Output is the tail of the child's standard error.
	Output string
	Err    error
}

func (e *FailedError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", commandLine(e.Tool, e.Args), e.ExitCode)
	if line := lastLine(e.Output); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// IsFailed reports whether err carries a *FailedError.
func IsFailed(err error) bool {
	var failed *FailedError
	return errors.As(err, &failed)
}

// DecodeError reports structured output that could not be parsed.
type DecodeError struct {
	Tool string
	Args []string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode json output of %s: %v", commandLine(e.Tool, e.Args), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func commandLine(tool string, args []string) string {
	if len(args) == 0 {
		return tool
	}
	return tool + " " + strings.Join(args, " ")
}

// lastLine returns the last non-empty line of s, which for kind and kubectl
// is almost always the actual error message.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
