package kinde2e

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
)

// Report is the outcome of a Run.
type Report struct {
	// Success is true when every marker was seen in one fetch.
	Success bool
	// Elapsed is measured from the start of convergence polling.
	Elapsed time.Duration
	// Attempts is the number of log fetches made.
	Attempts int
	// Diagnostic holds what was captured about the workload on timeout.
	Diagnostic string
	// Err is the error Run returned.
	Err error
	// TeardownErr records a failed cluster deletion. It never changes Err.
	TeardownErr error
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

// Render writes the human-readable verdict to w. Color follows
// fatih/color's global NoColor setting.
func (r Report) Render(w io.Writer) {
	if r.Success {
		successColor.Fprintf(w, "\nSuccess (%s seconds)\n\n", formatSeconds(r.Elapsed))
		r.renderTeardown(w)
		return
	}

	if errors.Is(r.Err, ErrTimeout) {
		failureColor.Fprintln(w, "\nTimed out or assertion failed!")
	} else {
		failureColor.Fprintln(w, "\nRun failed!")
	}
	if r.Diagnostic != "" {
		fmt.Fprintf(w, "\n%s\n", r.Diagnostic)
	}

	var timeout *TimeoutError
	if errors.As(r.Err, &timeout) && timeout.DiagnosticErr != nil {
		warnColor.Fprintf(w, "diagnostics unavailable: %v\n", timeout.DiagnosticErr)
	}
	if r.Err != nil {
		fmt.Fprintf(w, "\nerror: %v\n", r.Err)
	}
	r.renderTeardown(w)
}

func (r Report) renderTeardown(w io.Writer) {
	if r.TeardownErr != nil {
		warnColor.Fprintf(w, "warning: %v\n", r.TeardownErr)
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64)
}
