package converge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/mantalabs/kinde2e/internal/logging"
	"k8s.io/utils/clock"
)

// Fetch reads the observable once.
type Fetch func(ctx context.Context) (string, error)

// Diagnose collects state for a failure report. It runs at most once.
type Diagnose func(ctx context.Context) (string, error)

// Config controls one Await call.
type Config struct {
	// Name labels logs and errors. Defaults to "convergence".
	Name string

	// Start is when the clock started. Zero means the first Clock.Now.
	Start time.Time
	// Deadline is absolute. After an attempt fails at or past it, the wait
	// ends.
	Deadline time.Time
	// Interval is the pause between attempts. It does not grow.
	Interval time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock
	// Retryable classifies fetch errors. Defaults to DefaultRetryable.
	// Predicate misses are always retried.
	Retryable func(error) bool
	Logger    *slog.Logger
	// Progress, when set, receives one "Waiting N seconds..." line per pause.
	Progress io.Writer
}

// Result describes a successful wait.
type Result struct {
	Attempts int
	Elapsed  time.Duration
}

// Await polls fetch until predicate holds. See the package documentation for
// the retry rules.
//
// On timeout it returns a *TimeoutError. Cancellation of ctx is returned
// wrapped as soon as it is seen, without running diagnose. The returned Result
// always carries the attempts made and the elapsed time.
func Await(ctx context.Context, cfg Config, fetch Fetch, predicate Predicate, diagnose Diagnose) (Result, error) {
	if cfg.Interval <= 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidInterval, cfg.Interval)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	name := cfg.Name
	if name == "" {
		name = "convergence"
	}
	start := cfg.Start
	if start.IsZero() {
		start = clk.Now()
	}
	log := logging.Or(cfg.Logger, "converge").With("name", name)

	var (
		res     Result
		lastErr error
	)
	for {
		if err := ctx.Err(); err != nil {
			res.Elapsed = clk.Since(start)
			return res, fmt.Errorf("%s: %w", name, context.Cause(ctx))
		}

		res.Attempts++
		output, err := fetch(ctx)
		if err == nil {
			err = predicate(output)
		} else if ctx.Err() != nil {
			res.Elapsed = clk.Since(start)
			return res, fmt.Errorf("%s: %w", name, context.Cause(ctx))
		} else if !retryable(err) {
			res.Elapsed = clk.Since(start)
			return res, fmt.Errorf("%s attempt %d: %w", name, res.Attempts, err)
		}

		if err == nil {
			res.Elapsed = clk.Since(start)
			log.Info("converged", "attempts", res.Attempts, "elapsed", res.Elapsed)
			return res, nil
		}
		lastErr = err

		if !clk.Now().Before(cfg.Deadline) {
			break
		}

		log.Debug("attempt failed", "attempt", res.Attempts, "error", err)
		if cfg.Progress != nil {
			fmt.Fprintf(cfg.Progress, "Waiting %s seconds...\n", seconds(cfg.Interval))
		}
		if err := sleep(ctx, clk, cfg.Interval); err != nil {
			res.Elapsed = clk.Since(start)
			return res, fmt.Errorf("%s: %w", name, err)
		}
	}

	res.Elapsed = clk.Since(start)
	log.Warn("deadline passed", "attempts", res.Attempts, "elapsed", res.Elapsed, "error", lastErr)

	timeout := &TimeoutError{
		Name:     name,
		LastErr:  lastErr,
		Elapsed:  res.Elapsed,
		Attempts: res.Attempts,
	}
	if diagnose != nil {
		timeout.Diagnostic, timeout.DiagnosticErr = runDiagnose(ctx, diagnose)
		if timeout.DiagnosticErr != nil {
			log.Error("diagnostics failed", "error", timeout.DiagnosticErr)
		}
	}
	return res, timeout
}

func runDiagnose(ctx context.Context, diagnose Diagnose) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("diagnose panicked: %v", r)
		}
	}()
	return diagnose(ctx)
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	t := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C():
		return nil
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
