package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"time"

	"github.com/mantalabs/kinde2e/internal/logging"
)

// KubeconfigEnv is the only environment variable a Runner overrides.
const KubeconfigEnv = "KUBECONFIG"

const (
	// DefaultMaxOutputBytes caps the standard output captured by Output and
	// JSON. Pod logs fetched during polling are the largest payload.
	DefaultMaxOutputBytes = 64 << 20

	// DefaultMaxErrorOutputBytes is how much trailing standard error is kept
	// for FailedError.Output.
	DefaultMaxErrorOutputBytes = 64 << 10
)

// Runner invokes external tools against one credentials file.
// A Runner holds no per-call state and is safe for concurrent use.
type Runner struct {
	kubeconfig   string
	stdout       io.Writer
	stderr       io.Writer
	maxOutput    int64
	maxErrOutput int
	log          *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where Run streams child output. Nil writers discard.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = orDiscard(stdout)
		r.stderr = orDiscard(stderr)
	}
}

// WithMaxOutput overrides DefaultMaxOutputBytes. Zero or less disables the cap.
func WithMaxOutput(n int64) Option {
	return func(r *Runner) {
		r.maxOutput = n
	}
}

// WithLogger sets the logger used for invocation traces.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// New returns a Runner that points every child at kubeconfig. An empty
// kubeconfig leaves KUBECONFIG as inherited.
func New(kubeconfig string, opts ...Option) *Runner {
	r := &Runner{
		kubeconfig:   kubeconfig,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		maxOutput:    DefaultMaxOutputBytes,
		maxErrOutput: DefaultMaxErrorOutputBytes,
		log:          logging.Stage("command"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes tool and waits for it to exit. Output is streamed to the
// runner's writers; the tail of standard error is also kept for the error.
func (r *Runner) Run(ctx context.Context, tool string, args ...string) error {
	errTail := newTailBuffer(r.maxErrOutput)
	cmd := r.command(ctx, tool, args)
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, errTail)
	return r.run(ctx, cmd, tool, args, errTail)
}

// Output executes tool and returns its standard output.
func (r *Runner) Output(ctx context.Context, tool string, args ...string) (string, error) {
	out := &limitedBuffer{limit: r.maxOutput}
	errTail := newTailBuffer(r.maxErrOutput)
	cmd := r.command(ctx, tool, args)
	cmd.Stdout = out
	cmd.Stderr = errTail
	if err := r.run(ctx, cmd, tool, args, errTail); err != nil {
		return "", err
	}
	if out.exceeded {
		return "", fmt.Errorf("%s: %w (limit %d bytes)", commandLine(tool, args), ErrOutputTooLarge, r.maxOutput)
	}
	return out.String(), nil
}

// JSON executes tool with "-o json" appended and decodes standard output into v.
func (r *Runner) JSON(ctx context.Context, v any, tool string, args ...string) error {
	args = append(slices.Clone(args), "-o", "json")
	out, err := r.Output(ctx, tool, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return &DecodeError{Tool: tool, Args: args, Err: err}
	}
	return nil
}

func (r *Runner) command(ctx context.Context, tool string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, tool, args...) // #nosec G204 -- tools are fixed by configuration
	cmd.Env = os.Environ()
	if r.kubeconfig != "" {
		// exec keeps the last value for duplicate keys.
		cmd.Env = append(cmd.Env, KubeconfigEnv+"="+r.kubeconfig)
	}
	configureSysProcAttr(cmd)
	return cmd
}

func (r *Runner) run(ctx context.Context, cmd *exec.Cmd, tool string, args []string, errTail *tailBuffer) error {
	r.log.Debug("running command", "tool", tool, "args", args)
	start := time.Now()

	err := cmd.Run()
	if err == nil {
		r.log.Debug("command finished", "tool", tool, "duration", time.Since(start))
		return nil
	}

	// A cancelled context kills the child; report the cancellation rather
	// than the resulting signal exit.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", commandLine(tool, args), context.Cause(ctx))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &FailedError{
			Tool:     tool,
			Args:     slices.Clone(args),
			ExitCode: exitErr.ExitCode(),
			Output:   errTail.String(),
			Err:      err,
		}
	}
	return fmt.Errorf("start %s: %w", tool, err)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
