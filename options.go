package kinde2e

import (
	"io"
	"log/slog"
	"os"

	"github.com/mantalabs/kinde2e/internal/kube"
	"github.com/mantalabs/kinde2e/internal/logging"
	"k8s.io/utils/clock"
)

// RunOption configures a single Run.
//
// Options that receive a nil interface panic. The values are normally wired
// once in main or a test helper, so a nil is a programmer error.
type RunOption func(*runSettings)

// runSettings is assembled from RunOptions. None of it is part of Config
// because none of it describes the test itself.
type runSettings struct {
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock

	// runner and kubeClient are replaced in tests.
	runner     toolRunner
	kubeClient func(kubeconfig, namespace string) (*kube.Client, error)
}

func defaultRunSettings() runSettings {
	return runSettings{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		clock:      clock.RealClock{},
		kubeClient: kube.NewClient,
	}
}

func newRunSettings(opts []RunOption) runSettings {
	s := defaultRunSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.Stage("run")
	}
	return s
}

// WithLogger sets the logger for this run instead of the package-level one.
// Panics if l is nil.
func WithLogger(l *slog.Logger) RunOption {
	if l == nil {
		panic("kinde2e: logger must not be nil")
	}
	return func(s *runSettings) {
		s.logger = l
	}
}

// WithOutput sets where the output of kind, docker and kubectl is streamed,
// along with the "Waiting N seconds..." progress lines. Nil writers discard.
//
// Default: os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) RunOption {
	return func(s *runSettings) {
		s.stdout = orDiscard(stdout)
		s.stderr = orDiscard(stderr)
	}
}

// WithClock sets the clock the convergence deadline and pauses are measured
// on. Panics if c is nil.
func WithClock(c clock.Clock) RunOption {
	if c == nil {
		panic("kinde2e: clock must not be nil")
	}
	return func(s *runSettings) {
		s.clock = c
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
