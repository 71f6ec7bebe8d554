// Command kinde2e runs the proxy-informer end-to-end test against a kind
// cluster and exits non-zero when it fails.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mantalabs/kinde2e"
	"github.com/mantalabs/kinde2e/internal/sentinel"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errReported marks an error whose details the report already printed.
const errReported = sentinel.Error("end-to-end run failed")

type runFunc func(ctx context.Context, cfg kinde2e.Config, opts ...kinde2e.RunOption) (kinde2e.Report, error)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, kinde2e.Run)
	cancel()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. It only
// returns after kinde2e.Run has returned, so the cluster teardown has fired.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, runE runFunc) int {
	cmd := newRootCommand(stdout, stderr, runE)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errReported):
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
}

func newRootCommand(stdout, stderr io.Writer, runE runFunc) *cobra.Command {
	opts := newOptions()
	v := newViper()

	cmd := &cobra.Command{
		Use:   "kinde2e",
		Short: "Run the proxy-informer end-to-end test on a kind cluster",
		Long: "kinde2e creates a kind cluster, builds and loads the controller image, applies the\n" +
			"test manifests and waits until the validator log shows a proxy being added and removed.\n" +
			"The cluster is deleted afterwards unless --no-delete-cluster is given.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyViper(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger, err := newLogger(stderr, opts.logLevel)
			if err != nil {
				return err
			}
			if opts.noColor {
				color.NoColor = true
			}
			kinde2e.SetLogger(logger)

			report, err := runE(cmd.Context(), cfg,
				kinde2e.WithLogger(logger),
				kinde2e.WithOutput(stdout, stderr),
			)
			report.Render(stdout)
			if err != nil {
				return fmt.Errorf("%w: %w", errReported, err)
			}
			return nil
		},
	}
	opts.bindFlags(cmd.Flags())
	cmd.Example = `  # Full run with defaults
  kinde2e

  # Reuse an existing cluster and keep it afterwards
  kinde2e --no-create-cluster --no-delete-cluster --no-docker-build

  # Longer window, API log source
  KINDE2E_TIMEOUT=180 kinde2e --log-source api`
	return cmd
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
