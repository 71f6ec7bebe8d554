package kinde2e

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mantalabs/kinde2e/internal/cluster"
	"github.com/mantalabs/kinde2e/internal/command"
	"github.com/mantalabs/kinde2e/internal/converge"
	"github.com/mantalabs/kinde2e/internal/deploy"
	"github.com/mantalabs/kinde2e/internal/kube"
)

// toolRunner is the command surface a run needs. *command.Runner implements it.
type toolRunner interface {
	Run(ctx context.Context, tool string, args ...string) error
	Output(ctx context.Context, tool string, args ...string) (string, error)
	JSON(ctx context.Context, v any, tool string, args ...string) error
}

var _ toolRunner = (*command.Runner)(nil)

// Run executes one end-to-end test:
//
//  1. validate cfg and take the per-cluster lock
//  2. schedule cluster deletion, if DeleteCluster is set
//  3. create the cluster, if CreateCluster is set
//  4. build and load the image, if DockerBuild is set
//  5. apply the manifests in order
//  6. fix the deadline and poll the workload log until every marker shows up
//
// The first failing stage ends the run. The scheduled deletion runs on every
// return path, panics included, on a context that ignores ctx's cancellation
// and is bounded by TeardownTimeout. A failed deletion is recorded in
// Report.TeardownErr and never replaces the returned error.
//
// The returned Report is filled on every path; Report.Err is the returned error.
func Run(ctx context.Context, cfg Config, opts ...RunOption) (report Report, err error) {
	s := newRunSettings(opts)
	log := s.logger.With("cluster", cfg.ClusterName)

	defer func() {
		report.Err = err
		report.Success = err == nil
	}()

	if err := cfg.Validate(); err != nil {
		return report, err
	}
	cfg, err = cfg.expandPaths()
	if err != nil {
		return report, err
	}

	lock, err := cluster.Lock(ctx, cfg.LockDir, cfg.ClusterName, cfg.LockTimeout)
	if err != nil {
		return report, err
	}
	defer cluster.Unlock(log, lock)
	log.LogAttrs(ctx, slog.LevelInfo, "starting run", logAttrs(cfg)...)

	runner := s.runner
	if runner == nil {
		runner = command.New(cfg.Kubeconfig,
			command.WithOutput(s.stdout, s.stderr),
			command.WithLogger(log.With("stage", "command")),
		)
	}

	mgr := cluster.NewManager(cluster.Config{
		Name:         cfg.ClusterName,
		NodeConfig:   cfg.KindConfig,
		NodeImage:    cfg.KindImage,
		Verbosity:    cfg.Verbosity,
		Create:       cfg.CreateCluster,
		Build:        cfg.DockerBuild,
		ImageTag:     cfg.ImageTag,
		BuildContext: cfg.BuildContext,
		KindBinary:   cfg.KindBinary,
		DockerBinary: cfg.DockerBinary,
	}, runner, log.With("stage", "cluster"))

	if cfg.DeleteCluster {
		defer func() {
			tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.TeardownTimeout)
			defer cancel()
			mgr.Teardown(tctx)
			report.TeardownErr = mgr.TeardownErr()
		}()
	} else {
		log.Info("cluster deletion disabled, cluster will be kept")
	}

	if err := mgr.Provision(ctx); err != nil {
		return report, err
	}
	if err := mgr.PrepareImage(ctx); err != nil {
		return report, err
	}
	if err := deploy.Apply(ctx, runner, cfg.KubectlBinary, cfg.Manifests, log.With("stage", "deploy")); err != nil {
		return report, err
	}

	fetch, err := newFetch(cfg, s, runner)
	if err != nil {
		return report, err
	}

	start := s.clock.Now()
	res, err := converge.Await(ctx, converge.Config{
		Name:     fmt.Sprintf("logs %s/%s", cfg.LogPod, cfg.LogContainer),
		Start:    start,
		Deadline: start.Add(cfg.Timeout),
		Interval: cfg.Interval,
		Clock:    s.clock,
		Logger:   log.With("stage", "converge"),
		Progress: s.stdout,
	}, fetch, converge.ContainsAll(cfg.Markers...), newDiagnose(runner, cfg))

	report.Attempts = res.Attempts
	report.Elapsed = res.Elapsed
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		report.Diagnostic = timeout.Diagnostic
	}
	if err != nil {
		return report, err
	}

	log.Info("run succeeded", "attempts", res.Attempts, "elapsed", res.Elapsed)
	return report, nil
}

// newFetch builds the log reader for the configured source. The API source
// loads the kubeconfig here, after the cluster exists.
func newFetch(cfg Config, s runSettings, runner toolRunner) (converge.Fetch, error) {
	if cfg.LogSource == LogSourceAPI {
		client, err := s.kubeClient(cfg.Kubeconfig, cfg.Namespace)
		if err != nil {
			return nil, fmt.Errorf("api log source: %w", err)
		}
		logs := &kube.PodLogs{
			Client:    client.Clientset,
			Namespace: client.Namespace,
			Pod:       cfg.LogPod,
			Container: cfg.LogContainer,
			MaxBytes:  command.DefaultMaxOutputBytes,
		}
		return logs.Fetch, nil
	}

	args := []string{"logs", cfg.LogPod}
	if cfg.LogContainer != "" {
		args = append(args, cfg.LogContainer)
	}
	args = kubectlArgs(cfg, args...)
	return func(ctx context.Context) (string, error) {
		return runner.Output(ctx, cfg.KubectlBinary, args...)
	}, nil
}

// logAttrs is the set of run attributes attached to the first log line.
func logAttrs(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("kubeconfig", cfg.Kubeconfig),
		slog.Bool("create", cfg.CreateCluster),
		slog.Bool("delete", cfg.DeleteCluster),
		slog.Bool("build", cfg.DockerBuild),
		slog.Duration("timeout", cfg.Timeout),
		slog.String("log_source", cfg.LogSource.String()),
	}
}
