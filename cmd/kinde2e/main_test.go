package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mantalabs/kinde2e"
)

// recorder is a runFunc that keeps the configuration it was called with.
type recorder struct {
	called bool
	cfg    kinde2e.Config
	ctxErr error
	report kinde2e.Report
	err    error
}

func (r *recorder) run(ctx context.Context, cfg kinde2e.Config, _ ...kinde2e.RunOption) (kinde2e.Report, error) {
	r.called = true
	r.cfg = cfg
	r.ctxErr = ctx.Err()
	report := r.report
	report.Err = r.err
	report.Success = r.err == nil
	return report, r.err
}

// parse runs the command with a recorder and returns the configuration it
// would have run with.
func parse(t *testing.T, args ...string) kinde2e.Config {
	t.Helper()
	rec := &recorder{}
	var stderr bytes.Buffer
	if code := run(context.Background(), args, io.Discard, &stderr, rec.run); code != 0 {
		t.Fatalf("run(%q) = %d, stderr: %s", args, code, stderr.String())
	}
	if !rec.called {
		t.Fatalf("run(%q) did not start a run", args)
	}
	return rec.cfg
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := parse(t)
	want := kinde2e.DefaultConfig()

	if cfg.ClusterName != want.ClusterName || cfg.KindImage != want.KindImage || cfg.Kubeconfig != want.Kubeconfig {
		t.Errorf("cluster settings = %q %q %q, want defaults", cfg.ClusterName, cfg.KindImage, cfg.Kubeconfig)
	}
	if !cfg.CreateCluster || !cfg.DeleteCluster || !cfg.DockerBuild {
		t.Errorf("toggles = %v/%v/%v, want all true", cfg.CreateCluster, cfg.DeleteCluster, cfg.DockerBuild)
	}
	if cfg.Timeout != 90*time.Second || cfg.Interval != 5*time.Second {
		t.Errorf("timeout/interval = %s/%s, want 1m30s/5s", cfg.Timeout, cfg.Interval)
	}
	if !slices.Equal(cfg.Manifests, want.Manifests) {
		t.Errorf("Manifests = %q, want %q", cfg.Manifests, want.Manifests)
	}
	if cfg.LogSource != kinde2e.LogSourceKubectl {
		t.Errorf("LogSource = %q, want kubectl", cfg.LogSource)
	}
}

func TestPairedFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args       []string
		wantCreate bool
		wantDelete bool
		wantBuild  bool
	}{
		"defaults": {
			wantCreate: true, wantDelete: true, wantBuild: true,
		},
		"all disabled": {
			args:       []string{"--no-create-cluster", "--no-delete-cluster", "--no-docker-build"},
			wantCreate: false, wantDelete: false, wantBuild: false,
		},
		"enable after disable wins": {
			args:       []string{"--no-delete-cluster", "--delete-cluster"},
			wantCreate: true, wantDelete: true, wantBuild: true,
		},
		"disable after enable wins": {
			args:       []string{"--delete-cluster", "--no-delete-cluster"},
			wantCreate: true, wantDelete: false, wantBuild: true,
		},
		"explicit values": {
			args:       []string{"--create-cluster=false", "--no-docker-build=false"},
			wantCreate: false, wantDelete: true, wantBuild: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := parse(t, tc.args...)
			if cfg.CreateCluster != tc.wantCreate {
				t.Errorf("CreateCluster = %v, want %v", cfg.CreateCluster, tc.wantCreate)
			}
			if cfg.DeleteCluster != tc.wantDelete {
				t.Errorf("DeleteCluster = %v, want %v", cfg.DeleteCluster, tc.wantDelete)
			}
			if cfg.DockerBuild != tc.wantBuild {
				t.Errorf("DockerBuild = %v, want %v", cfg.DockerBuild, tc.wantBuild)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	t.Parallel()

	cfg := parse(t,
		"--cluster-name", "ci-42",
		"--kind-config", "/tmp/kind.yaml",
		"--kind-image", "kindest/node:v1.29.2",
		"--kubeconfig", "/tmp/kubeconfig",
		"--manifest", "a.yaml,b.yaml",
		"--manifest", "c.yaml",
		"--timeout", "12.5",
		"--interval", "0.5",
		"--verbosity", "1",
		"--image-tag", "example/informer:test",
		"-n", "e2e",
		"--log-source", "api",
		"--marker", "Adding proxy",
		"--diagnostic-resource", "sts/validator",
		"--lock-timeout", "0s",
	)

	if cfg.ClusterName != "ci-42" || cfg.KindConfig != "/tmp/kind.yaml" || cfg.KindImage != "kindest/node:v1.29.2" {
		t.Errorf("cluster flags not applied: %+v", cfg)
	}
	if cfg.Kubeconfig != "/tmp/kubeconfig" {
		t.Errorf("Kubeconfig = %q", cfg.Kubeconfig)
	}
	if want := []string{"a.yaml", "b.yaml", "c.yaml"}; !slices.Equal(cfg.Manifests, want) {
		t.Errorf("Manifests = %q, want %q", cfg.Manifests, want)
	}
	if cfg.Timeout != 12500*time.Millisecond || cfg.Interval != 500*time.Millisecond {
		t.Errorf("timeout/interval = %s/%s, want 12.5s/500ms", cfg.Timeout, cfg.Interval)
	}
	if cfg.Verbosity != 1 || cfg.ImageTag != "example/informer:test" || cfg.Namespace != "e2e" {
		t.Errorf("misc flags not applied: %+v", cfg)
	}
	if cfg.LogSource != kinde2e.LogSourceAPI {
		t.Errorf("LogSource = %q, want api", cfg.LogSource)
	}
	if !slices.Equal(cfg.Markers, []string{"Adding proxy"}) {
		t.Errorf("Markers = %q", cfg.Markers)
	}
	if cfg.DiagnosticResource != "sts/validator" || cfg.LockTimeout != 0 {
		t.Errorf("DiagnosticResource = %q, LockTimeout = %s", cfg.DiagnosticResource, cfg.LockTimeout)
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("KINDE2E_CLUSTER_NAME", "from-env")
	t.Setenv("KINDE2E_NO_DOCKER_BUILD", "true")
	t.Setenv("KINDE2E_MANIFEST", "x.yaml,y.yaml")
	t.Setenv("KINDE2E_TIMEOUT", "30")

	cfg := parse(t)
	if cfg.ClusterName != "from-env" {
		t.Errorf("ClusterName = %q, want from-env", cfg.ClusterName)
	}
	if cfg.DockerBuild {
		t.Error("DockerBuild = true, want false from KINDE2E_NO_DOCKER_BUILD")
	}
	if want := []string{"x.yaml", "y.yaml"}; !slices.Equal(cfg.Manifests, want) {
		t.Errorf("Manifests = %q, want %q", cfg.Manifests, want)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}

	cfg = parse(t, "--cluster-name", "from-flag", "--docker-build")
	if cfg.ClusterName != "from-flag" {
		t.Errorf("ClusterName = %q, want the flag to beat the environment", cfg.ClusterName)
	}
	if !cfg.DockerBuild {
		t.Error("DockerBuild = false, want --docker-build to beat KINDE2E_NO_DOCKER_BUILD")
	}
}

func TestEnvironment_PairedFlagOnCommandLine(t *testing.T) {
	t.Setenv("KINDE2E_DELETE_CLUSTER", "false")

	if cfg := parse(t, "--no-delete-cluster=false"); !cfg.DeleteCluster {
		t.Error("DeleteCluster = false, want the command line to beat the environment")
	}
	if cfg := parse(t); cfg.DeleteCluster {
		t.Error("DeleteCluster = true, want false from KINDE2E_DELETE_CLUSTER")
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinde2e.yaml")
	body := "cluster-name: from-file\n" +
		"timeout: 45\n" +
		"delete-cluster: false\n" +
		"manifest:\n  - one.yaml\n  - two.yaml\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("KINDE2E_CONFIG", path)

	cfg := parse(t, "--timeout", "60")
	if cfg.ClusterName != "from-file" {
		t.Errorf("ClusterName = %q, want from-file", cfg.ClusterName)
	}
	if cfg.DeleteCluster {
		t.Error("DeleteCluster = true, want false from the config file")
	}
	if want := []string{"one.yaml", "two.yaml"}; !slices.Equal(cfg.Manifests, want) {
		t.Errorf("Manifests = %q, want %q", cfg.Manifests, want)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout = %s, want the flag value 1m0s", cfg.Timeout)
	}
}

func TestConfigFile_Missing(t *testing.T) {
	t.Setenv("KINDE2E_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	rec := &recorder{}
	var stderr bytes.Buffer
	if code := run(context.Background(), nil, io.Discard, &stderr, rec.run); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if rec.called {
		t.Error("run started with an unreadable config file")
	}
	if !strings.Contains(stderr.String(), "KINDE2E_CONFIG") {
		t.Errorf("stderr = %q, want it to name KINDE2E_CONFIG", stderr.String())
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args       []string
		runErr     error
		wantCode   int
		wantCalled bool
		wantStdout string
		wantStderr string
	}{
		"success": {
			wantCode: 0, wantCalled: true, wantStdout: "Success (",
		},
		"run failure is reported once": {
			runErr:   errors.New("apply e2e/rbac.yaml: kubectl exited with code 1"),
			wantCode: 1, wantCalled: true, wantStdout: "error: apply e2e/rbac.yaml",
		},
		"unknown log source": {
			args:     []string{"--log-source", "bogus"},
			wantCode: 1, wantStderr: "unknown log source",
		},
		"non-finite timeout": {
			args:     []string{"--timeout", "NaN"},
			wantCode: 1, wantStderr: "--timeout must be a finite number",
		},
		"bad log level": {
			args:     []string{"--log-level", "loud"},
			wantCode: 1, wantStderr: "invalid --log-level",
		},
		"unknown flag": {
			args:     []string{"--no-such-flag"},
			wantCode: 1, wantStderr: "Error: unknown flag",
		},
		"positional argument": {
			args:     []string{"extra"},
			wantCode: 1, wantStderr: "Error:",
		},
		"help": {
			args:     []string{"--help"},
			wantCode: 0, wantStdout: "--no-delete-cluster",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{err: tc.runErr}
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), tc.args, &stdout, &stderr, rec.run)
			if code != tc.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tc.wantCode, stderr.String())
			}
			if rec.called != tc.wantCalled {
				t.Errorf("run called = %v, want %v", rec.called, tc.wantCalled)
			}
			if !strings.Contains(stdout.String(), tc.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tc.wantStdout)
			}
			if !strings.Contains(stderr.String(), tc.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tc.wantStderr)
			}
			if tc.runErr != nil && strings.Contains(stderr.String(), "Error:") {
				t.Errorf("run failure printed twice: %q", stderr.String())
			}
		})
	}
}

func TestContextIsPassedThrough(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{err: context.Canceled}

	if code := run(ctx, nil, io.Discard, io.Discard, rec.run); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !errors.Is(rec.ctxErr, context.Canceled) {
		t.Errorf("run saw ctx error %v, want context.Canceled", rec.ctxErr)
	}
}
