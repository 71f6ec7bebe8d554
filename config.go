package kinde2e

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mantalabs/kinde2e/internal/fileutil"
)

// Config holds the parameters of one run. Run takes it by value, so the run
// never observes later changes by the caller.
type Config struct {
	// ClusterName names the kind cluster. It is also passed to every kind
	// invocation and names the run lock.
	ClusterName string
	// KindConfig is the kind cluster configuration file.
	KindConfig string
	// KindImage is the kind node image.
	KindImage string
	// Kubeconfig is the credentials file kind writes and every tool reads.
	// It is exported to children as KUBECONFIG.
	Kubeconfig string
	// Manifests are applied in order with "kubectl apply -f".
	Manifests []string

	// CreateCluster gates "kind create cluster".
	CreateCluster bool
	// DeleteCluster schedules "kind delete cluster" on every exit path.
	DeleteCluster bool
	// DockerBuild gates building ImageTag and loading it into the cluster.
	DockerBuild bool

	// Timeout is the convergence window. The deadline is fixed once, when
	// the last manifest has been applied. Zero allows exactly one attempt.
	Timeout time.Duration
	// Interval is the constant pause between attempts.
	Interval time.Duration
	// Verbosity is passed to "kind create cluster".
	Verbosity int

	ImageTag     string
	BuildContext string

	// Namespace is where LogPod and DiagnosticResource live. Empty means the
	// kubeconfig context's namespace.
	Namespace    string
	LogSource    LogSource
	LogPod       string
	LogContainer string
	// Markers must all occur in a single fetched log.
	Markers []string
	// DiagnosticResource is described once when the run times out.
	DiagnosticResource string

	KindBinary    string
	KubectlBinary string
	DockerBinary  string

	// LockDir holds the per-cluster lock file.
	LockDir string
	// LockTimeout bounds the wait for a concurrent run on the same cluster.
	// Zero fails at once if the lock is held.
	LockTimeout time.Duration
	// TeardownTimeout bounds cluster deletion.
	TeardownTimeout time.Duration
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		ClusterName:        DefaultClusterName,
		KindConfig:         DefaultKindConfig,
		KindImage:          DefaultKindImage,
		Kubeconfig:         DefaultKubeconfig,
		Manifests:          DefaultManifests(),
		CreateCluster:      true,
		DeleteCluster:      true,
		DockerBuild:        true,
		Timeout:            DefaultTimeout,
		Interval:           DefaultInterval,
		Verbosity:          DefaultVerbosity,
		ImageTag:           DefaultImageTag,
		BuildContext:       DefaultBuildContext,
		LogSource:          LogSourceKubectl,
		LogPod:             DefaultLogPod,
		LogContainer:       DefaultLogContainer,
		Markers:            DefaultMarkers(),
		DiagnosticResource: DefaultDiagnosticResource,
		KindBinary:         DefaultKindBinary,
		KubectlBinary:      DefaultKubectlBinary,
		DockerBinary:       DefaultDockerBinary,
		LockDir:            filepath.Join(os.TempDir(), DefaultLockDirName),
		LockTimeout:        DefaultLockTimeout,
		TeardownTimeout:    DefaultTeardownTimeout,
	}
}

// Validate checks every Config invariant and reports all violations at once.
// The returned error matches ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error

	if c.ClusterName == "" {
		errs = append(errs, errors.New("cluster name must not be empty"))
	}
	if c.Kubeconfig == "" {
		errs = append(errs, errors.New("kubeconfig path must not be empty"))
	}
	if c.CreateCluster {
		if c.KindConfig == "" {
			errs = append(errs, errors.New("kind config must not be empty when creating the cluster"))
		}
		if c.KindImage == "" {
			errs = append(errs, errors.New("kind image must not be empty when creating the cluster"))
		}
	}
	if c.DockerBuild {
		if c.ImageTag == "" {
			errs = append(errs, errors.New("image tag must not be empty when building"))
		}
		if c.BuildContext == "" {
			errs = append(errs, errors.New("build context must not be empty when building"))
		}
		if c.DockerBinary == "" {
			errs = append(errs, errors.New("docker binary must not be empty when building"))
		}
	}
	if len(c.Manifests) == 0 {
		errs = append(errs, errors.New("at least one manifest is required"))
	}
	if slices.Contains(c.Manifests, "") {
		errs = append(errs, errors.New("manifest paths must not be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be greater than 0, got %s", c.Interval))
	}
	if c.Verbosity < 0 {
		errs = append(errs, fmt.Errorf("verbosity must not be negative, got %d", c.Verbosity))
	}
	if !c.LogSource.IsValid() {
		errs = append(errs, fmt.Errorf("invalid log source: %q", c.LogSource))
	}
	if c.LogPod == "" {
		errs = append(errs, errors.New("log pod must not be empty"))
	}
	if len(c.Markers) == 0 {
		errs = append(errs, errors.New("at least one log marker is required"))
	}
	if slices.Contains(c.Markers, "") {
		errs = append(errs, errors.New("log markers must not be empty"))
	}
	if c.DiagnosticResource == "" {
		errs = append(errs, errors.New("diagnostic resource must not be empty"))
	}
	if c.KindBinary == "" {
		errs = append(errs, errors.New("kind binary must not be empty"))
	}
	if c.KubectlBinary == "" {
		errs = append(errs, errors.New("kubectl binary must not be empty"))
	}
	if c.LockDir == "" {
		errs = append(errs, errors.New("lock directory must not be empty"))
	}
	if c.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("lock timeout must not be negative, got %s", c.LockTimeout))
	}
	if c.TeardownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("teardown timeout must be greater than 0, got %s", c.TeardownTimeout))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// expandPaths returns a copy of c with "~" expanded in every path field.
func (c Config) expandPaths() (Config, error) {
	var errs []error
	expand := func(p *string) {
		v, err := fileutil.ExpandPath(*p)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*p = v
	}

	expand(&c.KindConfig)
	expand(&c.Kubeconfig)
	expand(&c.BuildContext)
	expand(&c.LockDir)
	c.Manifests = slices.Clone(c.Manifests)
	for i := range c.Manifests {
		expand(&c.Manifests[i])
	}
	c.Markers = slices.Clone(c.Markers)

	if len(errs) > 0 {
		return c, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return c, nil
}
