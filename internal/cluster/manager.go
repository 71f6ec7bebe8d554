package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/mantalabs/kinde2e/internal/logging"
	"github.com/mantalabs/kinde2e/internal/sentinel"
)

// ErrTeardownFailed wraps any failure recorded by Teardown.
const ErrTeardownFailed = sentinel.Error("cluster teardown failed")

// Runner is the subset of command.Runner the lifecycle needs.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) error
}

// Config describes the cluster and image pipeline. It is copied into the
// Manager and never mutated.
type Config struct {
	Name string
	// NodeConfig is the kind cluster configuration file.
	NodeConfig string
	// NodeImage is the kind node image reference.
	NodeImage string
	Verbosity int

	// Create gates Provision.
	Create bool
	// Build gates PrepareImage.
	Build bool

	ImageTag     string
	BuildContext string

	KindBinary   string
	DockerBinary string
}

// Manager drives kind and docker for one run.
type Manager struct {
	cfg    Config
	runner Runner
	log    *slog.Logger

	teardownOnce sync.Once
	teardownErr  error
}

// NewManager returns a Manager. A nil logger uses the package-level logger.
func NewManager(cfg Config, runner Runner, log *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		runner: runner,
		log:    logging.Or(log, "cluster").With("cluster", cfg.Name),
	}
}

// Provision creates the cluster. It is a no-op when creation is disabled.
func (m *Manager) Provision(ctx context.Context) error {
	if !m.cfg.Create {
		m.log.Info("cluster creation disabled, using existing cluster")
		return nil
	}

	m.log.Info("creating cluster", "config", m.cfg.NodeConfig, "image", m.cfg.NodeImage)
	err := m.runner.Run(ctx, m.cfg.KindBinary,
		"create", "cluster",
		"--name", m.cfg.Name,
		"--config", m.cfg.NodeConfig,
		"--image", m.cfg.NodeImage,
		"--verbosity", strconv.Itoa(m.cfg.Verbosity),
	)
	if err != nil {
		return fmt.Errorf("create cluster %s: %w", m.cfg.Name, err)
	}
	m.log.Info("cluster created")
	return nil
}

// PrepareImage builds the image under test and loads it into the cluster
// nodes. It is a no-op when building is disabled.
func (m *Manager) PrepareImage(ctx context.Context) error {
	if !m.cfg.Build {
		m.log.Info("image build disabled")
		return nil
	}

	m.log.Info("building image", "tag", m.cfg.ImageTag, "context", m.cfg.BuildContext)
	if err := m.runner.Run(ctx, m.cfg.DockerBinary, "build", "-t", m.cfg.ImageTag, m.cfg.BuildContext); err != nil {
		return fmt.Errorf("build image %s: %w", m.cfg.ImageTag, err)
	}

	m.log.Info("loading image into cluster", "tag", m.cfg.ImageTag)
	if err := m.runner.Run(ctx, m.cfg.KindBinary, "load", "docker-image", m.cfg.ImageTag, "--name", m.cfg.Name); err != nil {
		return fmt.Errorf("load image %s: %w", m.cfg.ImageTag, err)
	}
	return nil
}

// Teardown deletes the cluster. Only the first call does anything. A failure,
// including a panic in the runner, is logged and kept for TeardownErr; it is
// never returned so it cannot replace the outcome of the run.
func (m *Manager) Teardown(ctx context.Context) {
	m.teardownOnce.Do(func() {
		m.teardownErr = m.deleteCluster(ctx)
		if m.teardownErr != nil {
			m.log.Error("failed to delete cluster", "tool", m.cfg.KindBinary, "error", m.teardownErr)
			return
		}
		m.log.Info("cluster deleted")
	})
}

// TeardownErr returns the failure recorded by Teardown, if any.
func (m *Manager) TeardownErr() error {
	return m.teardownErr
}

func (m *Manager) deleteCluster(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTeardownFailed, r)
		}
	}()

	m.log.Info("deleting cluster")
	if err := m.runner.Run(ctx, m.cfg.KindBinary, "delete", "cluster", "--name", m.cfg.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrTeardownFailed, err)
	}
	return nil
}
