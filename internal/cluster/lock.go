package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mantalabs/kinde2e/internal/fileutil"
	"github.com/mantalabs/kinde2e/internal/sentinel"
)

// ErrClusterBusy is returned by Lock when another run holds the cluster.
const ErrClusterBusy = sentinel.Error("cluster is locked by another run")

// lockRetryInterval is the pause between attempts to take a held lock.
const lockRetryInterval = 100 * time.Millisecond

// Lock takes an exclusive file lock named after the cluster in dir, so two
// runs on one host cannot create and delete the same cluster under each
// other. It waits up to timeout; a non-positive timeout tries once.
func Lock(ctx context.Context, dir, name string, timeout time.Duration) (*flock.Flock, error) {
	path := filepath.Join(dir, name+".lock")
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, fmt.Errorf("lock cluster %s: %w", name, err)
	}

	fl := flock.New(path)
	if timeout <= 0 {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock cluster %s: %w", name, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrClusterBusy, path)
		}
		return fl, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, lockRetryInterval)
	switch {
	case locked:
		return fl, nil
	case err == nil, errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, fmt.Errorf("%w: %s (waited %s)", ErrClusterBusy, path, timeout)
	default:
		return nil, fmt.Errorf("lock cluster %s: %w", name, err)
	}
}

// Unlock releases a lock taken by Lock. The lock file stays on disk; removing
// it could break a lock another process just acquired. Nil is a no-op.
func Unlock(log *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil && log != nil {
		log.Debug("failed to release cluster lock", "path", fl.Path(), "error", err)
	}
}
