// Package deploy applies the workload manifests to the cluster.
package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mantalabs/kinde2e/internal/logging"
)

// Runner is the subset of command.Runner Apply needs.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) error
}

// Apply runs "kubectl apply -f" for each manifest in order. The first failure
// is returned and the remaining manifests are not applied. Nothing already
// applied is rolled back.
func Apply(ctx context.Context, runner Runner, kubectl string, manifests []string, log *slog.Logger) error {
	log = logging.Or(log, "deploy")

	for i, manifest := range manifests {
		log.Info("applying manifest", "manifest", manifest, "index", i+1, "total", len(manifests))
		if err := runner.Run(ctx, kubectl, "apply", "-f", manifest); err != nil {
			return fmt.Errorf("apply %s: %w", manifest, err)
		}
	}
	return nil
}
