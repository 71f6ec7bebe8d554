package kinde2e

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mantalabs/kinde2e/internal/converge"
	appsv1 "k8s.io/api/apps/v1"
)

// newDiagnose returns the hook run once on timeout. It captures the
// "kubectl describe" text of the diagnostic resource and, for a StatefulSet,
// a one-paragraph status summary decoded from "kubectl get -o json". Whatever
// succeeded is returned together with the joined failures.
func newDiagnose(r toolRunner, cfg Config) converge.Diagnose {
	return func(ctx context.Context) (string, error) {
		var (
			parts []string
			errs  []error
		)

		desc, err := r.Output(ctx, cfg.KubectlBinary, kubectlArgs(cfg, "describe", cfg.DiagnosticResource)...)
		if err != nil {
			errs = append(errs, fmt.Errorf("describe %s: %w", cfg.DiagnosticResource, err))
		} else if desc = strings.TrimRight(desc, "\n"); desc != "" {
			parts = append(parts, desc)
		}

		if isStatefulSet(cfg.DiagnosticResource) {
			var sts appsv1.StatefulSet
			if err := r.JSON(ctx, &sts, cfg.KubectlBinary, kubectlArgs(cfg, "get", cfg.DiagnosticResource)...); err != nil {
				errs = append(errs, fmt.Errorf("get %s: %w", cfg.DiagnosticResource, err))
			} else {
				parts = append(parts, summarizeStatefulSet(&sts))
			}
		}

		return strings.Join(parts, "\n\n"), errors.Join(errs...)
	}
}

// isStatefulSet reports whether a kubectl "TYPE/NAME" reference names a
// StatefulSet.
func isStatefulSet(resource string) bool {
	kind, _, ok := strings.Cut(resource, "/")
	if !ok {
		return false
	}
	switch strings.ToLower(kind) {
	case "statefulset", "statefulsets", "sts", "statefulset.apps", "statefulsets.apps":
		return true
	default:
		return false
	}
}

func summarizeStatefulSet(sts *appsv1.StatefulSet) string {
	desired := int32(1)
	if sts.Spec.Replicas != nil {
		desired = *sts.Spec.Replicas
	}
	st := sts.Status

	var b strings.Builder
	fmt.Fprintf(&b, "StatefulSet %s/%s: %d desired, %d current, %d ready, %d updated",
		sts.Namespace, sts.Name, desired, st.CurrentReplicas, st.ReadyReplicas, st.UpdatedReplicas)
	fmt.Fprintf(&b, " (generation %d, observed %d)", sts.Generation, st.ObservedGeneration)
	if st.CurrentRevision != "" || st.UpdateRevision != "" {
		fmt.Fprintf(&b, "\n  revision: current=%s update=%s", st.CurrentRevision, st.UpdateRevision)
	}
	for _, c := range st.Conditions {
		fmt.Fprintf(&b, "\n  condition %s=%s", c.Type, c.Status)
		if c.Message != "" {
			fmt.Fprintf(&b, ": %s", c.Message)
		}
	}
	return b.String()
}

// kubectlArgs appends the namespace flag when one is configured.
func kubectlArgs(cfg Config, args ...string) []string {
	if cfg.Namespace == "" {
		return args
	}
	return append(args, "--namespace", cfg.Namespace)
}
