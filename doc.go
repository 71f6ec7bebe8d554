// Package kinde2e runs one end-to-end test of the proxy-informer controller
// against a disposable kind cluster.
//
// A run creates the cluster, optionally builds the controller image and loads
// it into the nodes, applies the workload manifests in order, and then polls
// the log of one container until it shows the controller both adding and
// removing a proxy. The cluster is deleted afterwards on every exit path when
// deletion is enabled.
//
// # Basic Usage
//
//	import "github.com/mantalabs/kinde2e"
//
//	cfg := kinde2e.DefaultConfig()
//	cfg.Timeout = 2 * time.Minute
//
//	report, err := kinde2e.Run(ctx, cfg)
//	report.Render(os.Stdout)
//	if err != nil {
//	    os.Exit(1)
//	}
//
// # Failures
//
// Failures of kind, docker and kubectl are *CommandError values. While
// polling they only mean "not ready yet"; everywhere else they end the run.
// When the deadline passes, Run returns a *TimeoutError carrying the last
// failure and a description of the diagnostic resource. A failed cluster
// deletion is logged and recorded in Report.TeardownErr but never changes the
// returned error.
//
// Two runs on one host with the same cluster name exclude each other through
// a lock file; the second fails with ErrClusterBusy before touching anything.
package kinde2e
