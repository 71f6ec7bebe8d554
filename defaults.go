package kinde2e

import "time"

// Default configuration values used by DefaultConfig. They are exported so
// callers can derive related settings from them.
const (
	// DefaultClusterName names the kind cluster and its lock file.
	DefaultClusterName = "proxy-informer-cluster"

	// DefaultKindConfig is the kind cluster configuration file.
	DefaultKindConfig = "e2e/kind.yaml"

	// DefaultKindImage is the node image kind boots.
	DefaultKindImage = "kindest/node:v1.16.15"

	// DefaultKubeconfig is where kind writes the cluster credentials and
	// where every tool reads them from.
	DefaultKubeconfig = "e2e/.kubeconfig"

	// DefaultTimeout is the convergence window, measured from the moment all
	// manifests have been applied.
	DefaultTimeout = 90 * time.Second

	// DefaultInterval is the constant pause between log fetches.
	DefaultInterval = 5 * time.Second

	// DefaultVerbosity is passed to "kind create cluster".
	DefaultVerbosity = 4

	// DefaultImageTag tags the image under test.
	DefaultImageTag = "mantalabs/proxy-informer:e2e"

	// DefaultBuildContext is the docker build context.
	DefaultBuildContext = "."

	// DefaultLogPod and DefaultLogContainer select the log that is polled.
	DefaultLogPod       = "validator-0"
	DefaultLogContainer = "informer"

	// DefaultDiagnosticResource is described when the run times out.
	DefaultDiagnosticResource = "statefulset/validator"

	DefaultKindBinary    = "kind"
	DefaultKubectlBinary = "kubectl"
	DefaultDockerBinary  = "docker"

	// DefaultLockDirName is the directory under the system temp directory
	// that holds per-cluster lock files.
	DefaultLockDirName = "kinde2e"

	// DefaultLockTimeout bounds the wait for another run on the same cluster.
	DefaultLockTimeout = 5 * time.Second

	// DefaultTeardownTimeout bounds "kind delete cluster". Teardown runs on a
	// context detached from the run's cancellation.
	DefaultTeardownTimeout = 2 * time.Minute
)

// DefaultManifests returns the manifests applied by default, in apply order.
// The standalone pod and the RBAC rules must exist before the stateful
// workload that depends on them.
func DefaultManifests() []string {
	return []string{"e2e/pod.yaml", "e2e/rbac.yaml", "e2e/statefulset-tests.yaml"}
}

// DefaultMarkers returns the log lines that must all appear in one fetch for
// the run to pass: the controller registering and then dropping a proxy.
func DefaultMarkers() []string {
	return []string{"Adding proxy", "Removing proxy"}
}
