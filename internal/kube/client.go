package kube

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mantalabs/kinde2e/internal/fileutil"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// requestTimeout bounds every API call so one hung request cannot consume the
// whole convergence window.
const requestTimeout = 30 * time.Second

// Client is a typed clientset plus the namespace it defaults to.
type Client struct {
	Clientset kubernetes.Interface
	Namespace string
}

// NewClient loads kubeconfigPath and builds a clientset for its current
// context. An empty path falls back to the standard loading rules. The
// namespace comes from the context unless namespace is set.
func NewClient(kubeconfigPath, namespace string) (*Client, error) {
	restConfig, ns, err := loadConfig(kubeconfigPath, namespace)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}
	return &Client{Clientset: clientset, Namespace: ns}, nil
}

// loadConfig resolves the rest config and namespace. Warnings are dropped on
// this config only; the process-wide client-go handler is left alone.
func loadConfig(kubeconfigPath, namespace string) (*rest.Config, string, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		expanded, err := fileutil.ExpandPath(kubeconfigPath)
		if err != nil {
			return nil, "", fmt.Errorf("kubeconfig: %w", err)
		}
		loadingRules.ExplicitPath = filepath.Clean(expanded)
	}

	overrides := &clientcmd.ConfigOverrides{}
	if namespace != "" {
		overrides.Context.Namespace = namespace
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	ns, _, err := clientConfig.Namespace()
	if err != nil {
		return nil, "", fmt.Errorf("resolve namespace: %w", err)
	}
	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("build rest config: %w", err)
	}
	restConfig.WarningHandler = rest.NoWarnings{}
	restConfig.Timeout = requestTimeout
	return restConfig, ns, nil
}
