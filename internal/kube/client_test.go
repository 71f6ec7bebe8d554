package kube

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"k8s.io/client-go/rest"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: kind-proxy-informer-cluster
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: kind-proxy-informer-cluster
  context:
    cluster: kind-proxy-informer-cluster
    user: kind-proxy-informer-cluster
    namespace: %s
current-context: kind-proxy-informer-cluster
users:
- name: kind-proxy-informer-cluster
  user:
    token: test
`

func writeKubeconfig(t *testing.T, contextNamespace string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".kubeconfig")
	body := []byte(fmt.Sprintf(testKubeconfig, contextNamespace))
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write kubeconfig: %v", err)
	}
	return path
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		contextNamespace string
		override         string
		want             string
	}{
		"context namespace": {contextNamespace: "e2e", want: "e2e"},
		"override":          {contextNamespace: "e2e", override: "tests", want: "tests"},
		"default":           {contextNamespace: `""`, want: "default"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeKubeconfig(t, tc.contextNamespace)

			c, err := NewClient(path, tc.override)
			if err != nil {
				t.Fatalf("NewClient() error: %v", err)
			}
			if c.Namespace != tc.want {
				t.Errorf("Namespace = %q, want %q", c.Namespace, tc.want)
			}
			if c.Clientset == nil {
				t.Error("Clientset is nil")
			}
		})
	}
}

func TestNewClient_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(filepath.Join(t.TempDir(), "missing"), ""); err == nil {
		t.Error("NewClient() with missing kubeconfig expected error, got nil")
	}
}

func TestLoadConfig_WarningsScopedToConfig(t *testing.T) {
	t.Parallel()

	cfg, ns, err := loadConfig(writeKubeconfig(t, "e2e"), "")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if ns != "e2e" {
		t.Errorf("namespace = %q, want e2e", ns)
	}
	if _, ok := cfg.WarningHandler.(rest.NoWarnings); !ok {
		t.Errorf("WarningHandler = %T, want rest.NoWarnings", cfg.WarningHandler)
	}
	if cfg.Timeout != requestTimeout {
		t.Errorf("Timeout = %s, want %s", cfg.Timeout, requestTimeout)
	}
}
