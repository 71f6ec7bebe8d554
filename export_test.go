package kinde2e

import "github.com/mantalabs/kinde2e/internal/kube"

// ToolRunner exposes the command surface Run drives so the _test package can
// supply a fake.
type ToolRunner = toolRunner

// WithRunnerForTesting replaces the command runner that Run would build.
func WithRunnerForTesting(r ToolRunner) RunOption {
	return func(s *runSettings) {
		s.runner = r
	}
}

// WithKubeClientForTesting replaces the client constructor used by the API
// log source.
func WithKubeClientForTesting(fn func(kubeconfig, namespace string) (*kube.Client, error)) RunOption {
	return func(s *runSettings) {
		s.kubeClient = fn
	}
}
