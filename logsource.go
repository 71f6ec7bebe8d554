package kinde2e

import "fmt"

// LogSource selects how the workload log is read while polling.
type LogSource string

const (
	// LogSourceKubectl runs "kubectl logs POD CONTAINER". This is the default.
	LogSourceKubectl LogSource = "kubectl"

	// LogSourceAPI reads the log through the Kubernetes API with client-go,
	// using the same kubeconfig.
	LogSourceAPI LogSource = "api"
)

// IsValid reports whether s is a recognized LogSource value.
func (s LogSource) IsValid() bool {
	switch s {
	case LogSourceKubectl, LogSourceAPI:
		return true
	default:
		return false
	}
}

func (s LogSource) String() string {
	return string(s)
}

// ParseLogSource converts a flag value into a LogSource.
func ParseLogSource(v string) (LogSource, error) {
	s := LogSource(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown log source %q (want %q or %q)", v, LogSourceKubectl, LogSourceAPI)
	}
	return s, nil
}
