// Package kube reads workload logs through the Kubernetes API instead of the
// kubectl binary. It is the "api" log source of a run.
package kube
