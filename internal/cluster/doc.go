// Package cluster owns the lifecycle of the ephemeral kind cluster: creation,
// the optional build-and-load of the image under test, and a teardown that
// fires at most once and never fails the run.
//
// The cluster itself is not an object. It is identified by its name and the
// kubeconfig kind writes, both fixed for the life of a Manager.
package cluster
