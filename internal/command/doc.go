// Package command runs the external tools kinde2e drives (kind, kubectl,
// docker) as child processes.
//
// A Runner pins one environment override, KUBECONFIG, to the credentials file
// written by kind; everything else is inherited from the current process. It
// offers three invocation modes:
//
//   - Run waits for exit and streams the child's output to the runner's writers.
//   - Output returns captured standard output.
//   - JSON appends "-o json" and decodes standard output.
//
// A non-zero exit is reported as *FailedError, malformed JSON as *DecodeError.
// Nothing is retried here: one call is one invocation.
package command
