// Package converge polls an observable until a predicate holds or a deadline
// passes.
//
// Await runs attempts back to back with a constant pause between them. Each
// attempt fetches the observable and evaluates the predicate against the full
// output. Failures the caller classifies as retryable, and predicate misses,
// lead to another attempt while time remains. Anything else ends the wait at
// once. When the deadline passes without success the diagnose hook runs exactly
// once and its output is attached to the returned *TimeoutError.
//
// Time is read through k8s.io/utils/clock so tests can drive the loop with a
// fake clock.
package converge
