// Package sentinel provides an immutable error type for package-level
// sentinel errors.
//
// Every kinde2e package declares its sentinels as const values of
// sentinel.Error so they cannot be reassigned at runtime:
//
//	const ErrClusterBusy = sentinel.Error("cluster is locked by another run")
package sentinel
