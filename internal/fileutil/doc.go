// Package fileutil holds the small filesystem helpers the run needs: making
// parent directories for lock files and resolving user-supplied paths.
package fileutil
