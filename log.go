package kinde2e

import (
	"log/slog"

	"github.com/mantalabs/kinde2e/internal/logging"
)

// SetLogger replaces the package-level logger used by kinde2e when Run is not
// given WithLogger. If l is nil, the logger resets to slog.Default() with a
// "component" attribute.
//
// SetLogger is safe to call concurrently with Run, but a run that has already
// started keeps the logger it resolved.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}
