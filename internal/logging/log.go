package logging

import (
	"log/slog"
	"sync/atomic"
)

// logger holds a caller-supplied logger. Nil means Logger falls back to a
// cached logger derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches slog.Default() with the component attribute. It is
// cleared by SetLogger so a later slog.SetDefault can be picked up.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the package-level logger. It never returns nil and is safe
// for concurrent use.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "kinde2e")
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// SetLogger replaces the package-level logger. Passing nil restores the
// slog.Default()-derived logger on the next Logger call.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}

// Stage returns the package-level logger tagged with a run stage.
func Stage(name string) *slog.Logger {
	return Logger().With("stage", name)
}

// Or returns l, or Stage(name) when l is nil.
func Or(l *slog.Logger, name string) *slog.Logger {
	if l != nil {
		return l
	}
	return Stage(name)
}
