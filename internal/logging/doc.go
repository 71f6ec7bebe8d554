// Package logging holds the process-wide slog logger shared by all kinde2e
// stages.
package logging
