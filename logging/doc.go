// Package logging provides a tiny abstraction over slog so the runtime can
// depend on a minimal interface (Logger) while letting applications plug any
// structured logger. A NoOpLogger is the default everywhere, keeping the core
// silent unless a logger is supplied.
package logging
