package framegraph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for framegraph and all its sub-packages.
// By default, framegraph produces no log output.
//
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by framegraph:
//   - [slog.LevelDebug]: render group lifecycle, layout cache hits, shader set disposal
//   - [slog.LevelWarn]: pipeline state the HAL cannot express and ignores
//
// Every record carries a [ComponentKey] attribute naming the sub-package.
//
// Example:
//
//	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by framegraph.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// ComponentKey is the attribute key naming the sub-package a record comes
// from.
const ComponentKey = "component"

// Component returns the current logger with the ComponentKey attribute set
// to name ("factory", "shader", "render"). Sub-packages log through it so
// records can be filtered per package.
//
// The result follows the logger in effect at call time; do not keep it
// across SetLogger calls.
func Component(name string) *slog.Logger {
	return Logger().With(slog.String(ComponentKey, name))
}
