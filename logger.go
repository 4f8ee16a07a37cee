package treeverify

import (
	"log/slog"

	"github.com/dtaikl/treeverify/internal/obslog"
)

// Logger is this module's structured-logging wrapper: see internal/obslog
// for the shared per-step/solution/redistribute/checkpoint log shape used by
// Session, search.Search, and driver.Driver alike.
type Logger = obslog.Logger

// NewLogger creates a new Logger with the given handler. If handler is nil,
// uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger { return obslog.New(handler) }

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger { return obslog.NewJSON(level) }

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger { return obslog.NewText(level) }

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger { return obslog.Noop() }
