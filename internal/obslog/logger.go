// Package obslog provides the structured-logging wrapper shared by the
// session, search, and driver packages, so a session-level caller and the
// engine's own per-step/solution/redistribute/checkpoint log lines share one
// consistent shape regardless of which package emits them.
package obslog

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with this module's session-level context.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the given handler. If handler is nil, uses
// a default text handler to stderr.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSON creates a Logger that outputs JSON-formatted logs.
func NewJSON(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewText creates a Logger that outputs human-readable text logs.
func NewText(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// Noop creates a Logger that discards all log output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithSessionID adds a session-id field to the logger.
func (l *Logger) WithSessionID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("session_id", id)}
}

// WithTreeCount adds a tree-count field to the logger.
func (l *Logger) WithTreeCount(n int) *Logger {
	return &Logger{Logger: l.Logger.With("tree_count", n)}
}

// WithFeatureCount adds a feature-count field to the logger.
func (l *Logger) WithFeatureCount(n int) *Logger {
	return &Logger{Logger: l.Logger.With("feature_count", n)}
}

// LogStep logs one search step, debug-level on success, info on a stop
// reason, error on a hard failure.
func (l *Logger) LogStep(ctx context.Context, stepIndex int, reason string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "step failed", "step", stepIndex, "reason", reason, "error", err)
		return
	}
	if reason != "none" {
		l.InfoContext(ctx, "step stopped", "step", stepIndex, "reason", reason)
		return
	}
	l.DebugContext(ctx, "step completed", "step", stepIndex)
}

// LogSolution logs a newly emitted solution.
func (l *Logger) LogSolution(ctx context.Context, solutionIndex int, output, eps float64) {
	l.InfoContext(ctx, "solution emitted", "index", solutionIndex, "output", output, "eps", eps)
}

// LogRedistribute logs a driver work-redistribution handshake.
func (l *Logger) LogRedistribute(ctx context.Context, workerCount, movedStates int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "redistribute failed", "workers", workerCount, "moved", movedStates, "error", err)
		return
	}
	l.WarnContext(ctx, "redistribute completed", "workers", workerCount, "moved", movedStates)
}

// LogCheckpoint logs a snapshot/solution-ledger write.
func (l *Logger) LogCheckpoint(ctx context.Context, uri string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed", "uri", uri, "error", err)
		return
	}
	l.InfoContext(ctx, "checkpoint written", "uri", uri)
}

// LogLedgerPost logs a solution-ledger PostIfBetter call.
func (l *Logger) LogLedgerPost(ctx context.Context, sessionID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ledger post failed", "session_id", sessionID, "error", err)
		return
	}
	l.DebugContext(ctx, "ledger post completed", "session_id", sessionID)
}
