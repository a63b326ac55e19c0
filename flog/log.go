// Package flog provides the structured logger used across flowcore for
// watcher-failure reporting and optional node lifecycle tracing.
package flog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger so callers never need to import zerolog
// directly to configure a Node.
type Logger struct {
	z zerolog.Logger
}

// New builds a console logger writing to stdout, matching the format used
// elsewhere in this codebase's command-line tools.
func New(component string) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	z := zerolog.New(output).With().Timestamp().Str("component", component).Logger()
	return &Logger{z: z}
}

// Nop returns a logger that discards everything. This is the default for a
// Node that was not given WithLogger.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}

// NewWriter builds a logger writing JSON lines to an arbitrary writer, used
// by tests that want to assert on emitted log records.
func NewWriter(w io.Writer, component string) *Logger {
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return &Logger{z: z}
}

// WatcherPanic logs a watcher callback that panicked. Watcher failures are
// swallowed per spec: they must never influence the Node's own state.
func (l *Logger) WatcherPanic(nodeDescription string, recovered any) {
	l.z.Error().
		Str("node", nodeDescription).
		Interface("panic", recovered).
		Msg("state-changed watcher panicked; ignoring")
}

// Transition logs a mode transition at debug level.
func (l *Logger) Transition(nodeDescription, from, to string) {
	l.z.Debug().
		Str("node", nodeDescription).
		Str("from", from).
		Str("to", to).
		Msg("node mode transition")
}

// Errorf logs a formatted error-level message.
func (l *Logger) Errorf(msg string, err error) {
	l.z.Error().Err(err).Msg(msg)
}
