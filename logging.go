// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package async

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging sink accepted by schedulers and stream
// cells for internal diagnostics (state transitions, recovered panics,
// scavenge activity). The logging facility's policy is an external
// collaborator, not a concern of this package; Logger exists only so one
// can be injected. A nil Logger is always treated as NewNoopLogger().
type Logger interface {
	// Event starts a structured log entry at the given level. Callers chain
	// Str/Err and terminate with Log(msg); implementations that filter by
	// level may return a no-op entry.
	Event(level LogLevel) LogEntry
}

// LogEntry is a single structured log line under construction.
type LogEntry interface {
	Str(key, val string) LogEntry
	Err(err error) LogEntry
	Log(msg string)
}

// LogLevel mirrors the syslog-style severities logiface uses.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type noopLogger struct{}

func (noopLogger) Event(LogLevel) LogEntry { return noopEntry{} }

type noopEntry struct{}

func (noopEntry) Str(string, string) LogEntry { return noopEntry{} }
func (noopEntry) Err(error) LogEntry          { return noopEntry{} }
func (noopEntry) Log(string)                  {}

// NewNoopLogger returns a Logger that discards everything, the default for
// schedulers and stream cells that aren't given one explicitly.
func NewNoopLogger() Logger { return noopLogger{} }

var (
	diagMu     sync.RWMutex
	diagLogger Logger = noopLogger{}
)

// SetDiagnosticLogger installs the process-wide sink for diagnostics
// emitted by objects that have no construction-time options of their own:
// SharedCells (recovered completion-callback panics, contract violations)
// and the coroutine registry (scavenge activity). Schedulers and stream
// cells log through their injected per-instance sink instead. Passing nil
// restores the no-op default.
func SetDiagnosticLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	diagMu.Lock()
	diagLogger = l
	diagMu.Unlock()
}

func diag() Logger {
	diagMu.RLock()
	defer diagMu.RUnlock()
	return diagLogger
}

// logifaceLogger adapts a *logiface.Logger[*stumpy.Event] (this codebase's
// own JSON backend, in the same lineage as its logiface-slog and
// logiface-zerolog adapters) to the Logger interface above.
type logifaceLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds the default production Logger: structured JSON via
// logiface's stumpy backend. Pass stumpy options (e.g. stumpy.L.WithWriter)
// to customize the destination; with none given it behaves like stumpy.L.New().
func NewStumpyLogger(opts ...logiface.Option[*stumpy.Event]) Logger {
	return &logifaceLogger{l: stumpy.L.New(opts...)}
}

// NewLogifaceLogger adapts an already-constructed stumpy-backed logiface
// logger. Only the *stumpy.Event instantiation is accepted; other backends
// (logiface-slog, logiface-zerolog, ...) plug in by implementing Logger
// directly.
func NewLogifaceLogger(l *logiface.Logger[*stumpy.Event]) Logger {
	if l == nil {
		return NewNoopLogger()
	}
	return &logifaceLogger{l: l}
}

func (a *logifaceLogger) Event(level LogLevel) LogEntry {
	var b *logiface.Builder[*stumpy.Event]
	switch level {
	case LogLevelDebug:
		b = a.l.Debug()
	case LogLevelWarning:
		b = a.l.Warning()
	case LogLevelError:
		b = a.l.Err()
	default:
		b = a.l.Info()
	}
	return &logifaceEntry{b: b}
}

type logifaceEntry struct {
	b *logiface.Builder[*stumpy.Event]
}

func (e *logifaceEntry) Str(key, val string) LogEntry {
	e.b = e.b.Str(key, val)
	return e
}

func (e *logifaceEntry) Err(err error) LogEntry {
	e.b = e.b.Err(err)
	return e
}

func (e *logifaceEntry) Log(msg string) {
	e.b.Log(msg)
}
