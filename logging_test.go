package async

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingLogger captures every structured entry as one flattened line, so
// tests can assert on the diagnostics the library claims to emit.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Event(LogLevel) LogEntry {
	return &recordingEntry{l: l}
}

func (l *recordingLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

type recordingEntry struct {
	l     *recordingLogger
	parts []string
}

func (e *recordingEntry) Str(key, val string) LogEntry {
	e.parts = append(e.parts, key+"="+val)
	return e
}

func (e *recordingEntry) Err(err error) LogEntry {
	e.parts = append(e.parts, "err="+err.Error())
	return e
}

func (e *recordingEntry) Log(msg string) {
	e.l.mu.Lock()
	e.l.lines = append(e.l.lines, strings.Join(append(e.parts, msg), " "))
	e.l.mu.Unlock()
}

func TestStreamContractViolationLogsThroughStreamLogger(t *testing.T) {
	rl := &recordingLogger{}
	s := NewStreamCell[int, string](1, WithStreamLogger(rl))
	s.SetOnValueAvailableOnce(func() {})

	require.Panics(t, func() { s.SetOnValueAvailableOnce(func() {}) })
	require.True(t, rl.contains("contract violation"))
	require.True(t, rl.contains("op=StreamCell.SetOnValueAvailableOnce"))
}

func TestCompletionCallbackPanicIsRecoveredAndLogged(t *testing.T) {
	rl := &recordingLogger{}
	SetDiagnosticLogger(rl)
	t.Cleanup(func() { SetDiagnosticLogger(nil) })

	p := NewPromise[int]()
	f := p.Future()

	var secondRan bool
	f.AddSynchronousCallback(func() { panic("callback boom") })
	f.AddSynchronousCallback(func() { secondRan = true })

	// Set must return normally: the panicking callback is recovered and
	// logged, and the rest of the chain still runs.
	require.NotPanics(t, func() { p.Set(1) })
	require.True(t, secondRan)
	require.True(t, rl.contains("completion callback panic recovered"))
	require.True(t, rl.contains("callback boom"))
}

func TestRegistryScavengeLogsDroppedEntries(t *testing.T) {
	rl := &recordingLogger{}
	SetDiagnosticLogger(rl)
	t.Cleanup(func() { SetDiagnosticLogger(nil) })

	r := newCoroutineRegistry()
	cell := newSharedCell[int]()
	registerPendingCell(r, cell)
	cell.complete(1)

	r.Scavenge(16)
	require.Zero(t, r.Count())
	require.True(t, rl.contains("registry scavenge"))
	require.True(t, rl.contains("dropped=1"))
}

func TestSchedulerCloseLogsStateTransitions(t *testing.T) {
	rl := &recordingLogger{}
	sched := NewThreadPoolScheduler(2, WithLogger(rl))
	sched.Close()

	require.True(t, rl.contains("scheduler state transition"))
	require.True(t, rl.contains("state="+StateClosing.String()))
	require.True(t, rl.contains("state="+StateClosed.String()))
}
