package async

// WaitToken is an opaque token used by a cooperative Executor.WaitFor /
// MarkCompleted pair.
type WaitToken uint64

// Executor is the minimal capability every Scheduler extends: run a work
// unit, and a cooperative wait that may execute other pending work while
// blocked.
type Executor interface {
	// Enqueue submits work for asynchronous execution. Returns
	// ErrSchedulerClosed if the executor has stopped accepting work.
	Enqueue(work func()) error

	// WaitFor blocks the calling goroutine until token has been marked
	// completed via MarkCompleted. While waiting, it may execute other
	// pending work units and runnable handles on the calling goroutine.
	WaitFor(token WaitToken)

	// MarkCompleted marks token complete and wakes any WaitFor(token) callers.
	MarkCompleted(token WaitToken)

	// NewWaitToken allocates a fresh token for a WaitFor/MarkCompleted pair.
	NewWaitToken() WaitToken
}

// Runnable is an opaque suspended-coroutine resumption handle: calling it
// resumes the coroutine frame on whatever goroutine invokes it.
type Runnable func()

// Scheduler extends Executor with coroutine-resumption affinity. Concrete
// variants are ThreadPoolScheduler and SingleThreadScheduler.
type Scheduler interface {
	Executor

	// InitSwitchThread reports whether a coroutine currently executing on
	// the calling goroutine must suspend and hop to one of this
	// scheduler's own goroutines before continuing.
	InitSwitchThread() bool

	// ResumeRunnable enqueues a suspended coroutine for resumption.
	// hintEndsSoon is a scheduling hint only: it is recorded with the queued
	// handle and has no effect on FIFO ordering or on metrics, and runnable
	// handles always take priority over plain work units.
	ResumeRunnable(h Runnable, hintEndsSoon bool)

	// Address returns an opaque, stable identifier for diagnostics/logging.
	Address() uintptr

	// Metrics returns a snapshot of scheduler metrics (the zero value if
	// metrics were not enabled via WithSchedulerMetrics).
	Metrics() MetricsSnapshot

	// Close drains and stops the scheduler, blocking until its goroutine(s)
	// exit. Close is idempotent.
	Close()
}

// StartMode is the second component of SchedulingInfo.
type StartMode int

const (
	// SameThread allows a coroutine to continue on the calling goroutine if
	// InitSwitchThread() reports no hop is required.
	SameThread StartMode = iota
	// Parallel always suspends and re-queues the coroutine onto the
	// scheduler, even when no thread hop is strictly required.
	Parallel
)

// SchedulingInfo rebinds a coroutine's bound scheduler when awaited; see
// AwaitScheduler. Awaiting a SchedulingInfo value is the only legal way for a
// coroutine to change its bound scheduler.
type SchedulingInfo struct {
	Scheduler Scheduler
	StartMode StartMode
}

// ShouldSuspend reports whether awaiting info must suspend the coroutine
// (as opposed to continuing synchronously on the calling goroutine).
func (info SchedulingInfo) ShouldSuspend() bool {
	return info.StartMode == Parallel || info.Scheduler.InitSwitchThread()
}
