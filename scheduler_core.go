package async

import (
	"sync"
	"time"
	"unsafe"
)

type runnableEntry struct {
	fn           Runnable
	enqueuedAt   time.Time
	hintEndsSoon bool
}

// schedulerCore implements the queue and wait-token machinery shared by
// both Scheduler variants: a single coarse mutex guards a work queue, a
// runnable-handle queue, and the completed wait-token set, with one condvar
// parked goroutines wait on. Runnable handles always take priority over
// fresh work. This mirrors the teacher's event-loop tick/queue
// shape but deliberately trades its lock-free ingress ring for one plain
// mutex, per the design's explicit "coarse locking is deliberate" non-goal.
type schedulerCore struct {
	mu        sync.Mutex
	cond      *sync.Cond
	workQ     []func()
	runnableQ []runnableEntry
	completed map[WaitToken]struct{}
	nextToken uint64
	state     *FastState
	logger    Logger
	metrics   *SchedulerMetrics
}

func newSchedulerCore(cfg *schedulerOptions) *schedulerCore {
	c := &schedulerCore{
		workQ:     make([]func(), 0, cfg.queueCapacity),
		runnableQ: make([]runnableEntry, 0, cfg.queueCapacity),
		completed: make(map[WaitToken]struct{}),
		state:     NewFastState(),
		logger:    cfg.logger,
	}
	c.cond = sync.NewCond(&c.mu)
	if cfg.metricsEnabled {
		c.metrics = newSchedulerMetrics()
	}
	return c
}

func (c *schedulerCore) enqueueWork(work func()) error {
	c.mu.Lock()
	if !c.state.CanAcceptWork() {
		c.mu.Unlock()
		return ErrSchedulerClosed
	}
	c.workQ = append(c.workQ, work)
	depth := len(c.workQ)
	c.mu.Unlock()
	c.metrics.updateWorkDepth(depth)
	c.cond.Broadcast()
	return nil
}

func (c *schedulerCore) enqueueRunnable(h Runnable, hintEndsSoon bool) {
	c.mu.Lock()
	c.runnableQ = append(c.runnableQ, runnableEntry{fn: h, enqueuedAt: time.Now(), hintEndsSoon: hintEndsSoon})
	depth := len(c.runnableQ)
	c.mu.Unlock()
	c.metrics.updateRunnableDepth(depth)
	c.cond.Broadcast()
}

// popNextLocked returns the next runnable handle or work unit to execute,
// preferring runnable handles. Caller must hold c.mu; returns ok=false if
// both queues are empty.
func (c *schedulerCore) popNextLocked() (fn func(), ok bool) {
	if len(c.runnableQ) > 0 {
		e := c.runnableQ[0]
		c.runnableQ = c.runnableQ[1:]
		c.metrics.updateRunnableDepth(len(c.runnableQ))
		if c.metrics != nil {
			latency := time.Since(e.enqueuedAt)
			return func() {
				c.metrics.recordResumeLatency(latency)
				e.fn()
			}, true
		}
		return func() { e.fn() }, true
	}
	if len(c.workQ) > 0 {
		w := c.workQ[0]
		c.workQ = c.workQ[1:]
		c.metrics.updateWorkDepth(len(c.workQ))
		return w, true
	}
	return nil, false
}

func (c *schedulerCore) popNext() (fn func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popNextLocked()
}

func (c *schedulerCore) newWaitToken() WaitToken {
	c.mu.Lock()
	c.nextToken++
	t := WaitToken(c.nextToken)
	c.mu.Unlock()
	return t
}

func (c *schedulerCore) markCompleted(token WaitToken) {
	c.mu.Lock()
	c.completed[token] = struct{}{}
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *schedulerCore) isCompleted(token WaitToken) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.completed[token]
	return ok
}

// runPendingOnce executes one queued runnable/work unit on the calling
// goroutine, returning false if both queues were empty.
func (c *schedulerCore) runPendingOnce() bool {
	fn, ok := c.popNext()
	if !ok {
		return false
	}
	fn()
	return true
}

// drainPending cooperatively runs all currently queued work: used by
// RunAllPending (single-thread variant).
func (c *schedulerCore) drainPending() {
	for c.runPendingOnce() {
	}
}

// transitionState is TransitionAny plus a log line through the scheduler's
// sink for each lifecycle transition that actually happens; FastState itself
// stays a plain atomic with no logging of its own.
func (c *schedulerCore) transitionState(validFrom []SchedulerState, to SchedulerState, component string) bool {
	if !c.state.TransitionAny(validFrom, to) {
		return false
	}
	c.logger.Event(LogLevelDebug).
		Str("component", component).
		Str("state", to.String()).
		Log("scheduler state transition")
	return true
}

// storeState is Store plus the same transition log line, for the
// irreversible StateClosed sink.
func (c *schedulerCore) storeState(to SchedulerState, component string) {
	c.state.Store(to)
	c.logger.Event(LogLevelDebug).
		Str("component", component).
		Str("state", to.String()).
		Log("scheduler state transition")
}

func (c *schedulerCore) metricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

func (c *schedulerCore) address() uintptr {
	return uintptr(unsafe.Pointer(c))
}
