package async

import (
	"runtime"
	"sync/atomic"
)

// SingleThreadScheduler is bound to one dedicated goroutine, pinned to its
// own OS thread via runtime.LockOSThread — the same thread-affinity
// discipline this codebase's event-loop lineage uses for its Loop.Run
// goroutine. InitSwitchThread reports true whenever called from any
// goroutine other than the bound one, signaling the coroutine machinery to
// suspend and hop.
type SingleThreadScheduler struct {
	*schedulerCore
	boundGoroutineID atomic.Uint64
	ready            chan struct{}
	stopped          chan struct{}
}

// NewSingleThreadScheduler starts the bound goroutine and blocks until it
// has recorded its goroutine ID, so InitSwitchThread is meaningful as soon
// as this constructor returns.
func NewSingleThreadScheduler(opts ...SchedulerOption) *SingleThreadScheduler {
	cfg := resolveSchedulerOptions(opts)
	s := &SingleThreadScheduler{
		schedulerCore: newSchedulerCore(cfg),
		ready:         make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go s.run()
	<-s.ready
	return s
}

func (s *SingleThreadScheduler) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	s.boundGoroutineID.Store(goroutineID())
	close(s.ready)
	defer close(s.stopped)

	for {
		s.mu.Lock()
		for {
			if fn, ok := s.popNextLocked(); ok {
				s.mu.Unlock()
				s.runSafely(fn)
				break
			}
			if s.state.Load() == StateClosing {
				s.mu.Unlock()
				return
			}
			s.cond.Wait()
		}
	}
}

func (s *SingleThreadScheduler) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Event(LogLevelError).
				Str("component", "single-thread-scheduler").
				Log("bound goroutine recovered from panic")
		}
	}()
	fn()
}

func (s *SingleThreadScheduler) Enqueue(work func()) error { return s.enqueueWork(work) }

func (s *SingleThreadScheduler) NewWaitToken() WaitToken { return s.newWaitToken() }

func (s *SingleThreadScheduler) MarkCompleted(token WaitToken) { s.markCompleted(token) }

// InitSwitchThread reports true iff called from any goroutine other than
// the one this scheduler is bound to.
func (s *SingleThreadScheduler) InitSwitchThread() bool {
	return goroutineID() != s.boundGoroutineID.Load()
}

func (s *SingleThreadScheduler) ResumeRunnable(h Runnable, hintEndsSoon bool) {
	s.enqueueRunnable(h, hintEndsSoon)
}

func (s *SingleThreadScheduler) Address() uintptr { return s.address() }

func (s *SingleThreadScheduler) Metrics() MetricsSnapshot { return s.metricsSnapshot() }

// WaitFor distinguishes the bound goroutine (cooperatively runs pending
// work while waiting) from any other caller (pure blocking wait).
func (s *SingleThreadScheduler) WaitFor(token WaitToken) {
	onBound := !s.InitSwitchThread()
	for {
		if s.isCompleted(token) {
			return
		}
		if onBound && s.runPendingOnce() {
			continue
		}
		s.mu.Lock()
		if _, done := s.completed[token]; done {
			s.mu.Unlock()
			return
		}
		for {
			if _, done := s.completed[token]; done {
				s.mu.Unlock()
				return
			}
			if onBound && (len(s.runnableQ) != 0 || len(s.workQ) != 0) {
				break
			}
			if s.state.Load() == StateClosing {
				s.mu.Unlock()
				return
			}
			s.cond.Wait()
		}
		s.mu.Unlock()
	}
}

// RunAllPending drains both queues without blocking. Only meaningful when
// called from the bound goroutine; calling it from elsewhere is harmless
// but races with the bound goroutine's own draining.
func (s *SingleThreadScheduler) RunAllPending() {
	s.drainPending()
}

func (s *SingleThreadScheduler) Close() {
	if !s.transitionState([]SchedulerState{StateIdle, StateRunning, StateSleeping}, StateClosing, "single-thread-scheduler") {
		return
	}
	s.cond.Broadcast()
	<-s.stopped
	s.storeState(StateClosed, "single-thread-scheduler")
}

// goroutineID extracts the calling goroutine's numeric ID by parsing the
// "goroutine NNN [...]" header of a runtime.Stack dump, the same technique
// this codebase's event-loop lineage uses rather than depending on a
// separate goroutine-ID package.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if len(b) > len(prefix) {
		b = b[len(prefix):]
	}
	var id uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
