package async

import (
	"runtime"
	"sync"
)

// ThreadPoolScheduler is the multi-threaded Scheduler variant: N worker
// goroutines pull runnable handles (priority) then work units from one
// coarse-locked queue pair. Any goroutine may call its Executor/Scheduler
// methods; InitSwitchThread always reports false, since coroutines bound to
// a pool scheduler have no single home thread to hop to — any worker is
// fine (see SingleThreadScheduler for pinned affinity).
type ThreadPoolScheduler struct {
	*schedulerCore
	workers int
	wg      sync.WaitGroup
}

// NewThreadPoolScheduler starts a scheduler with the given number of
// worker goroutines. workers <= 0 defaults to runtime.GOMAXPROCS(0) + 1,
// matching the "hardware concurrency + 1" default executor sizing.
func NewThreadPoolScheduler(workers int, opts ...SchedulerOption) *ThreadPoolScheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) + 1
	}
	cfg := resolveSchedulerOptions(opts)
	s := &ThreadPoolScheduler{
		schedulerCore: newSchedulerCore(cfg),
		workers:       workers,
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.workerLoop()
	}
	return s
}

func (s *ThreadPoolScheduler) workerLoop() {
	defer s.wg.Done()
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

func (s *ThreadPoolScheduler) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Event(LogLevelError).
				Str("component", "pool-scheduler").
				Log("worker goroutine recovered from panic")
		}
	}()
	fn()
}

func (s *ThreadPoolScheduler) Enqueue(work func()) error { return s.enqueueWork(work) }

func (s *ThreadPoolScheduler) NewWaitToken() WaitToken { return s.newWaitToken() }

func (s *ThreadPoolScheduler) MarkCompleted(token WaitToken) { s.markCompleted(token) }

func (s *ThreadPoolScheduler) InitSwitchThread() bool { return false }

func (s *ThreadPoolScheduler) ResumeRunnable(h Runnable, hintEndsSoon bool) {
	s.enqueueRunnable(h, hintEndsSoon)
}

func (s *ThreadPoolScheduler) Address() uintptr { return s.address() }

func (s *ThreadPoolScheduler) Metrics() MetricsSnapshot { return s.metricsSnapshot() }

// WaitFor pops and executes runnable handles, then work tasks, on the
// calling goroutine while token is not yet complete, then parks on the
// condvar. Returns without the token completing if the scheduler shuts down
// with both queues drained, so a waiter can't spin against a dead pool.
func (s *ThreadPoolScheduler) WaitFor(token WaitToken) {
	for {
		if s.isCompleted(token) {
			return
		}
		if s.runPendingOnce() {
			continue
		}
		s.mu.Lock()
		for {
			if _, done := s.completed[token]; done {
				s.mu.Unlock()
				return
			}
			if len(s.runnableQ) != 0 || len(s.workQ) != 0 {
				break
			}
			if !s.state.CanAcceptWork() {
				s.mu.Unlock()
				return
			}
			s.cond.Wait()
		}
		s.mu.Unlock()
	}
}

// Close requests shutdown; each worker keeps draining both queues until
// they're empty, then exits. Close blocks until every worker has exited.
func (s *ThreadPoolScheduler) Close() {
	if !s.transitionState([]SchedulerState{StateIdle, StateRunning, StateSleeping}, StateClosing, "pool-scheduler") {
		return
	}
	s.cond.Broadcast()
	s.wg.Wait()
	s.storeState(StateClosed, "pool-scheduler")
}
