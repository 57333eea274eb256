package async

import (
	"sync"
	"sync/atomic"
)

// RunAsync schedules fn on exec and returns a Future for its result, the
// entry point for starting an independent unit of async work (as opposed to
// chaining off an existing Future via Then).
func RunAsync[R any](exec Executor, fn func() (R, error)) Future[R] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[R]()
	if err := exec.Enqueue(func() {
		settleWithRecover(p, fn)
	}); err != nil {
		p.SetError(err)
	}
	return p.Future()
}

// ExecuteAsyncLoop is the standalone form of ThenAsyncLoop: it starts from a
// literal seed value rather than an existing antecedent Future.
func ExecuteAsyncLoop[T any](exec Executor, start T, cond func(T) bool, body func(T) (Future[T], error)) Future[T] {
	seed := RunAsync(exec, func() (T, error) { return start, nil })
	return ThenAsyncLoop(seed, exec, cond, body)
}

// WhenAll waits for every future in futs to complete, then invokes fn with
// their values in input order on exec. If any future fails, the result
// settles with a *WhenAllError wrapping the first observed failure and fn is
// never invoked; per the open design question on tie-breaking, which failure
// is "first" when several futures fail concurrently is intentionally
// unspecified and must not be relied upon.
func WhenAll[T, R any](exec Executor, fn func([]T) (R, error), futs ...Future[T]) Future[R] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[R]()
	n := len(futs)
	if n == 0 {
		if err := exec.Enqueue(func() {
			settleWithRecover(p, func() (R, error) { return fn(nil) })
		}); err != nil {
			p.SetError(err)
		}
		return p.Future()
	}

	var (
		mu       sync.Mutex
		values   = make([]T, n)
		settled  atomic.Bool
		remaining atomic.Int32
	)
	remaining.Store(int32(n))

	for i, f := range futs {
		i, f := i, f
		f.cell.addCallback(func() {
			v, err := f.cell.snapshot()
			if err != nil {
				if settled.CompareAndSwap(false, true) {
					if enqErr := exec.Enqueue(func() {
						p.SetError(&WhenAllError{Cause: err})
					}); enqErr != nil {
						p.SetError(enqErr)
					}
				}
				return
			}
			mu.Lock()
			values[i] = v
			mu.Unlock()
			if remaining.Add(-1) == 0 && settled.CompareAndSwap(false, true) {
				if enqErr := exec.Enqueue(func() {
					settleWithRecover(p, func() (R, error) { return fn(values) })
				}); enqErr != nil {
					p.SetError(enqErr)
				}
			}
		})
	}
	return p.Future()
}

// WhenAllFutures is WhenAll's from-futures variant: fn receives the Future
// handles themselves (so it can distinguish which ones failed) rather than
// unwrapped values, and is invoked once every future has settled regardless
// of outcome.
func WhenAllFutures[T, R any](exec Executor, fn func([]Future[T]) (R, error), futs ...Future[T]) Future[R] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[R]()
	n := len(futs)
	if n == 0 {
		if err := exec.Enqueue(func() {
			settleWithRecover(p, func() (R, error) { return fn(nil) })
		}); err != nil {
			p.SetError(err)
		}
		return p.Future()
	}

	var remaining atomic.Int32
	remaining.Store(int32(n))
	for _, f := range futs {
		f.cell.addCallback(func() {
			if remaining.Add(-1) == 0 {
				if enqErr := exec.Enqueue(func() {
					settleWithRecover(p, func() (R, error) { return fn(futs) })
				}); enqErr != nil {
					p.SetError(enqErr)
				}
			}
		})
	}
	return p.Future()
}

// FutureWaiter collects an open set of in-flight Future[struct{}] handles
// and lets a caller block until all of them have settled, for fire-and-forget
// work a caller still wants to join on before shutdown. Grounded on the
// teacher's goroutine-to-owning-thread join pattern, generalized from a
// fixed WaitGroup count to a dynamically growing/shrinking set.
type FutureWaiter struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[*sharedCell[struct{}]]struct{}
}

// NewFutureWaiter creates an empty waiter.
func NewFutureWaiter() *FutureWaiter {
	w := &FutureWaiter{pending: make(map[*sharedCell[struct{}]]struct{})}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Add registers f with the waiter. f may be added at any time, including
// concurrently with a WaitAll call already in progress.
func (w *FutureWaiter) Add(f Future[struct{}]) {
	w.mu.Lock()
	w.pending[f.cell] = struct{}{}
	w.mu.Unlock()
	f.cell.addCallback(func() {
		w.mu.Lock()
		delete(w.pending, f.cell)
		empty := len(w.pending) == 0
		w.mu.Unlock()
		if empty {
			w.cond.Broadcast()
		}
	})
}

// WaitAll blocks until every Future added so far (and not yet settled) has
// settled. Adding more futures after WaitAll has been called but before it
// returns extends the wait.
func (w *FutureWaiter) WaitAll() {
	w.mu.Lock()
	for len(w.pending) > 0 {
		w.cond.Wait()
	}
	w.mu.Unlock()
}
