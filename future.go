package async

// Promise is the write side of a Future/Promise pair: exactly one of Set or
// SetError may be called, exactly once, by whichever goroutine produces the
// result. Grounded on this codebase's promise/resolver split, generalized
// from its JS-flavored single Promise type to a reader/writer pair over a
// generic payload.
type Promise[T any] struct {
	cell *sharedCell[T]
}

// Future is the read side of a Promise: a handle any number of goroutines
// may hold, query, block on, or chain off of concurrently.
type Future[T any] struct {
	cell *sharedCell[T]
}

// NewPromise creates a fresh, pending Promise/Future pair.
func NewPromise[T any]() Promise[T] {
	return Promise[T]{cell: newSharedCell[T]()}
}

// Future returns the reader view of p.
func (p Promise[T]) Future() Future[T] {
	return Future[T]{cell: p.cell}
}

// Set completes the Future normally with v. Calling Set or SetError more
// than once across a Promise's lifetime is a contract violation.
func (p Promise[T]) Set(v T) {
	p.cell.complete(v)
}

// SetError completes the Future with an error.
func (p Promise[T]) SetError(err error) {
	p.cell.fail(err)
}

// IsComplete reports whether the Future has settled, normally or not.
func (f Future[T]) IsComplete() bool { return f.cell.isComplete() }

// IsCompletedNormally reports whether the Future settled with a value.
func (f Future[T]) IsCompletedNormally() bool { return f.cell.isCompletedNormally() }

// IsFailed reports whether the Future settled with an error.
func (f Future[T]) IsFailed() bool { return f.cell.isFailed() }

// Wait blocks the calling goroutine until the Future settles.
func (f Future[T]) Wait() { f.cell.wait() }

// Get blocks until the Future settles and returns its value and error, the
// way a handler that already exited the coroutine machinery consumes a
// result.
func (f Future[T]) Get() (T, error) { return f.cell.get() }

// GetError blocks until the Future settles and returns its error (nil on
// normal completion).
func (f Future[T]) GetError() error {
	_, err := f.cell.get()
	return err
}

// AddSynchronousCallback arms cb to run once the Future settles, inline on
// whichever goroutine performs that transition (or immediately, on the
// calling goroutine, if the Future has already settled). This is the
// primitive every composition operator below is built from.
func (f Future[T]) AddSynchronousCallback(cb func()) { f.cell.addCallback(cb) }

// inlineExecutor runs work synchronously, in Enqueue itself. It backs
// composition operators (ToVoid, value-erasure) that must preserve the fast
// synchronous path rather than introduce scheduling latency of their own.
type inlineExecutor struct{}

func (inlineExecutor) Enqueue(work func()) error { work(); return nil }
func (inlineExecutor) WaitFor(WaitToken)         {}
func (inlineExecutor) MarkCompleted(WaitToken)   {}
func (inlineExecutor) NewWaitToken() WaitToken   { return 0 }

func settleWithRecover[T any](p Promise[T], fn func() (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			p.SetError(PanicError{Value: r})
		}
	}()
	v, err := fn()
	if err != nil {
		p.SetError(err)
		return
	}
	p.Set(v)
}

// Then schedules fn(value) on exec once f completes normally, propagating
// f's error untouched and without invoking fn (nil exec uses DefaultExecutor).
func Then[T, R any](f Future[T], exec Executor, fn func(T) (R, error)) Future[R] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[R]()
	f.cell.addCallback(func() {
		v, err := f.cell.snapshot()
		if err != nil {
			p.SetError(err)
			return
		}
		if enqErr := exec.Enqueue(func() {
			settleWithRecover(p, func() (R, error) { return fn(v) })
		}); enqErr != nil {
			p.SetError(enqErr)
		}
	})
	return p.Future()
}

// ThenAsync is Then for a continuation that itself returns a Future: the
// result Future settles once fn's inner Future does, flattening one level of
// nesting the way a chained promise's resolution-with-a-thenable does.
func ThenAsync[T, R any](f Future[T], exec Executor, fn func(T) (Future[R], error)) Future[R] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[R]()
	f.cell.addCallback(func() {
		v, err := f.cell.snapshot()
		if err != nil {
			p.SetError(err)
			return
		}
		if enqErr := exec.Enqueue(func() {
			inner, ferr := callCatchingPanic(func() (Future[R], error) { return fn(v) })
			if ferr != nil {
				p.SetError(ferr)
				return
			}
			inner.cell.addCallback(func() {
				iv, ierr := inner.cell.snapshot()
				if ierr != nil {
					p.SetError(ierr)
				} else {
					p.Set(iv)
				}
			})
		}); enqErr != nil {
			p.SetError(enqErr)
		}
	})
	return p.Future()
}

// ThenAsyncLoop repeatedly evaluates body while cond holds on the current
// value, settling with the first value for which cond returns false. Each
// iteration re-enters via exec.Enqueue rather than direct recursion, so an
// unbounded loop never grows the call stack.
func ThenAsyncLoop[T any](f Future[T], exec Executor, cond func(T) bool, body func(T) (Future[T], error)) Future[T] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[T]()
	var step func(v T)
	step = func(v T) {
		if !cond(v) {
			p.Set(v)
			return
		}
		if enqErr := exec.Enqueue(func() {
			next, err := callCatchingPanic(func() (Future[T], error) { return body(v) })
			if err != nil {
				p.SetError(err)
				return
			}
			next.cell.addCallback(func() {
				nv, nerr := next.cell.snapshot()
				if nerr != nil {
					p.SetError(nerr)
					return
				}
				step(nv)
			})
		}); enqErr != nil {
			p.SetError(enqErr)
		}
	}
	f.cell.addCallback(func() {
		v, err := f.cell.snapshot()
		if err != nil {
			p.SetError(err)
			return
		}
		step(v)
	})
	return p.Future()
}

// CatchAll invokes fn(error) inline, on whichever goroutine observes the
// antecedent's failure, if and only if f failed; a normal completion passes
// its value through untouched and fn is never called.
func CatchAll[T any](f Future[T], fn func(error) (T, error)) Future[T] {
	p := NewPromise[T]()
	f.cell.addCallback(func() {
		v, err := f.cell.snapshot()
		if err == nil {
			p.Set(v)
			return
		}
		settleWithRecover(p, func() (T, error) { return fn(err) })
	})
	return p.Future()
}

// CatchAllAsync is CatchAll scheduled onto exec, with fn itself producing a
// recovery Future rather than a plain value.
func CatchAllAsync[T any](f Future[T], exec Executor, fn func(error) (Future[T], error)) Future[T] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[T]()
	f.cell.addCallback(func() {
		v, err := f.cell.snapshot()
		if err == nil {
			p.Set(v)
			return
		}
		if enqErr := exec.Enqueue(func() {
			inner, ferr := callCatchingPanic(func() (Future[T], error) { return fn(err) })
			if ferr != nil {
				p.SetError(ferr)
				return
			}
			inner.cell.addCallback(func() {
				iv, ierr := inner.cell.snapshot()
				if ierr != nil {
					p.SetError(ierr)
				} else {
					p.Set(iv)
				}
			})
		}); enqErr != nil {
			p.SetError(enqErr)
		}
	})
	return p.Future()
}

func callCatchingPanic[R any](fn func() (R, error)) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r}
		}
	}()
	return fn()
}

// CompletedFuture returns a Future that is already settled with v, for
// callers that have a value in hand but need to satisfy a Future[T]-shaped
// API (e.g. a base case in a recursive ThenAsyncLoop body).
func CompletedFuture[T any](v T) Future[T] {
	p := NewPromise[T]()
	p.Set(v)
	return p.Future()
}

// FailedFuture returns a Future that is already settled with err.
func FailedFuture[T any](err error) Future[T] {
	p := NewPromise[T]()
	p.SetError(err)
	return p.Future()
}

// ToVoid discards f's value, keeping only its completion signal, for use
// with FutureWaiter and when_all callers that only care that something
// finished. Runs inline (via inlineExecutor): no scheduling latency is
// introduced relative to f's own settlement.
func ToVoid[T any](f Future[T]) Future[struct{}] {
	return Then(f, inlineExecutor{}, func(T) (struct{}, error) { return struct{}{}, nil })
}
