package async

import (
	"context"
	"errors"
)

// ErrGoexit settles a Future when the goroutine driving RunAsyncContext's fn
// exits via runtime.Goexit() rather than a normal return.
var ErrGoexit = errors.New("async: goroutine exited via runtime.Goexit")

// RunAsyncContext runs fn in a new goroutine, context-aware, and returns a
// Future for its result. Grounded on this codebase's Promisify: fn runs on
// its own goroutine (so it may block or call into foreign blocking APIs),
// ctx.Done() is observed before fn even starts, a recovered panic settles
// the Future with a PanicError instead of crashing the process, and an
// ambiguous Goexit is distinguished from a normal return and settles the
// Future with ErrGoexit rather than hanging a waiter forever. Where
// Promisify submits resolution back onto the owning Loop's thread via
// SubmitInternal (falling back to direct resolution if the loop is
// shutting down), RunAsyncContext submits onto exec via Enqueue, with the
// same direct-resolution fallback if exec has already closed.
func RunAsyncContext[R any](ctx context.Context, exec Executor, fn func(context.Context) (R, error)) Future[R] {
	if exec == nil {
		exec = DefaultExecutor()
	}
	p := NewPromise[R]()

	go func() {
		completed := false

		select {
		case <-ctx.Done():
			completed = true
			settleOrFallback(p, exec, func() (R, error) {
				var zero R
				return zero, ctx.Err()
			})
			return
		default:
		}

		defer func() {
			if r := recover(); r != nil {
				panicErr := PanicError{Value: r}
				settleOrFallback(p, exec, func() (R, error) {
					var zero R
					return zero, panicErr
				})
				return
			}
			if !completed {
				settleOrFallback(p, exec, func() (R, error) {
					var zero R
					return zero, ErrGoexit
				})
			}
		}()

		res, err := fn(ctx)
		completed = true
		settleOrFallback(p, exec, func() (R, error) { return res, err })
	}()

	return p.Future()
}

// settleOrFallback submits fn's settlement onto exec; if exec has already
// stopped accepting work, it settles p directly instead, the same
// always-settles guarantee Promisify gives its caller across shutdown.
func settleOrFallback[R any](p Promise[R], exec Executor, fn func() (R, error)) {
	if err := exec.Enqueue(func() { settleWithRecover(p, fn) }); err != nil {
		settleWithRecover(p, fn)
	}
}
