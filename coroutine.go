package async

import "github.com/webriots/coro"

// awaitOutcome is what a coroutine receives back from a suspend point: the
// settled value of whatever it awaited, type-erased because a single
// coroutine instantiation awaits many different payload types over its
// lifetime (a Future[int], then a Future[string], then a stream element),
// while coro.New fixes one O type for the whole coroutine.
type awaitOutcome struct {
	value any
	err   error
}

// coroFrame is the scheduler-facing state shared by both coroutine kinds
// (Future-producing and Stream-producing): the currently bound Scheduler,
// the suspend closure coro.New handed the body, and a drive function that
// feeds an awaitOutcome back into the body and settles the producer-side
// cell or stream if the body has now run to completion. Awaiters only ever
// touch this, never the kind-specific task around it.
type coroFrame struct {
	sched   Scheduler
	suspend func() awaitOutcome
	drive   func(awaitOutcome)
}

// Coroutine is the common surface of CoroContext and StreamContext the
// await-transform helpers in awaiters.go operate on. Only those two types
// implement it; it exists so each Await* helper need not be duplicated per
// coroutine kind.
type Coroutine interface {
	frame() *coroFrame
}

// coroResult is the final outcome of a Future-producing coroutine body:
// either a value or an error, returned from coro's underlying resume() once
// the body has run to completion (as opposed to suspending again).
type coroResult[T any] struct {
	value T
	err   error
}

// coroTask owns the raw coro.New resume/cancel pair and the Promise a
// coroutine body eventually settles. Grounded on this codebase's
// goroutine-backed Task[I, O] (see its "resume drives the body until the
// next suspend point, ok reports whether it suspended again or returned"
// pattern), generalized from I/O-request/response pairs to arbitrary
// Future/Stream/SchedulingInfo awaitables.
type coroTask[T any] struct {
	fr     coroFrame
	resume func(awaitOutcome) (coroResult[T], bool)
	cancel func()
	prom   Promise[T]
}

// driveResume feeds outcome into the coroutine body and, if it has now run
// to completion rather than suspending again, settles prom with the result.
func (t *coroTask[T]) driveResume(outcome awaitOutcome) {
	result, suspended := t.resume(outcome)
	if suspended {
		return
	}
	if result.err != nil {
		t.prom.SetError(result.err)
	} else {
		t.prom.Set(result.value)
	}
}

// CoroContext is the handle a Future-producing coroutine body uses to await
// things. It is only valid for the lifetime of the frame that owns it; using
// one captured outside its own body, or after the coroutine has returned, is
// undefined and the kind of misuse coro.New itself guards against for
// escaped yield/suspend closures.
type CoroContext[T any] struct {
	task *coroTask[T]
}

func (c *CoroContext[T]) frame() *coroFrame { return &c.task.fr }

// CoroHandle is returned by Go: the coroutine's eventual result as a Future,
// plus a Cancel hook for unwinding it early.
type CoroHandle[T any] struct {
	Future Future[T]
	Cancel func()
}

// Go starts body as a coroutine bound initially to sched, running it
// eagerly, inline on the calling goroutine, up to its first suspension
// point, and returns a Future for its eventual result. Only resumption
// after a suspend is handed to sched (or whatever scheduler the body later
// rebinds to via AwaitScheduler). body awaits values through the
// await-transform functions in awaiters.go.
func Go[T any](sched Scheduler, body func(*CoroContext[T]) (T, error)) CoroHandle[T] {
	p := NewPromise[T]()
	t := &coroTask[T]{prom: p, fr: coroFrame{sched: sched}}
	ctx := &CoroContext[T]{task: t}

	resume, cancel := coro.New(
		func(yield func(coroResult[T]) awaitOutcome, suspend func() awaitOutcome) (z coroResult[T]) {
			t.fr.suspend = suspend
			defer func() {
				if r := recover(); r != nil {
					z = coroResult[T]{err: PanicError{Value: r}}
				}
			}()
			v, err := body(ctx)
			return coroResult[T]{value: v, err: err}
		},
	)
	t.resume = resume
	t.cancel = cancel
	t.fr.drive = t.driveResume
	registerPendingCell(defaultCoroutineRegistry, p.cell)

	// Initial suspension is never: the body runs eagerly, inline, on the
	// calling goroutine up to its first await. Only resumption after a
	// suspend point is handed to the bound scheduler (see awaiters.go).
	t.driveResume(awaitOutcome{})

	return CoroHandle[T]{Future: p.Future(), Cancel: cancel}
}
