// Package async provides SharedCell-backed Futures and Promises,
// Executor/Scheduler implementations, bounded producer/consumer Streams, and
// a coroutine adaptation layer built on goroutine-backed coroutines,
// generalized from this codebase's JavaScript-compatible event loop and
// Promise/A+ implementation to a generic, non-JS-flavored async core.
//
// # Architecture
//
// The unexported sharedCell type is the single tri-state
// (pending/completed/failed) completion primitive; [Future] and [Promise]
// are its reader and writer
// views. Composition operators ([Then], [ThenAsync], [ThenAsyncLoop],
// [CatchAll], [CatchAllAsync], [WhenAll], [WhenAllFutures]) build new
// Futures from existing ones without ever blocking the calling goroutine.
// [StreamCell] is the bounded single-producer/single-consumer analogue for
// a sequence of values terminated by one End or Error marker.
//
// [Scheduler] (implemented by [ThreadPoolScheduler] and
// [SingleThreadScheduler]) is the unit of execution composition operators
// schedule onto; [DefaultScheduler] is a lazily-constructed process-wide
// thread pool used whenever an exec parameter is nil.
//
// [Go] starts a Future-producing coroutine body and [GoStream] a
// Stream-producing one (a generator: [StreamContext.Yield] suspends on
// backpressure, a return enqueues the End marker). Both kinds await
// Futures, stream elements, stream iterators, and scheduler hops via the
// Await*/[AwaitScheduler] family in awaiters.go, resuming on their
// currently bound Scheduler rather than inline on whatever goroutine
// completed the awaited value.
//
// # Thread Safety
//
// Futures, Promises and Schedulers are safe for concurrent use. A
// StreamCell serves one producer and one consumer goroutine at a time, and a
// StreamIterator has no locking of its own: it belongs to the single
// coroutine that advances it. The shared cell and StreamCell use one coarse
// mutex (plus condition variables for blocking
// waiters) rather than lock-free structures: this codebase's lock-free
// ingress ring is deliberately not carried over, favoring a single
// lock whose correctness is easy to audit over one that isn't.
//
// # Error Types
//
// The package provides a small error taxonomy for async failures:
//   - [PanicError]: wraps a panic recovered from a composition callback or
//     coroutine body
//   - [ContractViolation]: an API misuse detected at runtime (double-complete
//     of a Promise, two one-shot stream callbacks armed at once); not meant
//     to be recovered from, only diagnosed
//   - [WhenAllError]: the first observed failure among WhenAll's inputs
//   - [ErrSchedulerClosed]: returned by Executor.Enqueue once a Scheduler has
//     shut down
//
// All of them implement [error] and support errors.Is/errors.As matching;
// PanicError (when its panic value is an error) and WhenAllError also
// expose their cause through Unwrap.
package async
