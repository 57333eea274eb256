package async

// Awaitable is the open-ended await-transform kind: any caller-defined value
// source that knows how to arm its own single resumption. Future[X] and
// StreamElementAwaitable are the built-in implementations; a user type
// satisfying this interface plugs into AwaitValue without this package
// needing to know about it.
type Awaitable[X any] interface {
	// Arm registers resume to be called exactly once, from any goroutine,
	// when the awaited value becomes available.
	Arm(resume func(X, error))
}

// Arm adapts a Future into an Awaitable: resume fires once, with f's
// settled value and error, inline on whichever goroutine settles f (or
// immediately if f has already settled).
func (f Future[X]) Arm(resume func(X, error)) {
	f.cell.addCallback(func() {
		v, err := f.cell.snapshot()
		resume(v, err)
	})
}

// AwaitValue suspends the coroutine owning c until a's awaited value
// becomes available, resuming it on the coroutine's currently bound
// scheduler. It is the generic slow path; Await and AwaitElement layer a
// synchronous ready-check on top for their concrete awaited kinds.
func AwaitValue[X any](c Coroutine, a Awaitable[X]) (X, error) {
	fr := c.frame()
	a.Arm(func(v X, err error) {
		fr.sched.ResumeRunnable(func() {
			fr.drive(awaitOutcome{value: v, err: err})
		}, false)
	})
	outcome := fr.suspend()
	v, _ := outcome.value.(X)
	return v, outcome.err
}

// Await is the first await-transform kind: suspend until f settles,
// returning its value and error. An already-settled Future is the
// synchronous fast path — its value returns immediately, on the current
// goroutine, without suspending at all.
func Await[X any](c Coroutine, f Future[X]) (X, error) {
	if f.IsComplete() {
		return f.cell.snapshot()
	}
	return AwaitValue[X](c, f)
}

// StreamElementAwaitable adapts one StreamCell element into an Awaitable,
// the second await-transform kind (await a single stream element).
type StreamElementAwaitable[Item, End any] struct {
	Stream *StreamCell[Item, End]
}

// Arm implements Awaitable.
func (a StreamElementAwaitable[Item, End]) Arm(resume func(StreamValue[Item, End], error)) {
	a.Stream.SetOnValueAvailableOnce(func() {
		resume(a.Stream.Dequeue(), nil)
	})
}

// AwaitElement is AwaitValue specialized for one stream element, with a
// synchronous fast path when a value is already buffered. The consumer side
// of a stream is single-threaded, so a value observed available here cannot
// be stolen before the Dequeue.
func AwaitElement[Item, End any](c Coroutine, s *StreamCell[Item, End]) (StreamValue[Item, End], error) {
	if s.IsValueAvailable() {
		return s.Dequeue(), nil
	}
	return AwaitValue[StreamValue[Item, End]](c, StreamElementAwaitable[Item, End]{Stream: s})
}

// StreamIterator is the third await-transform kind: explicit iterator-style
// consumption of a stream from inside a coroutine. Advance awaits and
// consumes the next element; once it has returned false the iterator is
// terminal and Advance keeps returning false with the same End/Err.
type StreamIterator[Item, End any] struct {
	stream *StreamCell[Item, End]
	cur    StreamValue[Item, End]
	done   bool
}

// NewStreamIterator returns an iterator over s, positioned before the first
// element. The iterator holds the stream itself alive for as long as it is
// reachable; it does not hold the producing coroutine's frame.
func NewStreamIterator[Item, End any](s *StreamCell[Item, End]) *StreamIterator[Item, End] {
	return &StreamIterator[Item, End]{stream: s}
}

// Advance awaits the next element and positions the iterator at it,
// reporting whether that element is an Item. On false the stream has
// terminated: End/Err expose which marker ended it.
func (it *StreamIterator[Item, End]) Advance(c Coroutine) bool {
	if it.done {
		return false
	}
	sv, err := AwaitElement[Item, End](c, it.stream)
	if err != nil {
		it.cur = StreamValue[Item, End]{Err: err}
		it.done = true
		return false
	}
	it.cur = sv
	if !sv.HasItem {
		it.done = true
		return false
	}
	return true
}

// Item returns the element the iterator is positioned at. Only meaningful
// after Advance has returned true.
func (it *StreamIterator[Item, End]) Item() Item { return it.cur.Item }

// End returns the stream's End marker value and whether the stream
// terminated normally. Only meaningful after Advance has returned false.
func (it *StreamIterator[Item, End]) End() (End, bool) { return it.cur.End, it.cur.HasEnd }

// Err returns the stream's terminating error, or nil.
func (it *StreamIterator[Item, End]) Err() error { return it.cur.Err }

// AwaitStreamIter drives fn over every Item the stream produces, in order,
// until it terminates. Returns the stream's End value on normal
// termination, or its error. It is the loop most consumers want;
// StreamIterator is the underlying step-at-a-time form.
func AwaitStreamIter[Item, End any](c Coroutine, s *StreamCell[Item, End], fn func(Item) error) (End, error) {
	var zero End
	it := NewStreamIterator(s)
	for it.Advance(c) {
		if ferr := fn(it.Item()); ferr != nil {
			return zero, ferr
		}
	}
	if err := it.Err(); err != nil {
		return zero, err
	}
	end, _ := it.End()
	return end, nil
}

// AwaitScheduler is the fourth await-transform kind: rebind the coroutine's
// bound scheduler to info.Scheduler. If info.ShouldSuspend() is false (same
// thread, no hop required) the coroutine continues synchronously on the
// calling goroutine without actually suspending.
func AwaitScheduler(c Coroutine, info SchedulingInfo) {
	fr := c.frame()
	if !info.ShouldSuspend() {
		fr.sched = info.Scheduler
		return
	}
	target := info.Scheduler
	target.ResumeRunnable(func() {
		fr.sched = target
		fr.drive(awaitOutcome{})
	}, false)
	fr.suspend()
}
