package async

import "github.com/webriots/coro"

// streamResult is the final outcome of a Stream-producing coroutine body:
// the End marker value on a normal return, or the error that terminates the
// stream (a returned error or a recovered panic).
type streamResult[End any] struct {
	end End
	err error
}

// streamTask is coroTask's Stream-producing twin: the same coro.New
// resume/cancel pair and coroFrame, but the producer-side object the body
// settles is a StreamCell rather than a Promise — a normal return enqueues
// the End marker, an error or panic enqueues the Error marker.
type streamTask[Item, End any] struct {
	fr     coroFrame
	resume func(awaitOutcome) (streamResult[End], bool)
	cancel func()
	stream *StreamCell[Item, End]
}

func (t *streamTask[Item, End]) driveResume(outcome awaitOutcome) {
	result, suspended := t.resume(outcome)
	if suspended {
		return
	}
	// Terminal markers never block on capacity, so completing here is safe
	// from any goroutine the bound scheduler resumes us on.
	if result.err != nil {
		t.stream.EnqueueError(result.err)
	} else {
		t.stream.EnqueueEnd(result.end)
	}
}

// StreamContext is the handle a Stream-producing coroutine body uses to
// yield items and await things. The same lifetime rules as CoroContext
// apply: it must not escape its own body.
type StreamContext[Item, End any] struct {
	task *streamTask[Item, End]
}

func (c *StreamContext[Item, End]) frame() *coroFrame { return &c.task.fr }

// Yield enqueues v as the stream's next Item, suspending the coroutine
// first if no slot is free and resuming it on the bound scheduler once the
// consumer has dequeued. The producer side of the stream is this coroutine
// alone, so a slot observed free here cannot be stolen before the enqueue.
func (c *StreamContext[Item, End]) Yield(v Item) {
	s := c.task.stream
	if s.IsSlotAvailable() {
		s.EnqueueItem(v)
		return
	}
	fr := &c.task.fr
	s.SetOnSlotAvailableOnce(func() {
		fr.sched.ResumeRunnable(func() {
			fr.drive(awaitOutcome{})
		}, false)
	})
	fr.suspend()
	s.EnqueueItem(v)
}

// StreamHandle is returned by GoStream: the stream the coroutine produces
// into, plus a Cancel hook for unwinding the body early. Cancelling does not
// enqueue a terminal marker; a consumer blocked in Dequeue after Cancel must
// be released by other means.
type StreamHandle[Item, End any] struct {
	Stream *StreamCell[Item, End]
	Cancel func()
}

// GoStream starts body as a Stream-producing coroutine bound initially to
// sched, producing into a fresh stream with the given item capacity
// (minimum 1). Like Go it runs the body eagerly, inline on the calling
// goroutine, up to its first suspension point — the first Yield past
// capacity, or the first Await* whose ready-check fails. The body's return
// value becomes the stream's End marker; a returned error or a panic
// becomes its Error marker.
func GoStream[Item, End any](sched Scheduler, capacity int, body func(*StreamContext[Item, End]) (End, error), opts ...StreamOption) StreamHandle[Item, End] {
	t := &streamTask[Item, End]{
		fr:     coroFrame{sched: sched},
		stream: NewStreamCell[Item, End](capacity, opts...),
	}
	ctx := &StreamContext[Item, End]{task: t}

	resume, cancel := coro.New(
		func(yield func(streamResult[End]) awaitOutcome, suspend func() awaitOutcome) (z streamResult[End]) {
			t.fr.suspend = suspend
			defer func() {
				if r := recover(); r != nil {
					z = streamResult[End]{err: PanicError{Value: r}}
				}
			}()
			end, err := body(ctx)
			return streamResult[End]{end: end, err: err}
		},
	)
	t.resume = resume
	t.cancel = cancel
	t.fr.drive = t.driveResume

	t.driveResume(awaitOutcome{})

	return StreamHandle[Item, End]{Stream: t.stream, Cancel: cancel}
}
