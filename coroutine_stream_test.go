package async

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoStreamYieldsItemsThenEnd(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	handle := GoStream(sched, 4, func(c *StreamContext[int, string]) (string, error) {
		c.Yield(1)
		c.Yield(2)
		c.Yield(3)
		return "done", nil
	})

	for want := 1; want <= 3; want++ {
		sv := handle.Stream.Dequeue()
		require.True(t, sv.HasItem)
		require.Equal(t, want, sv.Item)
	}
	sv := handle.Stream.Dequeue()
	require.True(t, sv.HasEnd)
	require.Equal(t, "done", sv.End)
}

func TestGoStreamBackpressureSuspendsProducer(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	var produced atomic.Int32
	handle := GoStream(sched, 1, func(c *StreamContext[int, struct{}]) (struct{}, error) {
		for i := 0; i < 3; i++ {
			c.Yield(i)
			produced.Add(1)
		}
		return struct{}{}, nil
	})

	// Capacity 1: the eager start enqueues item 0 and suspends inside the
	// second Yield, so exactly one Yield has returned before any dequeue.
	require.Eventually(t, func() bool { return produced.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, int32(1), produced.Load())

	sv := handle.Stream.Dequeue()
	require.Equal(t, 0, sv.Item)
	require.Eventually(t, func() bool { return produced.Load() == 2 }, time.Second, time.Millisecond)

	require.Equal(t, 1, handle.Stream.Dequeue().Item)
	require.Equal(t, 2, handle.Stream.Dequeue().Item)
	require.True(t, handle.Stream.Dequeue().HasEnd)
}

func TestGoStreamReturnedErrorBecomesErrorMarker(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	sentinel := errors.New("producer failed")
	handle := GoStream(sched, 2, func(c *StreamContext[int, struct{}]) (struct{}, error) {
		c.Yield(7)
		return struct{}{}, sentinel
	})

	require.Equal(t, 7, handle.Stream.Dequeue().Item)
	sv := handle.Stream.Dequeue()
	require.ErrorIs(t, sv.Err, sentinel)
	// Terminal marker latches.
	require.ErrorIs(t, handle.Stream.Dequeue().Err, sentinel)
}

func TestGoStreamPanicBecomesErrorMarker(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	handle := GoStream(sched, 1, func(c *StreamContext[int, struct{}]) (struct{}, error) {
		panic("producer boom")
	})

	sv := handle.Stream.Dequeue()
	var panicErr PanicError
	require.ErrorAs(t, sv.Err, &panicErr)
}

func TestGoStreamBodyMayAwaitFutures(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	gate := NewPromise[int]()
	handle := GoStream(sched, 2, func(c *StreamContext[int, struct{}]) (struct{}, error) {
		v, err := Await(c, gate.Future())
		if err != nil {
			return struct{}{}, err
		}
		c.Yield(v)
		c.Yield(v + 1)
		return struct{}{}, nil
	})

	gate.Set(40)
	require.Equal(t, 40, handle.Stream.Dequeue().Item)
	require.Equal(t, 41, handle.Stream.Dequeue().Item)
	require.True(t, handle.Stream.Dequeue().HasEnd)
}

func TestStreamIteratorStepsThroughStream(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	producer := GoStream(sched, 2, func(c *StreamContext[int, string]) (string, error) {
		c.Yield(5)
		c.Yield(6)
		return "fin", nil
	})

	handle := Go(sched, func(c *CoroContext[[]int]) ([]int, error) {
		var got []int
		it := NewStreamIterator(producer.Stream)
		for it.Advance(c) {
			got = append(got, it.Item())
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
		end, ok := it.End()
		if !ok || end != "fin" {
			return nil, errors.New("unexpected end marker")
		}
		// A terminal iterator stays terminal.
		if it.Advance(c) {
			return nil, errors.New("advance past end succeeded")
		}
		return got, nil
	})

	got, err := handle.Future.Get()
	require.NoError(t, err)
	require.Equal(t, []int{5, 6}, got)
}
