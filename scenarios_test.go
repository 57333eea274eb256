package async

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// delayedFuture settles with v after d, the wall-clock collaborator shape a
// one-shot alarm service exposes (a Future produced by an external timer).
func delayedFuture(v int, d time.Duration) Future[int] {
	p := NewPromise[int]()
	time.AfterFunc(d, func() { p.Set(v) })
	return p.Future()
}

// oneShotTimer models the alarm collaborator's cancellable one-shot timer:
// the Future settles true when the timer fires, false if cancelled first.
func oneShotTimer(d time.Duration) (Future[bool], func()) {
	p := NewPromise[bool]()
	var settled atomic.Bool
	timer := time.AfterFunc(d, func() {
		if settled.CompareAndSwap(false, true) {
			p.Set(true)
		}
	})
	cancel := func() {
		if settled.CompareAndSwap(false, true) {
			timer.Stop()
			p.Set(false)
		}
	}
	return p.Future(), cancel
}

// carriedValue lets a Then body "throw" an int the way the throw-then-catch
// scenario needs: the thrown value rides the error channel and the catch
// handler recovers it.
type carriedValue struct {
	v int
}

func (e carriedValue) Error() string { return "carried value" }

func TestScenarioChainedThen(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	p := NewPromise[int]()
	f := Then(p.Future(), sched, func(x int) (int, error) { return x + 1, nil })
	f = Then(f, sched, func(x int) (int, error) { return x * 2, nil })

	p.Set(10)
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 22, v)
}

func TestScenarioSumLoopOverDelayedFutures(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	start := time.Now()
	f := ExecuteAsyncLoop(sched, 0,
		func(v int) bool { return v < 10 },
		func(v int) (Future[int], error) { return delayedFuture(v+1, 5*time.Millisecond), nil },
	)

	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 10, v)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestScenarioWhenAllSum(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	p1 := NewPromise[int]()
	p2 := NewPromise[int]()
	f := WhenAll(sched, func(vs []int) (int, error) { return vs[0] + vs[1] + 1, nil }, p1.Future(), p2.Future())

	p1.Set(20)
	p2.Set(5)
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 26, v)
}

func TestScenarioThrowThenCatch(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	p := NewPromise[int]()
	thrown := Then(p.Future(), sched, func(x int) (int, error) {
		return 0, carriedValue{v: x + 1}
	})
	caught := CatchAll(thrown, func(err error) (int, error) {
		var cv carriedValue
		if !errors.As(err, &cv) {
			return 0, err
		}
		return cv.v + 1, nil
	})

	p.Set(10)
	v, err := caught.Get()
	require.NoError(t, err)
	require.Equal(t, 12, v)
}

func TestScenarioGeneratorCoroutine(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	handle := GoStream(sched, 1, func(c *StreamContext[int, struct{}]) (struct{}, error) {
		for v := 10; v <= 12; v++ {
			c.Yield(v)
		}
		return struct{}{}, nil
	})

	for want := 10; want <= 12; want++ {
		sv := handle.Stream.Dequeue()
		require.True(t, sv.HasItem)
		require.Equal(t, want, sv.Item)
	}
	// End latches: every further dequeue re-observes it.
	require.True(t, handle.Stream.Dequeue().HasEnd)
	require.True(t, handle.Stream.Dequeue().HasEnd)
}

func TestScenarioInterleaveTwoGenerators(t *testing.T) {
	sched := NewThreadPoolScheduler(4)
	defer sched.Close()

	gen := func(from int) StreamHandle[int, struct{}] {
		return GoStream(sched, 1, func(c *StreamContext[int, struct{}]) (struct{}, error) {
			for v := from; v < from+3; v++ {
				c.Yield(v)
			}
			return struct{}{}, nil
		})
	}
	a := gen(10)
	b := gen(20)

	merged := GoStream(sched, 1, func(c *StreamContext[int, struct{}]) (struct{}, error) {
		ia := NewStreamIterator(a.Stream)
		ib := NewStreamIterator(b.Stream)
		for {
			okA := ia.Advance(c)
			if okA {
				c.Yield(ia.Item())
			}
			okB := ib.Advance(c)
			if okB {
				c.Yield(ib.Item())
			}
			if !okA && !okB {
				return struct{}{}, nil
			}
		}
	})

	var got []int
	for {
		sv := merged.Stream.Dequeue()
		if !sv.HasItem {
			require.True(t, sv.HasEnd)
			break
		}
		got = append(got, sv.Item)
	}
	require.Equal(t, []int{10, 20, 11, 21, 12, 22}, got)
}

func TestScenarioOneShotTimerFires(t *testing.T) {
	f, _ := oneShotTimer(50 * time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	require.False(t, f.IsComplete())

	v, err := f.Get()
	require.NoError(t, err)
	require.True(t, v)
}

func TestScenarioOneShotTimerCancelled(t *testing.T) {
	f, cancel := oneShotTimer(50 * time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	cancel()

	start := time.Now()
	v, err := f.Get()
	require.NoError(t, err)
	require.False(t, v)
	require.Less(t, time.Since(start), 20*time.Millisecond)
}
