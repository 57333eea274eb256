package async

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThreadPoolSchedulerRunsWork(t *testing.T) {
	sched := NewThreadPoolScheduler(3)
	defer sched.Close()

	var wg sync.WaitGroup
	const n = 50
	wg.Add(n)
	var mu sync.Mutex
	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		i := i
		require.NoError(t, sched.Enqueue(func() {
			defer wg.Done()
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		}))
	}
	wg.Wait()
	require.Len(t, seen, n)
}

func TestThreadPoolSchedulerRejectsWorkAfterClose(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	sched.Close()
	require.ErrorIs(t, sched.Enqueue(func() {}), ErrSchedulerClosed)
}

func TestThreadPoolSchedulerWaitTokenRoundTrip(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()

	token := sched.NewWaitToken()
	go func() {
		time.Sleep(5 * time.Millisecond)
		sched.MarkCompleted(token)
	}()
	sched.WaitFor(token) // must return, not hang
}

func TestThreadPoolSchedulerInitSwitchThreadAlwaysFalse(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	defer sched.Close()
	require.False(t, sched.InitSwitchThread())
}

func TestSingleThreadSchedulerBindsToOneGoroutine(t *testing.T) {
	sched := NewSingleThreadScheduler()
	defer sched.Close()

	require.True(t, sched.InitSwitchThread(), "caller is not the bound goroutine")

	var sawBound bool
	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, sched.Enqueue(func() {
		defer wg.Done()
		sawBound = !sched.InitSwitchThread()
	}))
	wg.Wait()
	require.True(t, sawBound)
}

func TestRunnableHandlesOutrankWorkItems(t *testing.T) {
	sched := NewSingleThreadScheduler()
	defer sched.Close()

	var order []string
	var mu sync.Mutex
	record := func(label string) {
		mu.Lock()
		order = append(order, label)
		mu.Unlock()
	}

	// Block the single worker goroutine so both a work item and a runnable
	// handle queue up together, to exercise the priority rule.
	gate := make(chan struct{})
	require.NoError(t, sched.Enqueue(func() { <-gate }))

	require.NoError(t, sched.Enqueue(func() { record("work") }))
	sched.ResumeRunnable(func() { record("runnable") }, false)

	close(gate)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"runnable", "work"}, order)
}

func TestSchedulerMetricsSnapshotNilSafe(t *testing.T) {
	var m *SchedulerMetrics
	snap := m.Snapshot()
	require.Equal(t, MetricsSnapshot{}, snap)
}

func TestSchedulerMetricsRecordsResumeLatency(t *testing.T) {
	sched := NewThreadPoolScheduler(2, WithSchedulerMetrics(true))
	defer sched.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	sched.ResumeRunnable(func() { wg.Done() }, false)
	wg.Wait()

	snap := sched.Metrics()
	require.Equal(t, 1, snap.ResumeCount)
}

func TestCloseIsIdempotent(t *testing.T) {
	sched := NewThreadPoolScheduler(2)
	sched.Close()
	sched.Close() // must not block or panic
}
