package async

import (
	"sync"
	"time"
)

// SchedulerMetrics tracks low-overhead runtime statistics for a Scheduler:
// coroutine-resume latency percentiles (via the P² streaming estimator) and
// queue depth gauges. Metrics are optional, enabled via WithSchedulerMetrics,
// and a Scheduler with metrics disabled pays no recording overhead.
type SchedulerMetrics struct {
	mu               sync.Mutex
	latency          *pSquareMultiQuantile
	workDepth        int
	workDepthMax     int
	runnableDepth    int
	runnableDepthMax int
}

func newSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		latency: newPSquareMultiQuantile(0.50, 0.90, 0.99),
	}
}

// recordResumeLatency records the time between a runnable handle being
// enqueued and the worker beginning to execute it.
func (m *SchedulerMetrics) recordResumeLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.latency.Update(float64(d))
	m.mu.Unlock()
}

func (m *SchedulerMetrics) updateWorkDepth(depth int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.workDepth = depth
	if depth > m.workDepthMax {
		m.workDepthMax = depth
	}
	m.mu.Unlock()
}

func (m *SchedulerMetrics) updateRunnableDepth(depth int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.runnableDepth = depth
	if depth > m.runnableDepthMax {
		m.runnableDepthMax = depth
	}
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time, allocation-free copy of SchedulerMetrics.
type MetricsSnapshot struct {
	ResumeLatencyP50 time.Duration
	ResumeLatencyP90 time.Duration
	ResumeLatencyP99 time.Duration
	ResumeCount      int

	WorkQueueDepth        int
	WorkQueueDepthMax     int
	RunnableQueueDepth    int
	RunnableQueueDepthMax int
}

// Snapshot returns the current metrics. Safe to call concurrently with
// ongoing scheduler activity.
func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		ResumeLatencyP50:      time.Duration(m.latency.Quantile(0)),
		ResumeLatencyP90:      time.Duration(m.latency.Quantile(1)),
		ResumeLatencyP99:      time.Duration(m.latency.Quantile(2)),
		ResumeCount:           m.latency.Count(),
		WorkQueueDepth:        m.workDepth,
		WorkQueueDepthMax:     m.workDepthMax,
		RunnableQueueDepth:    m.runnableDepth,
		RunnableQueueDepthMax: m.runnableDepthMax,
	}
}
