// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package async

// schedulerOptions holds configuration shared by both Scheduler variants.
type schedulerOptions struct {
	logger         Logger
	metricsEnabled bool
	queueCapacity  int
}

func defaultSchedulerOptions() *schedulerOptions {
	return &schedulerOptions{
		logger:        noopLogger{},
		queueCapacity: 1024,
	}
}

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption interface {
	applyScheduler(*schedulerOptions)
}

type schedulerOptionFunc func(*schedulerOptions)

func (f schedulerOptionFunc) applyScheduler(o *schedulerOptions) { f(o) }

// WithLogger installs a structured logging sink for scheduler diagnostics
// (state transitions, recovered panics). Defaults to a no-op sink.
func WithLogger(l Logger) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithSchedulerMetrics enables P50/P90/P99 resume-latency tracking,
// retrievable via Scheduler.Metrics().
func WithSchedulerMetrics(enabled bool) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		o.metricsEnabled = enabled
	})
}

// WithQueueCapacity sets the initial backing capacity of the work and
// runnable-handle queues. The queues still grow past this size; it is a
// pre-allocation hint, not a hard cap.
func WithQueueCapacity(n int) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if n > 0 {
			o.queueCapacity = n
		}
	})
}

func resolveSchedulerOptions(opts []SchedulerOption) *schedulerOptions {
	cfg := defaultSchedulerOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(cfg)
	}
	return cfg
}

// streamOptions holds configuration for a StreamCell.
type streamOptions struct {
	logger Logger
}

// StreamOption configures a StreamCell at construction time.
type StreamOption interface {
	applyStream(*streamOptions)
}

type streamOptionFunc func(*streamOptions)

func (f streamOptionFunc) applyStream(o *streamOptions) { f(o) }

// WithStreamLogger installs a structured logging sink for stream contract
// diagnostics. Defaults to a no-op sink.
func WithStreamLogger(l Logger) StreamOption {
	return streamOptionFunc(func(o *streamOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

func resolveStreamOptions(opts []StreamOption) *streamOptions {
	cfg := &streamOptions{logger: noopLogger{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyStream(cfg)
	}
	return cfg
}
