package async

import (
	"sync/atomic"
)

// SchedulerState represents the lifecycle state of a Scheduler.
//
// State Machine, as driven by the schedulers in this package:
//
//	StateIdle (0) → StateClosing (4)       [Close() called]
//	StateClosing (4) → StateClosed (1)     [drain complete]
//	StateClosed (1) → (terminal)
//
// A scheduler stays in StateIdle for as long as it accepts work. StateRunning
// and StateSleeping are defined, accepted by CanAcceptWork and by Close as
// starting states, but neither scheduler variant ever enters them.
//
// Use TryTransition (CAS) for the reversible states (Running/Sleeping); use
// Store only for the irreversible StateClosed transition.
type SchedulerState uint64

const (
	// StateIdle indicates the scheduler is open and accepting work.
	StateIdle SchedulerState = 0
	// StateClosed indicates the scheduler has fully drained and stopped.
	StateClosed SchedulerState = 1
	// StateSleeping indicates a worker is parked waiting for work or a runnable handle.
	StateSleeping SchedulerState = 2
	// StateRunning indicates a worker is actively executing work.
	StateRunning SchedulerState = 3
	// StateClosing indicates Close has been requested but draining is not complete.
	StateClosing SchedulerState = 4
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// FastState is an atomic CAS state machine with cache-line padding, so that
// frequent Load/TryTransition calls from many worker goroutines don't false-share.
type FastState struct { //nolint:govet // betteralign:ignore
	_ [sizeOfCacheLine]byte
	v atomic.Uint64
	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte
}

// NewFastState creates a new state machine in StateIdle.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateIdle))
	return s
}

// Load returns the current state atomically.
func (s *FastState) Load() SchedulerState {
	return SchedulerState(s.v.Load())
}

// Store atomically stores a new state, bypassing transition validation.
// Only StateClosed (an irreversible sink) should be set this way.
func (s *FastState) Store(state SchedulerState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically move from one state to another.
func (s *FastState) TryTransition(from, to SchedulerState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to transition from any of validFrom to to.
func (s *FastState) TransitionAny(validFrom []SchedulerState, to SchedulerState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the scheduler has fully closed.
func (s *FastState) IsTerminal() bool {
	return s.Load() == StateClosed
}

// CanAcceptWork reports whether the scheduler may still accept new work.
func (s *FastState) CanAcceptWork() bool {
	switch s.Load() {
	case StateIdle, StateRunning, StateSleeping:
		return true
	default:
		return false
	}
}
