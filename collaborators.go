package async

import "time"

// The interfaces in this file are the contracts of the library's external
// collaborators. This package implements none of them; they exist so code
// built on it can accept a timer or reader without choosing a concrete
// implementation, and so the collaborator's Future/Stream surface is pinned
// to this package's types.

// Timer is a one-shot wall-clock timer: its Future settles true when the
// timer fires, false if Cancel won the race. Cancel after firing is a no-op.
type Timer interface {
	Done() Future[bool]
	Cancel()
}

// PeriodicTimer delivers its tick timestamps as a stream; cancellation is
// signalled by the stream's End marker rather than an error.
type PeriodicTimer interface {
	Ticks() *StreamCell[time.Time, struct{}]
	Cancel()
}

// AlarmClock schedules one-shot and periodic timers. Closing it cancels
// every timer not yet fired.
type AlarmClock interface {
	SetTimer(when time.Time) Timer
	SetTimerAfter(d time.Duration) Timer
	SetPeriodic(interval time.Duration) PeriodicTimer
	Close()
}

// AsyncReader is the asynchronous byte-read collaborator: the returned
// Future settles with the number of bytes read into p, or with the read
// error.
type AsyncReader interface {
	ReadAsync(p []byte) Future[int]
}
