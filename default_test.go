package async

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Note: these tests intentionally close the process-wide default scheduler.
// Every other test in the package passes an explicit Scheduler, so nothing
// else depends on the default being live.

func TestCloseDefaultSchedulerBeforeFirstUse(t *testing.T) {
	// Closing before DefaultScheduler has ever been constructed must not
	// poison lazy construction: later callers get a real, already-closed
	// pool rather than nil.
	CloseDefaultScheduler()

	s := DefaultScheduler()
	require.NotNil(t, s)
	require.ErrorIs(t, s.Enqueue(func() {}), ErrSchedulerClosed)
	require.ErrorIs(t, DefaultExecutor().Enqueue(func() {}), ErrSchedulerClosed)

	// A composition operator falling back to the default executor settles
	// with the enqueue error instead of dereferencing nil.
	f := RunAsync[int](nil, func() (int, error) { return 1, nil })
	_, err := f.Get()
	require.ErrorIs(t, err, ErrSchedulerClosed)

	CloseDefaultScheduler() // idempotent
}
