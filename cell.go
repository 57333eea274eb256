package async

import "sync"

type cellState int32

const (
	cellPending cellState = iota
	cellCompleted
	cellFailed
)

// sharedCell is the single tri-state completion primitive backing both
// halves of a Future/Promise pair, grounded on this codebase's
// ChainedPromise (one mutex-protected state machine plus a callback chain
// fired exactly once, in registration order, on whichever goroutine performs
// the state transition). Unlike ChainedPromise it has no microtask queue or
// JS adapter: callbacks run inline, synchronously, on the completing
// goroutine, and any scheduling onto an Executor is layered on top in
// future.go.
type sharedCell[T any] struct {
	mu        sync.Mutex
	cond      *sync.Cond
	state     cellState
	value     T
	err       error
	callbacks []func()
}

func newSharedCell[T any]() *sharedCell[T] {
	c := &sharedCell[T]{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// runCompletionCallback shields the completing goroutine from a panicking
// callback: the panic is recovered and logged through the package
// diagnostic sink, so the rest of the chain still runs and Set/SetError
// return normally to their caller.
func runCompletionCallback(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			diag().Event(LogLevelError).Err(PanicError{Value: r}).Log("completion callback panic recovered")
		}
	}()
	cb()
}

// complete transitions the cell to completed-normally. Completing a cell
// twice, by either complete or fail, is a contract violation: a Promise may
// only ever settle its Future once.
func (c *sharedCell[T]) complete(v T) {
	c.mu.Lock()
	if c.state != cellPending {
		c.mu.Unlock()
		violate(diag(), "Promise.Set", "cell already completed")
	}
	c.value = v
	c.state = cellCompleted
	cbs := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()
	c.cond.Broadcast()
	for _, cb := range cbs {
		runCompletionCallback(cb)
	}
}

func (c *sharedCell[T]) fail(err error) {
	c.mu.Lock()
	if c.state != cellPending {
		c.mu.Unlock()
		violate(diag(), "Promise.SetError", "cell already completed")
	}
	c.err = err
	c.state = cellFailed
	cbs := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()
	c.cond.Broadcast()
	for _, cb := range cbs {
		runCompletionCallback(cb)
	}
}

// addCallback arms f to run once the cell settles. If the cell has already
// settled, f runs synchronously and immediately, on the calling goroutine
// (the fast path every composition operator relies on to avoid scheduling
// delay on an already-resolved antecedent). Otherwise f is appended to the
// callback chain and runs later, on whichever goroutine calls complete/fail,
// in registration order alongside every other armed callback.
func (c *sharedCell[T]) addCallback(f func()) {
	c.mu.Lock()
	if c.state != cellPending {
		c.mu.Unlock()
		runCompletionCallback(f)
		return
	}
	c.callbacks = append(c.callbacks, f)
	c.mu.Unlock()
}

func (c *sharedCell[T]) wait() {
	c.mu.Lock()
	for c.state == cellPending {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

// snapshot returns the settled value/error. Only meaningful once the cell is
// known (by the caller) to be non-pending, e.g. from inside an addCallback
// callback or after wait() returns.
func (c *sharedCell[T]) snapshot() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.err
}

func (c *sharedCell[T]) get() (T, error) {
	c.wait()
	return c.snapshot()
}

func (c *sharedCell[T]) isComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != cellPending
}

func (c *sharedCell[T]) isCompletedNormally() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == cellCompleted
}

func (c *sharedCell[T]) isFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == cellFailed
}

// failIfPending fails the cell with err unless it has already settled, in
// which case it is a silent no-op rather than a contract violation. Used by
// coroutineRegistry.FailAllPending to force-settle leaked/abandoned cells
// without racing a legitimate concurrent settlement.
func (c *sharedCell[T]) failIfPending(err error) {
	c.mu.Lock()
	if c.state != cellPending {
		c.mu.Unlock()
		return
	}
	c.err = err
	c.state = cellFailed
	cbs := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()
	c.cond.Broadcast()
	for _, cb := range cbs {
		runCompletionCallback(cb)
	}
}
