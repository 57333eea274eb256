package async

import (
	"errors"
	"fmt"
)

// PanicError wraps a value recovered from a panic raised inside a
// user-supplied composition function (then/catch_all/... bodies) or inside
// a coroutine body. It is stored as the resulting SharedCell's error, i.e.
// it surfaces as a user computation error, never re-panics on its own.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("async: panic recovered: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is itself an error,
// enabling errors.Is/errors.As through the cause chain.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ContractViolation marks one of the implementation's assertion failures:
// double-complete of a SharedCell, double-close of a StreamCell, an item
// enqueued after a StreamCell's End/Error marker, or two one-shot callbacks
// of the same kind armed at once. Using an awaiter or coroutine context
// outside the coroutine that owns it is not detected and does not produce a
// ContractViolation. These are not
// recoverable by clients; violate panics rather than returning an error,
// so this type exists chiefly to give the panic value structure
// that test harnesses and internal recover() sites can match on.
type ContractViolation struct {
	Op      string
	Message string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("async: contract violation in %s: %s", e.Op, e.Message)
}

// violate logs the contract violation through the owning object's sink (the
// stream's injected logger, or the package diagnostic sink for cells) and
// then panics with the typed payload.
func violate(l Logger, op, message string) {
	err := &ContractViolation{Op: op, Message: message}
	if l == nil {
		l = NewNoopLogger()
	}
	l.Event(LogLevelError).Str("op", op).Err(err).Log("contract violation")
	panic(err)
}

// WhenAllError is the failure reported by when_all: the first antecedent
// error observed by the internal completion callback. Per the open design
// question noted in DESIGN.md, which input "wins" the race is intentionally
// non-deterministic and must not be relied upon by callers or tests.
type WhenAllError struct {
	Cause error
}

func (e *WhenAllError) Error() string {
	return fmt.Sprintf("async: when_all: %v", e.Cause)
}

func (e *WhenAllError) Unwrap() error {
	return e.Cause
}

// WrapError wraps cause with a message, preserving errors.Is(result, cause).
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// ErrSchedulerClosed is returned by Executor.enqueue-family operations once
// a Scheduler has entered StateClosing/StateClosed.
var ErrSchedulerClosed = errors.New("async: scheduler is closed")
