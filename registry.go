package async

import (
	"strconv"
	"sync"
	"weak"
)

// pendingEntry is one registry slot: a closure pair capturing a
// weak.Pointer[sharedCell[T]] for whatever concrete T it was registered
// with, so the registry itself stays non-generic while tracking
// heterogeneous cell types.
type pendingEntry struct {
	alive func() bool
	fail  func(error)
}

// coroutineRegistry tracks coroutine-produced Promises via weak pointers, so
// registering one doesn't keep its cell alive just by being tracked, and so
// FailAllPending can force-settle any still-pending one at shutdown.
// Grounded on this codebase's weak-pointer promise registry — a ring buffer
// of IDs scavenged in batches, weak.Pointer[promise] values, RejectAll at
// shutdown — generalized from one concrete promise type to any SharedCell[T]
// via per-entry closures instead of a homogeneous map value type.
type coroutineRegistry struct {
	mu     sync.Mutex
	data   map[uint64]pendingEntry
	ring   []uint64
	head   int
	nextID uint64
}

func newCoroutineRegistry() *coroutineRegistry {
	return &coroutineRegistry{
		data:   make(map[uint64]pendingEntry),
		ring:   make([]uint64, 0, 256),
		nextID: 1,
	}
}

// registerPendingCell adds c to r via a weak pointer and returns its ID.
func registerPendingCell[T any](r *coroutineRegistry, c *sharedCell[T]) uint64 {
	wp := weak.Make(c)
	entry := pendingEntry{
		alive: func() bool {
			cell := wp.Value()
			return cell != nil && !cell.isComplete()
		},
		fail: func(err error) {
			if cell := wp.Value(); cell != nil {
				cell.failIfPending(err)
			}
		},
	}
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.data[id] = entry
	r.ring = append(r.ring, id)
	r.mu.Unlock()
	// Amortized cleanup: every scavengeInterval registrations, sweep one
	// batch so a long-lived process doesn't accumulate settled entries
	// between explicit Scavenge calls.
	if id%scavengeInterval == 0 {
		r.Scavenge(scavengeInterval)
	}
	return id
}

const scavengeInterval = 64

// Scavenge walks up to batchSize entries from wherever it last left off,
// dropping any that are no longer alive (GC'd or already settled). Dropped
// counts are reported through the package diagnostic sink.
func (r *coroutineRegistry) Scavenge(batchSize int) {
	if batchSize <= 0 {
		return
	}
	r.mu.Lock()
	n := len(r.ring)
	if n == 0 {
		r.mu.Unlock()
		return
	}
	end := r.head + batchSize
	if end > n {
		end = n
	}
	dropped := 0
	for i := r.head; i < end; i++ {
		id := r.ring[i]
		if id == 0 {
			continue
		}
		entry, ok := r.data[id]
		if !ok || !entry.alive() {
			delete(r.data, id)
			r.ring[i] = 0
			dropped++
		}
	}
	if end >= n {
		r.head = 0
		r.compact()
	} else {
		r.head = end
	}
	remaining := len(r.data)
	r.mu.Unlock()
	if dropped > 0 {
		diag().Event(LogLevelDebug).
			Str("component", "coroutine-registry").
			Str("dropped", strconv.Itoa(dropped)).
			Str("remaining", strconv.Itoa(remaining)).
			Log("registry scavenge")
	}
}

// compact drops null markers from the ring. Caller must hold r.mu.
func (r *coroutineRegistry) compact() {
	newRing := r.ring[:0]
	for _, id := range r.ring {
		if id != 0 {
			newRing = append(newRing, id)
		}
	}
	r.ring = newRing
}

// FailAllPending force-settles every still-registered, still-pending cell
// with err — the registry's RejectAll-at-shutdown equivalent, ensuring a
// coroutine awaiting a Future that will now never settle (its Scheduler just
// closed) doesn't block its waiter forever.
func (r *coroutineRegistry) FailAllPending(err error) {
	r.mu.Lock()
	entries := make([]pendingEntry, 0, len(r.data))
	for _, e := range r.data {
		entries = append(entries, e)
	}
	r.data = make(map[uint64]pendingEntry)
	r.ring = r.ring[:0]
	r.head = 0
	r.mu.Unlock()

	for _, e := range entries {
		e.fail(err)
	}
}

// Count returns the number of entries currently registered (alive or not);
// a diagnostic, not a precise live-pending count.
func (r *coroutineRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// defaultCoroutineRegistry tracks every Future produced by Go, so
// CloseDefaultScheduler can force-fail whatever is still pending against it.
var defaultCoroutineRegistry = newCoroutineRegistry()
