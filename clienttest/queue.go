package clienttest

import (
	"sync"
)

// EventQueue is a shared, ordered, mutable buffer of events. Insertion order
// is emission order. The handler appends at the tail from whatever goroutine
// the client emits on; readers inspect or consume from the front concurrently.
//
// The queue carries a corruption mark with fail-fast semantics: every mutating
// operation sets the mark while it holds the write lock and clears it again on
// orderly completion. A panic inside the critical section leaves the mark set,
// and every later acquisition, shared or exclusive, finds it and panics with
// ErrQueueCorrupted. A half-mutated queue would make further assertions
// meaningless, so this state is fatal and unrecoverable.
type EventQueue[T any] struct {
	mu        sync.RWMutex
	corrupted bool
	items     []T
}

// NewEventQueue constructs an empty queue.
func NewEventQueue[T any]() *EventQueue[T] {
	return &EventQueue[T]{}
}

// Append adds an item at the tail.
func (q *EventQueue[T]) Append(item T) {
	q.beginWrite()
	defer q.mu.Unlock()

	q.items = append(q.items, item)

	q.endWrite()
}

// PopFront removes and returns the front item. The second return value is
// false when the queue is empty.
func (q *EventQueue[T]) PopFront() (T, bool) {
	q.beginWrite()
	defer q.mu.Unlock()

	item, ok := q.popFrontLocked()

	q.endWrite()

	return item, ok
}

// Clear removes all items.
func (q *EventQueue[T]) Clear() {
	q.beginWrite()
	defer q.mu.Unlock()

	q.items = nil

	q.endWrite()
}

// Len returns the number of buffered items.
func (q *EventQueue[T]) Len() int {
	q.beginRead()
	defer q.mu.RUnlock()

	return len(q.items)
}

// Events returns an ordered snapshot copy of the buffered items without
// removing anything.
func (q *EventQueue[T]) Events() []T {
	q.beginRead()
	defer q.mu.RUnlock()

	snapshot := make([]T, len(q.items))
	copy(snapshot, q.items)

	return snapshot
}

// beginWrite acquires exclusive access and sets the corruption mark. The mark
// stays set until endWrite, so a panic while the lock is held poisons the
// queue for every later acquisition.
func (q *EventQueue[T]) beginWrite() {
	q.mu.Lock()

	if q.corrupted {
		q.mu.Unlock()
		panic(ErrQueueCorrupted)
	}

	q.corrupted = true
}

// endWrite clears the corruption mark. It must run before the write lock is
// released, on the orderly completion path only.
func (q *EventQueue[T]) endWrite() {
	q.corrupted = false
}

// beginRead acquires shared access, failing fast on a corrupted queue.
func (q *EventQueue[T]) beginRead() {
	q.mu.RLock()

	if q.corrupted {
		q.mu.RUnlock()
		panic(ErrQueueCorrupted)
	}
}

// popFrontLocked removes the front item. Callers must hold the write lock.
func (q *EventQueue[T]) popFrontLocked() (T, bool) {
	var zero T

	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]

	return item, true
}
