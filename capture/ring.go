package capture

import "sync"

// Ring is a fixed-capacity circular buffer. Unlike Slot it truly queues:
// Drain removes what it returns. When full, Push overwrites the oldest
// entry by advancing both head and tail, so the buffer always holds the
// most recent capacity samples and never grows.
type Ring[T any] struct {
	mu    sync.Mutex
	buf   []T
	head  int
	tail  int
	count int
}

// NewRing returns a ring holding at most capacity entries. Capacity must be
// positive.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("capture: ring capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, dropping the oldest entry if the ring is full.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	} else {
		r.tail = (r.tail + 1) % len(r.buf)
	}
}

// Drain removes and returns up to max entries, oldest first. It returns nil
// when the ring is empty or max is not positive.
func (r *Ring[T]) Drain(max int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if max <= 0 || r.count == 0 {
		return nil
	}
	n := r.count
	if n > max {
		n = max
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.buf[r.tail])
		r.tail = (r.tail + 1) % len(r.buf)
		r.count--
	}
	return out
}

// Len returns the number of buffered entries.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Reset empties the ring.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head, r.tail, r.count = 0, 0, 0
}
