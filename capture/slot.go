// Package capture provides the producer/consumer handoff primitives shared
// by every sensor subsystem: a mutex-guarded latest-value slot with the
// caller-resize capacity negotiation protocol, and a fixed-capacity ring for
// high-rate samples.
package capture

import "sync"

// Slot holds the most recent frame for one output channel. An acquisition
// goroutine publishes into it; a consumer on another cadence pulls from it
// without blocking. The slot is single-buffered: an unconsumed frame is
// silently replaced by the next publish, never queued.
//
// Metadata and payload are updated atomically as a pair; a consumer sees
// either the previous complete frame or the new complete frame, never a
// torn mix.
type Slot[M any] struct {
	mu      sync.Mutex
	meta    M
	payload []byte
	hasData bool
	hasNew  bool
}

// Publish replaces the slot contents with a copy of meta and payload. The
// payload is copied into slot-owned storage, so the caller may reuse its
// buffer immediately.
func (s *Slot[M]) Publish(meta M, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	if cap(s.payload) < len(payload) {
		s.payload = make([]byte, len(payload))
	}
	s.payload = s.payload[:len(payload)]
	copy(s.payload, payload)
	s.hasData = true
	s.hasNew = true
}

// TryGet copies the latest payload into buf if it fits.
//
// On success it returns the metadata, the byte count copied, and true.
// If the slot is empty it returns (zero, 0, false). If buf is too small it
// returns (zero, required, false) with buf untouched; the caller must
// reallocate at least required bytes and retry. TryGet does not consume:
// the same frame is returned until the producer overwrites it.
func (s *Slot[M]) TryGet(buf []byte) (M, int, bool) {
	var zero M
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasData || len(s.payload) == 0 {
		return zero, 0, false
	}
	if len(s.payload) > len(buf) {
		return zero, len(s.payload), false
	}
	copy(buf, s.payload)
	return s.meta, len(s.payload), true
}

// TryGetNew is TryGet gated on the new-data flag: it fails when nothing has
// been published since the last successful call, and clears the flag on
// success. Capacity negotiation does not consume the flag.
func (s *Slot[M]) TryGetNew(buf []byte) (M, int, bool) {
	var zero M
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNew || len(s.payload) == 0 {
		return zero, 0, false
	}
	if len(s.payload) > len(buf) {
		return zero, len(s.payload), false
	}
	copy(buf, s.payload)
	s.hasNew = false
	return s.meta, len(s.payload), true
}

// HasNew reports whether a publish happened since the flag was last cleared.
func (s *Slot[M]) HasNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNew
}

// ClearNew clears the new-data flag without copying anything.
func (s *Slot[M]) ClearNew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasNew = false
}

// Size returns the current payload length, or 0 for an empty slot.
func (s *Slot[M]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasData {
		return 0
	}
	return len(s.payload)
}

// Reset empties the slot.
func (s *Slot[M]) Reset() {
	var zero M
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = zero
	s.payload = nil
	s.hasData = false
	s.hasNew = false
}
