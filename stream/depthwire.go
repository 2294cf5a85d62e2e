package stream

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Depth-only wire constants. This single-purpose variant predates the
// multiplexed protocol and is kept for older receivers.
const (
	depthWireMagic   = "DEP0"
	depthWireVersion = 1

	// DTypeFloat32 is the only dtype the depth wire carries.
	DTypeFloat32 = 1

	DepthHeaderSize = 36
)

// DepthSender writes depth frames with the 36-byte single-stream header.
type DepthSender struct {
	mu  sync.Mutex
	w   io.Writer
	buf leBuffer
}

// NewDepthSender wraps a connection or file.
func NewDepthSender(w io.Writer) *DepthSender {
	return &DepthSender{w: w}
}

// WriteFrame emits one header followed by the payload.
func (s *DepthSender) WriteFrame(frameIndex uint32, timestampNs uint64, width, height uint32, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.reset()
	s.buf.raw([]byte(depthWireMagic))
	s.buf.u32(depthWireVersion)
	s.buf.u32(frameIndex)
	s.buf.u64(timestampNs)
	s.buf.u32(width)
	s.buf.u32(height)
	s.buf.u32(DTypeFloat32)
	s.buf.u32(uint32(len(payload)))

	if _, err := s.w.Write(s.buf.bytes()); err != nil {
		return errors.Wrap(err, "depth header write failed")
	}
	if _, err := s.w.Write(payload); err != nil {
		return errors.Wrap(err, "depth payload write failed")
	}
	return nil
}
