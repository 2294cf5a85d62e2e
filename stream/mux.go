package stream

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// SensorKind identifies the stream carried by one multiplexed frame.
type SensorKind uint16

// Multiplexed sensor kinds.
const (
	SensorDepth       SensorKind = 1
	SensorWorldCamera SensorKind = 2
	SensorIMU         SensorKind = 3
)

// muxMagic and muxVersion open every multiplexed frame header.
const (
	muxMagic      = "ML2S"
	muxVersion    = 1
	MuxHeaderSize = 40
)

// MuxFrame is the header of one multiplexed frame. Non-image payloads leave
// Width and Height zero.
type MuxFrame struct {
	Sensor      SensorKind
	StreamID    uint16
	FrameIndex  uint32
	TimestampNs uint64
	Width       uint32
	Height      uint32
	DType       uint32
}

// MuxSender writes multiplexed frames to one connection. It is safe for
// concurrent use; each frame is written contiguously.
type MuxSender struct {
	mu  sync.Mutex
	w   io.Writer
	buf leBuffer
}

// NewMuxSender wraps a connection or file.
func NewMuxSender(w io.Writer) *MuxSender {
	return &MuxSender{w: w}
}

// WriteFrame emits one 40-byte header followed by the payload.
func (s *MuxSender) WriteFrame(frame MuxFrame, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.reset()
	s.buf.raw([]byte(muxMagic))
	s.buf.u32(muxVersion)
	s.buf.u16(uint16(frame.Sensor))
	s.buf.u16(frame.StreamID)
	s.buf.u32(frame.FrameIndex)
	s.buf.u64(frame.TimestampNs)
	s.buf.u32(frame.Width)
	s.buf.u32(frame.Height)
	s.buf.u32(frame.DType)
	s.buf.u32(uint32(len(payload)))

	if _, err := s.w.Write(s.buf.bytes()); err != nil {
		return errors.Wrap(err, "mux header write failed")
	}
	if _, err := s.w.Write(payload); err != nil {
		return errors.Wrap(err, "mux payload write failed")
	}
	return nil
}
