package stream

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// WORLDCAM file layout: 8-byte magic, i32 version, then per frame a u32
// index, f32 local time, i64 device timestamp, i32 camera id, four i32 image
// dimensions, a u32 byte count and the image payload.
const (
	worldCamMagic   = "WORLDCAM"
	worldCamVersion = 1
)

// WorldCamRecord is the metadata of one recorded frame.
type WorldCamRecord struct {
	FrameIndex  uint32
	LocalTime   float32
	TimestampNs int64
	CameraID    int32
	Width       int32
	Height      int32
	StrideBytes int32
	Format      int32
}

// WorldCamWriter appends world camera frames to a WORLDCAM file.
type WorldCamWriter struct {
	w   *bufio.Writer
	buf leBuffer
}

// NewWorldCamWriter writes the file header and returns a frame writer.
func NewWorldCamWriter(w io.Writer) (*WorldCamWriter, error) {
	ww := &WorldCamWriter{w: bufio.NewWriter(w)}
	ww.buf.raw([]byte(worldCamMagic))
	ww.buf.i32(worldCamVersion)
	if _, err := ww.w.Write(ww.buf.bytes()); err != nil {
		return nil, errors.Wrap(err, "worldcam header write failed")
	}
	return ww, nil
}

// WriteFrame appends one frame.
func (ww *WorldCamWriter) WriteFrame(rec WorldCamRecord, payload []byte) error {
	ww.buf.reset()
	ww.buf.u32(rec.FrameIndex)
	ww.buf.f32(rec.LocalTime)
	ww.buf.i64(rec.TimestampNs)
	ww.buf.i32(rec.CameraID)
	ww.buf.i32(rec.Width)
	ww.buf.i32(rec.Height)
	ww.buf.i32(rec.StrideBytes)
	ww.buf.i32(rec.Format)
	ww.buf.u32(uint32(len(payload)))
	if _, err := ww.w.Write(ww.buf.bytes()); err != nil {
		return errors.Wrap(err, "worldcam frame header write failed")
	}
	if _, err := ww.w.Write(payload); err != nil {
		return errors.Wrap(err, "worldcam payload write failed")
	}
	return nil
}

// Flush pushes buffered frames to the underlying writer.
func (ww *WorldCamWriter) Flush() error {
	return errors.Wrap(ww.w.Flush(), "worldcam flush failed")
}
