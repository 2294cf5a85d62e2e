package stream

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// DEPTHRAW file layout: 8-byte magic, i32 version, then per frame a u32
// index, i64 capture time, and exactly five channel blocks. Each block is a
// type byte, four i32 dimensions, an i32 byte count and the payload; an
// absent channel writes a zeroed header with no payload so readers can index
// frames without a side table.
const (
	depthRawMagic   = "DEPTHRAW"
	depthRawVersion = 1

	// DepthChannelCount is the fixed number of blocks per frame.
	DepthChannelCount = 5
)

// Depth channel block types.
const (
	DepthBlockDepth uint8 = iota + 1
	DepthBlockConfidence
	DepthBlockFlags
	DepthBlockRawDepth
	DepthBlockAmbientRaw
)

// DepthChannelBlock is one channel's contribution to a frame. A nil Data
// marks the channel absent.
type DepthChannelBlock struct {
	Width         int32
	Height        int32
	StrideBytes   int32
	BytesPerPixel int32
	Data          []byte
}

// DepthRawWriter appends depth frames to a DEPTHRAW file.
type DepthRawWriter struct {
	w   *bufio.Writer
	buf leBuffer
}

// NewDepthRawWriter writes the file header and returns a frame writer.
func NewDepthRawWriter(w io.Writer) (*DepthRawWriter, error) {
	dw := &DepthRawWriter{w: bufio.NewWriter(w)}
	dw.buf.raw([]byte(depthRawMagic))
	dw.buf.i32(depthRawVersion)
	if _, err := dw.w.Write(dw.buf.bytes()); err != nil {
		return nil, errors.Wrap(err, "depthraw header write failed")
	}
	return dw, nil
}

// WriteFrame appends one frame. blocks is indexed by channel; all five
// blocks are always written.
func (dw *DepthRawWriter) WriteFrame(frameIndex uint32, captureTimeNs int64, blocks *[DepthChannelCount]DepthChannelBlock) error {
	dw.buf.reset()
	dw.buf.u32(frameIndex)
	dw.buf.i64(captureTimeNs)
	if _, err := dw.w.Write(dw.buf.bytes()); err != nil {
		return errors.Wrap(err, "depthraw frame prefix write failed")
	}

	for i := range blocks {
		block := &blocks[i]
		dw.buf.reset()
		dw.buf.u8(uint8(i) + DepthBlockDepth)
		dw.buf.i32(block.Width)
		dw.buf.i32(block.Height)
		dw.buf.i32(block.StrideBytes)
		dw.buf.i32(block.BytesPerPixel)
		dw.buf.i32(int32(len(block.Data)))
		if _, err := dw.w.Write(dw.buf.bytes()); err != nil {
			return errors.Wrap(err, "depthraw block header write failed")
		}
		if len(block.Data) > 0 {
			if _, err := dw.w.Write(block.Data); err != nil {
				return errors.Wrap(err, "depthraw block payload write failed")
			}
		}
	}
	return nil
}

// Flush pushes buffered frames to the underlying writer.
func (dw *DepthRawWriter) Flush() error {
	return errors.Wrap(dw.w.Flush(), "depthraw flush failed")
}
