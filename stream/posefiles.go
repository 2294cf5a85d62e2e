package stream

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// Pose record file constants. Magics are padded to 8 bytes with NULs where
// the name is shorter.
const (
	headPoseMagic   = "HEADPOSE"
	headPoseVersion = 2

	cvPoseMagic   = "CVPOSE\x00\x00"
	cvPoseVersion = 2

	rgbPoseMagic = "RGBPOSE\x00"
	rgbVersion   = 1
)

// writePoseF32 appends a pose as 4 rotation floats (x,y,z,w) then 3 position
// floats, the order every pose record shares.
func writePoseF32(buf *leBuffer, pose spatial.Pose) {
	buf.f32(float32(pose.Rotation.Imag))
	buf.f32(float32(pose.Rotation.Jmag))
	buf.f32(float32(pose.Rotation.Kmag))
	buf.f32(float32(pose.Rotation.Real))
	buf.f32(float32(pose.Position.X))
	buf.f32(float32(pose.Position.Y))
	buf.f32(float32(pose.Position.Z))
}

// HeadPoseRecord is one 69-byte head pose file record.
type HeadPoseRecord struct {
	FrameIndex  uint32
	LocalTime   float32
	TimestampNs int64
	ResultCode  int32
	Pose        spatial.Pose
	Status      uint32
	Confidence  float32
	ErrorFlags  uint32
	HasMapEvent bool
	MapEvents   uint64
}

// HeadPoseWriter appends records to a HEADPOSE v2 file.
type HeadPoseWriter struct {
	w   *bufio.Writer
	buf leBuffer
}

// NewHeadPoseWriter writes the file header and returns a record writer.
func NewHeadPoseWriter(w io.Writer) (*HeadPoseWriter, error) {
	hw := &HeadPoseWriter{w: bufio.NewWriter(w)}
	hw.buf.raw([]byte(headPoseMagic))
	hw.buf.i32(headPoseVersion)
	if _, err := hw.w.Write(hw.buf.bytes()); err != nil {
		return nil, errors.Wrap(err, "headpose header write failed")
	}
	return hw, nil
}

// WriteRecord appends one record.
func (hw *HeadPoseWriter) WriteRecord(rec HeadPoseRecord) error {
	hw.buf.reset()
	hw.buf.u32(rec.FrameIndex)
	hw.buf.f32(rec.LocalTime)
	hw.buf.i64(rec.TimestampNs)
	hw.buf.i32(rec.ResultCode)
	writePoseF32(&hw.buf, rec.Pose)
	hw.buf.u32(rec.Status)
	hw.buf.f32(rec.Confidence)
	hw.buf.u32(rec.ErrorFlags)
	hw.buf.boolByte(rec.HasMapEvent)
	hw.buf.u64(rec.MapEvents)
	if _, err := hw.w.Write(hw.buf.bytes()); err != nil {
		return errors.Wrap(err, "headpose record write failed")
	}
	return nil
}

// Flush pushes buffered records to the underlying writer.
func (hw *HeadPoseWriter) Flush() error {
	return errors.Wrap(hw.w.Flush(), "headpose flush failed")
}

// CVPoseRecord is one 52-byte camera pose file record. RGBFrameIndex ties
// the pose back to the color frame it was queried for.
type CVPoseRecord struct {
	RecordIndex   uint32
	LocalTime     float32
	RGBFrameIndex uint32
	TimestampNs   int64
	ResultCode    int32
	Pose          spatial.Pose
}

// CVPoseWriter appends records to a CVPOSE v2 file.
type CVPoseWriter struct {
	w   *bufio.Writer
	buf leBuffer
}

// NewCVPoseWriter writes the file header and returns a record writer.
func NewCVPoseWriter(w io.Writer) (*CVPoseWriter, error) {
	cw := &CVPoseWriter{w: bufio.NewWriter(w)}
	cw.buf.raw([]byte(cvPoseMagic))
	cw.buf.i32(cvPoseVersion)
	if _, err := cw.w.Write(cw.buf.bytes()); err != nil {
		return nil, errors.Wrap(err, "cvpose header write failed")
	}
	return cw, nil
}

// WriteRecord appends one record.
func (cw *CVPoseWriter) WriteRecord(rec CVPoseRecord) error {
	cw.buf.reset()
	cw.buf.u32(rec.RecordIndex)
	cw.buf.f32(rec.LocalTime)
	cw.buf.u32(rec.RGBFrameIndex)
	cw.buf.i64(rec.TimestampNs)
	cw.buf.i32(rec.ResultCode)
	writePoseF32(&cw.buf, rec.Pose)
	if _, err := cw.w.Write(cw.buf.bytes()); err != nil {
		return errors.Wrap(err, "cvpose record write failed")
	}
	return nil
}

// Flush pushes buffered records to the underlying writer.
func (cw *CVPoseWriter) Flush() error {
	return errors.Wrap(cw.w.Flush(), "cvpose flush failed")
}

// RGBPoseRecord is the per-frame metadata of an RGBPOSE file. The pose is
// written even when PoseValid is false so records keep a fixed prefix; the
// flag tells readers whether to trust it.
type RGBPoseRecord struct {
	FrameIndex  uint32
	LocalTime   float32
	TimestampNs int64
	Width       int32
	Height      int32
	StrideBytes int32
	Format      int32
	PoseValid   bool
	PoseResult  int32
	Pose        spatial.Pose
}

// RGBPoseWriter appends color frames with fused poses to an RGBPOSE file.
type RGBPoseWriter struct {
	w   *bufio.Writer
	buf leBuffer
}

// NewRGBPoseWriter writes the file header, which records the capture mode
// alongside the version, and returns a frame writer.
func NewRGBPoseWriter(w io.Writer, captureMode int32) (*RGBPoseWriter, error) {
	rw := &RGBPoseWriter{w: bufio.NewWriter(w)}
	rw.buf.raw([]byte(rgbPoseMagic))
	rw.buf.i32(rgbVersion)
	rw.buf.i32(captureMode)
	if _, err := rw.w.Write(rw.buf.bytes()); err != nil {
		return nil, errors.Wrap(err, "rgbpose header write failed")
	}
	return rw, nil
}

// WriteFrame appends one frame record followed by the image payload.
func (rw *RGBPoseWriter) WriteFrame(rec RGBPoseRecord, payload []byte) error {
	rw.buf.reset()
	rw.buf.u32(rec.FrameIndex)
	rw.buf.f32(rec.LocalTime)
	rw.buf.i64(rec.TimestampNs)
	rw.buf.i32(rec.Width)
	rw.buf.i32(rec.Height)
	rw.buf.i32(rec.StrideBytes)
	rw.buf.i32(rec.Format)
	rw.buf.boolByte(rec.PoseValid)
	rw.buf.i32(rec.PoseResult)
	writePoseF32(&rw.buf, rec.Pose)
	rw.buf.u32(uint32(len(payload)))
	if _, err := rw.w.Write(rw.buf.bytes()); err != nil {
		return errors.Wrap(err, "rgbpose frame header write failed")
	}
	if _, err := rw.w.Write(payload); err != nil {
		return errors.Wrap(err, "rgbpose payload write failed")
	}
	return nil
}

// Flush pushes buffered frames to the underlying writer.
func (rw *RGBPoseWriter) Flush() error {
	return errors.Wrap(rw.w.Flush(), "rgbpose flush failed")
}
