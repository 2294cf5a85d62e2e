package stream

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/imu"
)

// IMURAW file layout: 8-byte magic (name padded with NULs), i32 version, i32
// sample rate, then 46-byte records: u32 index, accel vector + timestamp +
// presence byte, gyro vector + timestamp + presence byte. The presence bytes
// are always 1 for samples emitted by the pairing gate but stay in the
// record for readers that predate it.
const (
	imuRawMagic   = "IMURAW\x00\x00"
	imuRawVersion = 1
)

// IMUWriter appends paired inertial samples to an IMURAW file.
type IMUWriter struct {
	w     *bufio.Writer
	buf   leBuffer
	index uint32
}

// NewIMUWriter writes the file header and returns a sample writer.
func NewIMUWriter(w io.Writer, sampleRateHz int) (*IMUWriter, error) {
	iw := &IMUWriter{w: bufio.NewWriter(w)}
	iw.buf.raw([]byte(imuRawMagic))
	iw.buf.i32(imuRawVersion)
	iw.buf.i32(int32(sampleRateHz))
	if _, err := iw.w.Write(iw.buf.bytes()); err != nil {
		return nil, errors.Wrap(err, "imu header write failed")
	}
	return iw, nil
}

// WriteSample appends one sample, assigning it the next record index.
func (iw *IMUWriter) WriteSample(sample imu.Sample) error {
	iw.buf.reset()
	iw.buf.u32(iw.index)
	iw.buf.f32(float32(sample.Accel.X))
	iw.buf.f32(float32(sample.Accel.Y))
	iw.buf.f32(float32(sample.Accel.Z))
	iw.buf.i64(sample.AccelTimestampNs)
	iw.buf.boolByte(true)
	iw.buf.f32(float32(sample.Gyro.X))
	iw.buf.f32(float32(sample.Gyro.Y))
	iw.buf.f32(float32(sample.Gyro.Z))
	iw.buf.i64(sample.GyroTimestampNs)
	iw.buf.boolByte(true)
	if _, err := iw.w.Write(iw.buf.bytes()); err != nil {
		return errors.Wrap(err, "imu sample write failed")
	}
	iw.index++
	return nil
}

// Flush pushes buffered samples to the underlying writer.
func (iw *IMUWriter) Flush() error {
	return errors.Wrap(iw.w.Flush(), "imu flush failed")
}
