package mlsdk

import "github.com/golang/geo/r3"

// SensorType identifies an OS sensor event stream. The IMU arrives through
// the OS event queue, not the perception service.
type SensorType int32

// Sensor types.
const (
	SensorAccelerometer SensorType = 1
	SensorGyroscope     SensorType = 4
)

// SensorEvent is one reading from one sensor.
type SensorEvent struct {
	Type        SensorType
	Value       r3.Vector
	TimestampNs int64
}

// SensorEventHandler receives events on the queue's own context; it must
// return promptly.
type SensorEventHandler func(SensorEvent)

// SensorEventQueue is the OS-level event queue delivering accelerometer and
// gyroscope readings at a requested rate.
type SensorEventQueue interface {
	// Start enables the sensors at sampleRateHz and begins delivering
	// events to handler. Only one Start may be active at a time.
	Start(sampleRateHz int, handler SensorEventHandler) error

	// Stop disables the sensors and stops delivery. After Stop returns, no
	// further handler calls are made.
	Stop() error
}
