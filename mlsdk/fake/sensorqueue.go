package fake

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
)

// SensorEventQueue is an in-memory OS sensor queue; tests inject events with
// Emit or the EmitPair helper.
type SensorEventQueue struct {
	// StartErr, when set, is returned by Start.
	StartErr error

	mu      sync.Mutex
	rate    int
	handler mlsdk.SensorEventHandler
	started bool
}

// Start implements mlsdk.SensorEventQueue.
func (q *SensorEventQueue) Start(sampleRateHz int, handler mlsdk.SensorEventHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.StartErr != nil {
		return q.StartErr
	}
	if q.started {
		return errors.New("sensor queue already started")
	}
	q.rate = sampleRateHz
	q.handler = handler
	q.started = true
	return nil
}

// Stop implements mlsdk.SensorEventQueue.
func (q *SensorEventQueue) Stop() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.started = false
	q.handler = nil
	return nil
}

// Emit delivers one event to the registered handler.
func (q *SensorEventQueue) Emit(ev mlsdk.SensorEvent) {
	q.mu.Lock()
	handler := q.handler
	q.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}

// EmitPair delivers an accelerometer and a gyroscope event sharing one
// timestamp, completing exactly one sample downstream.
func (q *SensorEventQueue) EmitPair(accel, gyro r3.Vector, timestampNs int64) {
	q.Emit(mlsdk.SensorEvent{Type: mlsdk.SensorAccelerometer, Value: accel, TimestampNs: timestampNs})
	q.Emit(mlsdk.SensorEvent{Type: mlsdk.SensorGyroscope, Value: gyro, TimestampNs: timestampNs})
}

// SampleRate returns the rate of the most recent Start.
func (q *SensorEventQueue) SampleRate() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rate
}

// Started reports whether delivery is active.
func (q *SensorEventQueue) Started() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.started
}
