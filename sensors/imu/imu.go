// Package imu pairs accelerometer and gyroscope events into complete
// inertial samples.
//
// The sensor queue delivers accelerometer and gyroscope readings as separate
// events. A sample is complete only once one of each has arrived; a second
// reading of the same kind before the pair closes simply replaces the first.
// Complete samples go to both a latest-sample slot and a fixed ring so a
// slow consumer can drain a burst without losing order.
package imu

import (
	"sync"
	"sync/atomic"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/ali867auckland/MagicLeap2SensorReading/capture"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
)

const (
	// DefaultSampleRateHz is used when the config leaves the rate zero.
	DefaultSampleRateHz = 200

	// BufferCapacity is the ring size. At the default rate this is about ten
	// seconds of samples.
	BufferCapacity = 2048
)

// Sample is one paired inertial reading. TimestampNs is the timestamp of
// whichever event completed the pair.
type Sample struct {
	TimestampNs      int64
	Accel            r3.Vector
	AccelTimestampNs int64
	Gyro             r3.Vector
	GyroTimestampNs  int64
}

// Config selects the sample rate.
type Config struct {
	SampleRateHz int
}

// Validate rejects a negative sample rate; zero selects the default.
func (cfg *Config) Validate(path string) error {
	if cfg.SampleRateHz < 0 {
		return goutils.NewConfigValidationError(path, errors.New("sample_rate_hz must be non-negative"))
	}
	return nil
}

// Source is the IMU subsystem.
type Source struct {
	logger  golog.Logger
	backend mlsdk.SensorEventQueue

	mu      sync.Mutex
	running bool

	pendingMu sync.Mutex
	pending   Sample
	hasAccel  bool
	hasGyro   bool

	latestMu  sync.Mutex
	latest    Sample
	hasLatest bool

	ring *capture.Ring[Sample]

	eventsReceived   atomic.Int64
	samplesCompleted atomic.Int64
	samplesDropped   atomic.Int64
}

// New returns an unstarted IMU source.
func New(backend mlsdk.SensorEventQueue, logger golog.Logger) *Source {
	return &Source{
		logger:  logger,
		backend: backend,
		ring:    capture.NewRing[Sample](BufferCapacity),
	}
}

// Init starts event delivery. The IMU does not touch the perception service;
// inertial data flows even before any spatial tracking is up.
func (s *Source) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("already running")
		return nil
	}
	if err := cfg.Validate("imu"); err != nil {
		return err
	}

	rate := cfg.SampleRateHz
	if rate <= 0 {
		rate = DefaultSampleRateHz
	}
	if err := s.backend.Start(rate, s.onEvent); err != nil {
		return errors.Wrapf(err, "sensor queue start failed (%dHz)", rate)
	}
	s.running = true
	return nil
}

// onEvent folds one raw event into the pending pair and emits a complete
// sample when both halves are present.
func (s *Source) onEvent(ev mlsdk.SensorEvent) {
	s.eventsReceived.Add(1)

	s.pendingMu.Lock()
	switch ev.Type {
	case mlsdk.SensorAccelerometer:
		s.pending.Accel = ev.Value
		s.pending.AccelTimestampNs = ev.TimestampNs
		s.hasAccel = true
	case mlsdk.SensorGyroscope:
		s.pending.Gyro = ev.Value
		s.pending.GyroTimestampNs = ev.TimestampNs
		s.hasGyro = true
	default:
		s.pendingMu.Unlock()
		return
	}
	if !s.hasAccel || !s.hasGyro {
		s.pendingMu.Unlock()
		return
	}
	sample := s.pending
	sample.TimestampNs = ev.TimestampNs
	s.hasAccel, s.hasGyro = false, false
	s.pendingMu.Unlock()

	s.latestMu.Lock()
	s.latest = sample
	s.hasLatest = true
	s.latestMu.Unlock()

	if s.ring.Len() == s.ring.Cap() {
		s.samplesDropped.Add(1)
	}
	s.ring.Push(sample)
	s.samplesCompleted.Add(1)
}

// TryGetLatest returns the newest complete sample and consumes it; a second
// call before the next pair completes reports no data.
func (s *Source) TryGetLatest() (Sample, bool) {
	s.latestMu.Lock()
	defer s.latestMu.Unlock()
	if !s.hasLatest {
		return Sample{}, false
	}
	s.hasLatest = false
	return s.latest, true
}

// GetBuffered drains up to max samples from the ring, oldest first. Drained
// samples are gone; nothing is returned twice.
func (s *Source) GetBuffered(max int) []Sample {
	return s.ring.Drain(max)
}

// BufferedCount returns how many samples are waiting in the ring.
func (s *Source) BufferedCount() int { return s.ring.Len() }

// EventsReceived returns the raw event count since Init.
func (s *Source) EventsReceived() int64 { return s.eventsReceived.Load() }

// SamplesCompleted returns how many full accel+gyro pairs have been emitted.
func (s *Source) SamplesCompleted() int64 { return s.samplesCompleted.Load() }

// SamplesDropped returns how many ring entries were overwritten unread.
func (s *Source) SamplesDropped() int64 { return s.samplesDropped.Load() }

// IsInitialized reports whether event delivery is active.
func (s *Source) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops event delivery and clears all buffered samples. Safe to call
// before Init and safe to call repeatedly.
func (s *Source) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	err := s.backend.Stop()

	s.pendingMu.Lock()
	s.pending = Sample{}
	s.hasAccel, s.hasGyro = false, false
	s.pendingMu.Unlock()

	s.latestMu.Lock()
	s.latest = Sample{}
	s.hasLatest = false
	s.latestMu.Unlock()

	s.ring.Reset()
	return err
}
