// Package headtracking queries the headset's 6DOF pose and tracking health.
package headtracking

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// PoseSample is one head pose pulled from a perception snapshot, together
// with the tracking health at query time.
type PoseSample struct {
	Pose        spatial.Pose
	TimestampNs int64
	Status      mlsdk.HeadStatus
	Confidence  float32
	ErrorFlags  uint32
}

// Tracker is the head tracking subsystem.
type Tracker struct {
	logger  golog.Logger
	backend mlsdk.HeadTracking
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	tracker mlsdk.HeadTracker
	token   *perception.Token
	cfuid   mlsdk.CFUID
}

// New returns an unconnected head tracker.
func New(backend mlsdk.HeadTracking, svc *perception.Service, logger golog.Logger) *Tracker {
	return &Tracker{logger: logger, backend: backend, svc: svc}
}

// Init creates the tracking session and caches the head coordinate frame
// UID. Calling Init while running is a no-op.
func (t *Tracker) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.logger.Info("already running")
		return nil
	}

	token, err := t.svc.Acquire()
	if err != nil {
		return err
	}
	tracker, err := t.backend.Create()
	if err != nil {
		token.Release()
		return errors.Wrap(err, "head tracker create failed")
	}
	cfuid, err := tracker.StaticData()
	if err != nil {
		if derr := tracker.Destroy(); derr != nil {
			t.logger.Errorw("head tracker destroy failed", "error", derr)
		}
		token.Release()
		return errors.Wrap(err, "head tracker static data failed")
	}

	t.tracker = tracker
	t.token = token
	t.cfuid = cfuid
	t.running = true
	return nil
}

// Pose looks the head up in a fresh perception snapshot and attaches the
// tracker's current health report. The result code distinguishes "not
// localized yet" from hard failures.
func (t *Tracker) Pose() (PoseSample, mlsdk.Result) {
	t.mu.Lock()
	tracker := t.tracker
	cfuid := t.cfuid
	running := t.running
	t.mu.Unlock()
	if !running {
		return PoseSample{}, mlsdk.ResultPerceptionSystemNotStarted
	}

	snap, err := t.svc.Snapshot()
	if err != nil {
		return PoseSample{}, mlsdk.ResultPerceptionSystemNotStarted
	}
	defer snap.Release()

	pose, res := snap.Transform(cfuid)
	if !res.Ok() {
		return PoseSample{}, res
	}
	sample := PoseSample{Pose: pose, TimestampNs: snap.TimestampNs()}
	if state, sres := tracker.StateEx(); sres.Ok() {
		sample.Status = state.Status
		sample.Confidence = state.Confidence
		sample.ErrorFlags = state.ErrorFlags
	}
	return sample, mlsdk.ResultOk
}

// State returns the raw tracking health report.
func (t *Tracker) State() (mlsdk.HeadState, mlsdk.Result) {
	t.mu.Lock()
	tracker := t.tracker
	running := t.running
	t.mu.Unlock()
	if !running {
		return mlsdk.HeadState{}, mlsdk.ResultPerceptionSystemNotStarted
	}
	return tracker.StateEx()
}

// MapEvents returns and clears the pending map event bitmask.
func (t *Tracker) MapEvents() (uint64, mlsdk.Result) {
	t.mu.Lock()
	tracker := t.tracker
	running := t.running
	t.mu.Unlock()
	if !running {
		return 0, mlsdk.ResultPerceptionSystemNotStarted
	}
	return tracker.MapEvents()
}

// BorrowHandle lends the underlying session handle to subsystems that need
// it, like CV camera pose tracking. The borrower must not destroy it, and
// must not outlive this tracker.
func (t *Tracker) BorrowHandle() mlsdk.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return mlsdk.InvalidHandle
	}
	return t.tracker.Handle()
}

// CFUID returns the head coordinate frame UID cached at Init.
func (t *Tracker) CFUID() mlsdk.CFUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfuid
}

// IsInitialized reports whether the session is live.
func (t *Tracker) IsInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Close destroys the session. Safe to call before Init and safe to call
// repeatedly. Borrowed handles become invalid.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	tracker, token := t.tracker, t.token
	t.tracker, t.token = nil, nil
	t.cfuid = mlsdk.CFUID{}
	t.mu.Unlock()

	err := tracker.Destroy()
	token.Release()
	return err
}
