// Package eyetracking queries gaze poses and eye state.
package eyetracking

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// GazeSample is one combined gaze reading: the vergence point, both eye
// centers, and per-eye state. Poses whose coordinate frame could not be
// resolved are flagged invalid individually; a sample with a valid left eye
// and an unresolved right eye is still useful.
type GazeSample struct {
	TimestampNs int64

	Vergence      spatial.Pose
	VergenceValid bool
	GazeDirection r3.Vector

	LeftCenter       spatial.Pose
	LeftCenterValid  bool
	RightCenter      spatial.Pose
	RightCenterValid bool

	VergenceConfidence    float32
	LeftCenterConfidence  float32
	RightCenterConfidence float32
	LeftBlink             bool
	RightBlink            bool
	LeftEyeOpenness       float32
	RightEyeOpenness      float32
}

// Tracker is the eye tracking subsystem.
type Tracker struct {
	logger  golog.Logger
	backend mlsdk.EyeTracking
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	tracker mlsdk.EyeTracker
	token   *perception.Token
	static  mlsdk.EyeStaticData
}

// New returns an unconnected eye tracker.
func New(backend mlsdk.EyeTracking, svc *perception.Service, logger golog.Logger) *Tracker {
	return &Tracker{logger: logger, backend: backend, svc: svc}
}

// Init creates the tracking session and caches the gaze coordinate frame
// UIDs. Calling Init while running is a no-op.
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
		return errors.Wrap(err, "eye tracker create failed")
	}
	static, err := tracker.StaticData()
	if err != nil {
		if derr := tracker.Destroy(); derr != nil {
			t.logger.Errorw("eye tracker destroy failed", "error", derr)
		}
		token.Release()
		return errors.Wrap(err, "eye tracker static data failed")
	}

	t.tracker = tracker
	t.token = token
	t.static = static
	t.running = true
	return nil
}

// Gaze pulls the current gaze poses from a fresh perception snapshot and the
// per-eye state from the tracker. A sample is returned even when only some
// coordinate frames resolve; the individual Valid flags say which.
func (t *Tracker) Gaze() (GazeSample, mlsdk.Result) {
	t.mu.Lock()
	tracker := t.tracker
	static := t.static
	running := t.running
	t.mu.Unlock()
	if !running {
		return GazeSample{}, mlsdk.ResultPerceptionSystemNotStarted
	}

	state, res := tracker.StateEx()
	if !res.Ok() {
		return GazeSample{}, res
	}

	snap, err := t.svc.Snapshot()
	if err != nil {
		return GazeSample{}, mlsdk.ResultPerceptionSystemNotStarted
	}
	defer snap.Release()

	sample := GazeSample{
		TimestampNs:           state.TimestampNs,
		VergenceConfidence:    state.VergenceConfidence,
		LeftCenterConfidence:  state.LeftCenterConfidence,
		RightCenterConfidence: state.RightCenterConfidence,
		LeftBlink:             state.LeftBlink,
		RightBlink:            state.RightBlink,
		LeftEyeOpenness:       state.LeftEyeOpenness,
		RightEyeOpenness:      state.RightEyeOpenness,
	}
	if pose, pres := snap.Transform(static.Vergence); pres.Ok() {
		sample.Vergence = pose
		sample.VergenceValid = true
		sample.GazeDirection = spatial.Forward(pose.Rotation)
	}
	if pose, pres := snap.Transform(static.LeftCenter); pres.Ok() {
		sample.LeftCenter = pose
		sample.LeftCenterValid = true
	}
	if pose, pres := snap.Transform(static.RightCenter); pres.Ok() {
		sample.RightCenter = pose
		sample.RightCenterValid = true
	}
	return sample, mlsdk.ResultOk
}

// IsInitialized reports whether the session is live.
func (t *Tracker) IsInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Close destroys the session. Safe to call before Init and safe to call
// repeatedly.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	tracker, token := t.tracker, t.token
	t.tracker, t.token = nil, nil
	t.static = mlsdk.EyeStaticData{}
	t.mu.Unlock()

	err := tracker.Destroy()
	token.Release()
	return err
}
