// Package cvpose answers "where was this camera when it captured that
// frame". It rides on a head-tracking session whose handle it borrows but
// never owns.
package cvpose

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// Tracker is the CV camera pose subsystem.
type Tracker struct {
	logger  golog.Logger
	backend mlsdk.CVCameraTracking
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	tracker mlsdk.CVCameraTracker
	token   *perception.Token
}

// New returns an unconnected CV pose tracker.
func New(backend mlsdk.CVCameraTracking, svc *perception.Service, logger golog.Logger) *Tracker {
	return &Tracker{logger: logger, backend: backend, svc: svc}
}

// Init creates the session against a borrowed head-tracking handle. An
// invalid handle fails immediately rather than producing a session that
// returns garbage poses.
func (t *Tracker) Init(headHandle mlsdk.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.logger.Info("already running")
		return nil
	}
	if !headHandle.Valid() {
		return errors.New("cv pose requires a live head tracking session")
	}

	token, err := t.svc.Acquire()
	if err != nil {
		return err
	}
	tracker, err := t.backend.Create(headHandle)
	if err != nil {
		token.Release()
		return errors.Wrap(err, "cv camera tracker create failed")
	}

	t.tracker = tracker
	t.token = token
	t.running = true
	return nil
}

// PoseAt returns a camera's pose at a capture timestamp. Timestamps must come
// from delivered frames; the service keeps only a short pose history, so a
// stale or wall-clock timestamp yields ResultPoseNotFound.
func (t *Tracker) PoseAt(camera mlsdk.CVCameraID, timestampNs int64) (spatial.Pose, mlsdk.Result) {
	t.mu.Lock()
	tracker := t.tracker
	running := t.running
	t.mu.Unlock()
	if !running {
		return spatial.NewZeroPose(), mlsdk.ResultPerceptionSystemNotStarted
	}
	return tracker.FramePose(camera, timestampNs)
}

// IsInitialized reports whether the session is live.
func (t *Tracker) IsInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Close destroys the session. The borrowed head handle is left alone. Safe
// to call before Init and safe to call repeatedly.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	tracker, token := t.tracker, t.token
	t.tracker, t.token = nil, nil
	t.mu.Unlock()

	err := tracker.Destroy()
	token.Release()
	return err
}
