// Package gazerecognition classifies gaze behavior: fixations, pursuits,
// saccades, and blinks.
package gazerecognition

import (
	"sync"
	"sync/atomic"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

// State fetch failures tend to repeat at the query rate, so only the first
// few are logged.
const maxLoggedStateErrors = 5

// Tracker is the gaze behavior recognition subsystem.
type Tracker struct {
	logger  golog.Logger
	backend mlsdk.GazeRecognition
	svc     *perception.Service

	mu         sync.Mutex
	running    bool
	recognizer mlsdk.GazeRecognizer
	token      *perception.Token
	static     mlsdk.GazeRecognitionStaticData
	hasStatic  bool

	samples     atomic.Int64
	stateErrors atomic.Int64
}

// New returns an unconnected gaze behavior tracker.
func New(backend mlsdk.GazeRecognition, svc *perception.Service, logger golog.Logger) *Tracker {
	return &Tracker{logger: logger, backend: backend, svc: svc}
}

// Init creates the recognition session. Static data describes the normalized
// eye coordinate space and is optional; a fetch failure is logged and queries
// proceed without it. Calling Init while running is a no-op.
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
	recognizer, err := t.backend.Create()
	if err != nil {
		token.Release()
		return errors.Wrap(err, "gaze recognition create failed")
	}
	static, err := recognizer.StaticData()
	if err != nil {
		t.logger.Warnw("gaze recognition static data unavailable", "error", err)
	}

	t.recognizer = recognizer
	t.token = token
	t.static = static
	t.hasStatic = err == nil
	t.running = true
	return nil
}

// Latest pulls the current behavior sample. Fetch failures increment the
// error counter; logging stops after the first few since a broken session
// fails every query the same way.
func (t *Tracker) Latest() (mlsdk.GazeRecognitionState, mlsdk.Result) {
	t.mu.Lock()
	recognizer := t.recognizer
	running := t.running
	t.mu.Unlock()
	if !running {
		return mlsdk.GazeRecognitionState{}, mlsdk.ResultPerceptionSystemNotStarted
	}

	state, res := recognizer.State()
	if !res.Ok() {
		if n := t.stateErrors.Add(1); n <= maxLoggedStateErrors {
			t.logger.Errorw("gaze recognition state fetch failed", "result", res)
			if n == maxLoggedStateErrors {
				t.logger.Error("suppressing further gaze recognition state errors")
			}
		}
		return mlsdk.GazeRecognitionState{}, res
	}
	t.samples.Add(1)
	return state, mlsdk.ResultOk
}

// StaticData returns the normalized eye space extents, and whether they were
// available when the session was created.
func (t *Tracker) StaticData() (mlsdk.GazeRecognitionStaticData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.static, t.hasStatic
}

// SampleCount returns how many samples have been fetched successfully.
func (t *Tracker) SampleCount() int64 {
	return t.samples.Load()
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
	recognizer, token := t.recognizer, t.token
	t.recognizer, t.token = nil, nil
	t.static = mlsdk.GazeRecognitionStaticData{}
	t.hasStatic = false
	t.mu.Unlock()

	err := recognizer.Destroy()
	token.Release()
	return err
}
