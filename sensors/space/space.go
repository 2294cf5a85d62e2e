// Package space tracks which mapped space the device is localized into.
package space

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// Tracker is the space localization subsystem.
type Tracker struct {
	logger  golog.Logger
	backend mlsdk.SpaceManager
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	session mlsdk.SpaceSession
	token   *perception.Token
}

// New returns an unconnected space tracker.
func New(backend mlsdk.SpaceManager, svc *perception.Service, logger golog.Logger) *Tracker {
	return &Tracker{logger: logger, backend: backend, svc: svc}
}

// Init creates the session. Calling Init while running is a no-op.
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
	session, err := t.backend.Create()
	if err != nil {
		token.Release()
		return errors.Wrap(err, "space session create failed")
	}

	t.session = session
	t.token = token
	t.running = true
	return nil
}

func (t *Tracker) liveSession() (mlsdk.SpaceSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session, t.running
}

// Localization returns the current localization state.
func (t *Tracker) Localization() (mlsdk.LocalizationResult, mlsdk.Result) {
	session, ok := t.liveSession()
	if !ok {
		return mlsdk.LocalizationResult{}, mlsdk.ResultPerceptionSystemNotStarted
	}
	return session.LocalizationResult()
}

// Spaces lists the spaces known to the device.
func (t *Tracker) Spaces() ([]mlsdk.Space, error) {
	session, ok := t.liveSession()
	if !ok {
		return nil, errors.New("space session not initialized")
	}
	return session.SpaceList()
}

// RequestLocalization asks the device to localize into the given space.
// Localization is asynchronous; poll Localization for the outcome.
func (t *Tracker) RequestLocalization(id uuid.UUID) error {
	session, ok := t.liveSession()
	if !ok {
		return errors.New("space session not initialized")
	}
	if err := session.RequestLocalization(id); err != nil {
		return errors.Wrapf(err, "localization request failed (space %s)", id)
	}
	t.logger.Infof("localization requested into space %s", id)
	return nil
}

// OriginPose resolves the localized space's origin in the current perception
// snapshot. It fails with ResultPoseNotFound until the device is localized.
func (t *Tracker) OriginPose() (spatial.Pose, mlsdk.Result) {
	session, ok := t.liveSession()
	if !ok {
		return spatial.NewZeroPose(), mlsdk.ResultPerceptionSystemNotStarted
	}
	loc, res := session.LocalizationResult()
	if !res.Ok() {
		return spatial.NewZeroPose(), res
	}
	if loc.Status != mlsdk.LocalizationLocalized || loc.TargetSpaceOrigin.IsZero() {
		return spatial.NewZeroPose(), mlsdk.ResultPoseNotFound
	}

	snap, err := t.svc.Snapshot()
	if err != nil {
		return spatial.NewZeroPose(), mlsdk.ResultPerceptionSystemNotStarted
	}
	defer snap.Release()
	return snap.Transform(loc.TargetSpaceOrigin)
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
	session, token := t.session, t.token
	t.session, t.token = nil, nil
	t.mu.Unlock()

	err := session.Destroy()
	token.Release()
	return err
}
