// Package anchors manages spatial anchors with a local mirror of the
// service-side list.
//
// The service owns the anchors; the mirror exists so distance queries do not
// round-trip per anchor, and is refreshed wholesale from the service when
// anchors may have been created out of band.
package anchors

import (
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/headtracking"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

const (
	// DefaultAutoCreateDistance is the auto-create spacing when none is given.
	DefaultAutoCreateDistance = 2.0

	// MaxAnchors caps how many anchors this session will create. The service
	// degrades well before unbounded growth.
	MaxAnchors = 64
)

// Manager is the spatial anchor subsystem.
type Manager struct {
	logger  golog.Logger
	backend mlsdk.AnchorTracking
	svc     *perception.Service
	head    *headtracking.Tracker

	mu      sync.Mutex
	running bool
	session mlsdk.AnchorSession
	token   *perception.Token

	cache map[uuid.UUID]mlsdk.Anchor

	autoCreate         bool
	autoCreateDistance float64
}

// New returns an unconnected anchor manager. head may be nil; auto-create is
// then unavailable.
func New(backend mlsdk.AnchorTracking, svc *perception.Service, head *headtracking.Tracker, logger golog.Logger) *Manager {
	return &Manager{logger: logger, backend: backend, svc: svc, head: head}
}

// Init creates the session and loads the service-side anchor list into the
// mirror. Calling Init while running is a no-op.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.logger.Info("already running")
		return nil
	}

	token, err := m.svc.Acquire()
	if err != nil {
		return err
	}
	session, err := m.backend.Create()
	if err != nil {
		token.Release()
		return errors.Wrap(err, "anchor session create failed")
	}
	existing, err := session.List()
	if err != nil {
		if derr := session.Destroy(); derr != nil {
			m.logger.Errorw("anchor session destroy failed", "error", derr)
		}
		token.Release()
		return errors.Wrap(err, "anchor list failed")
	}

	m.cache = make(map[uuid.UUID]mlsdk.Anchor, len(existing))
	for _, a := range existing {
		m.cache[a.ID] = a
	}
	m.session = session
	m.token = token
	m.autoCreateDistance = DefaultAutoCreateDistance
	m.running = true
	return nil
}

// Create places an anchor at the given pose and mirrors it locally.
func (m *Manager) Create(pose spatial.Pose) (uuid.UUID, mlsdk.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return uuid.UUID{}, mlsdk.ResultPerceptionSystemNotStarted
	}
	if len(m.cache) >= MaxAnchors {
		m.logger.Warnf("anchor limit of %d reached; refusing create", MaxAnchors)
		return uuid.UUID{}, mlsdk.ResultUnspecifiedFailure
	}
	anchor, res := m.session.CreateAnchor(pose)
	if !res.Ok() {
		return uuid.UUID{}, res
	}
	m.cache[anchor.ID] = anchor
	m.logger.Debugf("anchor %s created", anchor.ID)
	return anchor.ID, mlsdk.ResultOk
}

// Delete removes an anchor from the service and the mirror. Deleting an
// unknown ID is reported by the service, not masked locally.
func (m *Manager) Delete(id uuid.UUID) mlsdk.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return mlsdk.ResultPerceptionSystemNotStarted
	}
	res := m.session.DeleteAnchor(id)
	if res.Ok() {
		delete(m.cache, id)
	}
	return res
}

// PoseOf resolves one anchor's current pose from a perception snapshot.
func (m *Manager) PoseOf(id uuid.UUID) (spatial.Pose, mlsdk.Result) {
	m.mu.Lock()
	anchor, known := m.cache[id]
	running := m.running
	m.mu.Unlock()
	if !running {
		return spatial.NewZeroPose(), mlsdk.ResultPerceptionSystemNotStarted
	}
	if !known {
		return spatial.NewZeroPose(), mlsdk.ResultInvalidParam
	}

	snap, err := m.svc.Snapshot()
	if err != nil {
		return spatial.NewZeroPose(), mlsdk.ResultPerceptionSystemNotStarted
	}
	defer snap.Release()
	return snap.Transform(anchor.CFUID)
}

// GetAll returns a copy of the mirrored anchor list.
func (m *Manager) GetAll() []mlsdk.Anchor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mlsdk.Anchor, 0, len(m.cache))
	for _, a := range m.cache {
		out = append(out, a)
	}
	return out
}

// Count returns the number of mirrored anchors.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// RefreshAnchorList replaces the mirror with the service's current list,
// picking up anchors created by other processes.
func (m *Manager) RefreshAnchorList() error {
	m.mu.Lock()
	session := m.session
	running := m.running
	m.mu.Unlock()
	if !running {
		return errors.New("anchor session not initialized")
	}

	anchors, err := session.List()
	if err != nil {
		return errors.Wrap(err, "anchor list failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[uuid.UUID]mlsdk.Anchor, len(anchors))
	for _, a := range anchors {
		m.cache[a.ID] = a
	}
	return nil
}

// DistanceToNearest scans the mirror for the anchor closest to point. All
// anchor poses come from a single snapshot so distances are mutually
// consistent. Returns false when no anchor resolves.
func (m *Manager) DistanceToNearest(point r3.Vector) (float64, uuid.UUID, bool) {
	m.mu.Lock()
	anchors := make([]mlsdk.Anchor, 0, len(m.cache))
	for _, a := range m.cache {
		anchors = append(anchors, a)
	}
	running := m.running
	m.mu.Unlock()
	if !running || len(anchors) == 0 {
		return 0, uuid.UUID{}, false
	}

	snap, err := m.svc.Snapshot()
	if err != nil {
		return 0, uuid.UUID{}, false
	}
	defer snap.Release()

	best := math.MaxFloat64
	var bestID uuid.UUID
	found := false
	for _, a := range anchors {
		pose, res := snap.Transform(a.CFUID)
		if !res.Ok() {
			continue
		}
		if d := pose.Position.Sub(point).Norm(); d < best {
			best = d
			bestID = a.ID
			found = true
		}
	}
	if !found {
		return 0, uuid.UUID{}, false
	}
	return best, bestID, true
}

// SetAutoCreate enables dropping an anchor wherever the head wanders farther
// than distance from every existing anchor. A non-positive distance keeps
// the previous value.
func (m *Manager) SetAutoCreate(enabled bool, distance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoCreate = enabled
	if distance > 0 {
		m.autoCreateDistance = distance
	}
}

// Update runs one auto-create check against the current head pose. It
// reports whether an anchor was created.
func (m *Manager) Update() bool {
	m.mu.Lock()
	enabled := m.running && m.autoCreate
	threshold := m.autoCreateDistance
	m.mu.Unlock()
	if !enabled || m.head == nil || !m.head.IsInitialized() {
		return false
	}

	sample, res := m.head.Pose()
	if !res.Ok() {
		return false
	}
	if dist, _, ok := m.DistanceToNearest(sample.Pose.Position); ok && dist < threshold {
		return false
	}
	id, cres := m.Create(sample.Pose)
	if !cres.Ok() {
		m.logger.Debugw("auto-create anchor failed", "result", cres.String())
		return false
	}
	m.logger.Infof("auto-created anchor %s", id)
	return true
}

// IsInitialized reports whether the session is live.
func (m *Manager) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Close destroys the session and drops the mirror. Safe to call before Init
// and safe to call repeatedly.
func (m *Manager) Close() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	session, token := m.session, m.token
	m.session, m.token = nil, nil
	m.cache = nil
	m.mu.Unlock()

	err := session.Destroy()
	token.Release()
	return err
}
