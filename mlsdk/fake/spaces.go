package fake

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// SpaceManager is an in-memory space backend.
type SpaceManager struct {
	// CreateErr, when set, is returned by Create.
	CreateErr error

	// Spaces is the list handed to sessions.
	Spaces []mlsdk.Space

	mu      sync.Mutex
	session *SpaceSession
}

// Create implements mlsdk.SpaceManager.
func (m *SpaceManager) Create() (mlsdk.SpaceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.session = &SpaceSession{
		spaces: append([]mlsdk.Space(nil), m.Spaces...),
		loc:    mlsdk.LocalizationResult{Status: mlsdk.LocalizationNotLocalized},
	}
	return m.session, nil
}

// Session returns the session from the most recent Create.
func (m *SpaceManager) Session() *SpaceSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// SpaceSession is a settable localization session. RequestLocalization
// localizes immediately into the requested space when it is known.
type SpaceSession struct {
	mu        sync.Mutex
	spaces    []mlsdk.Space
	loc       mlsdk.LocalizationResult
	requests  []uuid.UUID
	destroyed bool
}

// SetLocalization replaces the reported localization state.
func (s *SpaceSession) SetLocalization(loc mlsdk.LocalizationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
}

// Requests returns every space ID RequestLocalization was called with.
func (s *SpaceSession) Requests() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.requests))
	copy(out, s.requests)
	return out
}

// LocalizationResult implements mlsdk.SpaceSession.
func (s *SpaceSession) LocalizationResult() (mlsdk.LocalizationResult, mlsdk.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return mlsdk.LocalizationResult{}, mlsdk.ResultInvalidParam
	}
	return s.loc, mlsdk.ResultOk
}

// SpaceList implements mlsdk.SpaceSession.
func (s *SpaceSession) SpaceList() ([]mlsdk.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, errors.New("space session destroyed")
	}
	return append([]mlsdk.Space(nil), s.spaces...), nil
}

// RequestLocalization implements mlsdk.SpaceSession.
func (s *SpaceSession) RequestLocalization(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return errors.New("space session destroyed")
	}
	s.requests = append(s.requests, id)
	for _, sp := range s.spaces {
		if sp.ID == id {
			s.loc = mlsdk.LocalizationResult{
				Status:            mlsdk.LocalizationLocalized,
				Space:             sp,
				TargetSpaceOrigin: mlsdk.CFUIDFromUUID(sp.ID),
			}
			return nil
		}
	}
	s.loc = mlsdk.LocalizationResult{Status: mlsdk.LocalizationPending}
	return nil
}

// Destroy implements mlsdk.SpaceSession.
func (s *SpaceSession) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	return nil
}

// AnchorTracking is an in-memory anchor backend. Created anchors register
// their coordinate frames in the linked Perception so PoseOf resolves.
type AnchorTracking struct {
	// CreateErr, when set, is returned by Create.
	CreateErr error

	// Perception, when set, receives each created anchor's transform.
	Perception *Perception

	// Existing anchors are present in every session this backend creates.
	Existing []mlsdk.Anchor

	mu      sync.Mutex
	session *AnchorSession
}

// Create implements mlsdk.AnchorTracking.
func (t *AnchorTracking) Create() (mlsdk.AnchorSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	anchors := make(map[uuid.UUID]mlsdk.Anchor, len(t.Existing))
	for _, a := range t.Existing {
		anchors[a.ID] = a
	}
	t.session = &AnchorSession{
		perception: t.Perception,
		anchors:    anchors,
	}
	return t.session, nil
}

// Session returns the session from the most recent Create.
func (t *AnchorTracking) Session() *AnchorSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// AnchorSession is a settable anchor session.
type AnchorSession struct {
	// CreateResult, when not Ok, fails CreateAnchor.
	CreateResult mlsdk.Result

	perception *Perception

	mu        sync.Mutex
	anchors   map[uuid.UUID]mlsdk.Anchor
	destroyed bool
}

// Seed installs an anchor as if another process created it, registering its
// transform when a Perception is linked.
func (s *AnchorSession) Seed(anchor mlsdk.Anchor, pose spatial.Pose) {
	s.mu.Lock()
	s.anchors[anchor.ID] = anchor
	s.mu.Unlock()
	if s.perception != nil {
		s.perception.SetTransform(anchor.CFUID, pose)
	}
}

// CreateAnchor implements mlsdk.AnchorSession.
func (s *AnchorSession) CreateAnchor(pose spatial.Pose) (mlsdk.Anchor, mlsdk.Result) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return mlsdk.Anchor{}, mlsdk.ResultInvalidParam
	}
	if s.CreateResult != mlsdk.ResultOk {
		res := s.CreateResult
		s.mu.Unlock()
		return mlsdk.Anchor{}, res
	}
	id := uuid.New()
	anchor := mlsdk.Anchor{ID: id, CFUID: mlsdk.CFUIDFromUUID(id)}
	s.anchors[id] = anchor
	s.mu.Unlock()

	if s.perception != nil {
		s.perception.SetTransform(anchor.CFUID, pose)
	}
	return anchor, mlsdk.ResultOk
}

// DeleteAnchor implements mlsdk.AnchorSession.
func (s *AnchorSession) DeleteAnchor(id uuid.UUID) mlsdk.Result {
	s.mu.Lock()
	anchor, ok := s.anchors[id]
	if !ok {
		s.mu.Unlock()
		return mlsdk.ResultInvalidParam
	}
	delete(s.anchors, id)
	s.mu.Unlock()

	if s.perception != nil {
		s.perception.RemoveTransform(anchor.CFUID)
	}
	return mlsdk.ResultOk
}

// List implements mlsdk.AnchorSession.
func (s *AnchorSession) List() ([]mlsdk.Anchor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, errors.New("anchor session destroyed")
	}
	out := make([]mlsdk.Anchor, 0, len(s.anchors))
	for _, a := range s.anchors {
		out = append(out, a)
	}
	return out, nil
}

// Destroy implements mlsdk.AnchorSession.
func (s *AnchorSession) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	return nil
}
