// Package perception manages the process-wide perception service lifetime.
//
// The backend must be started before any sensor subsystem connects and torn
// down only when the last one releases it. Rather than a file-scoped
// singleton, the reference count lives on an injectable Service so tests
// can run independent instances side by side.
package perception

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
)

// Service reference-counts a perception backend. The first Acquire starts
// it; releasing the last token shuts it down.
type Service struct {
	mu      sync.Mutex
	backend mlsdk.Perception
	refs    int
	logger  golog.Logger
}

// NewService wraps a backend. The backend is not started until the first
// Acquire.
func NewService(backend mlsdk.Perception, logger golog.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// Token is one subsystem's claim on the running service. Release it exactly
// once; extra releases are ignored.
type Token struct {
	mu       sync.Mutex
	svc      *Service
	released bool
}

// Acquire starts the backend if this is the first claim and returns a
// lifetime token. On startup failure no reference is retained.
func (s *Service) Acquire() (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		if err := s.backend.Startup(); err != nil {
			return nil, errors.Wrap(err, "perception startup failed")
		}
		s.logger.Info("perception started")
	}
	s.refs++
	return &Token{svc: s}, nil
}

// Release gives up the claim, shutting the backend down if it was the last.
func (t *Token) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.svc.release()
}

func (s *Service) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	if err := s.backend.Shutdown(); err != nil {
		s.logger.Errorw("perception shutdown failed", "error", err)
		return
	}
	s.logger.Info("perception shutdown")
}

// Started reports whether the backend is currently running.
func (s *Service) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs > 0
}

// Snapshot captures the current coordinate-frame state. It fails if nothing
// holds the service open.
func (s *Service) Snapshot() (mlsdk.Snapshot, error) {
	s.mu.Lock()
	running := s.refs > 0
	s.mu.Unlock()
	if !running {
		return nil, errors.New("perception not started")
	}
	return s.backend.Snapshot()
}
