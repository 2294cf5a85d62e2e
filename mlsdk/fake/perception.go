// Package fake provides in-memory mlsdk backends for tests and for running
// the capture daemon off-device. Every knob is an exported field; set them
// before handing the fake to the code under test.
package fake

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// Perception is an in-memory perception backend.
type Perception struct {
	// StartupErr, when set, is returned by Startup.
	StartupErr error

	mu          sync.Mutex
	started     bool
	startups    int
	shutdowns   int
	transforms  map[mlsdk.CFUID]spatial.Pose
	snapshotTs  int64
	snapshotErr error
}

// NewPerception returns a backend with no known coordinate frames.
func NewPerception() *Perception {
	return &Perception{transforms: map[mlsdk.CFUID]spatial.Pose{}}
}

// SetTransform makes a coordinate frame resolvable in future snapshots.
func (p *Perception) SetTransform(cfuid mlsdk.CFUID, pose spatial.Pose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transforms[cfuid] = pose
}

// RemoveTransform makes a coordinate frame unresolvable again.
func (p *Perception) RemoveTransform(cfuid mlsdk.CFUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.transforms, cfuid)
}

// SetSnapshotTimestamp fixes the timestamp reported by future snapshots.
func (p *Perception) SetSnapshotTimestamp(ts int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshotTs = ts
}

// Startup implements mlsdk.Perception.
func (p *Perception) Startup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StartupErr != nil {
		return p.StartupErr
	}
	if p.started {
		return errors.New("perception already started")
	}
	p.started = true
	p.startups++
	return nil
}

// Shutdown implements mlsdk.Perception.
func (p *Perception) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("perception not started")
	}
	p.started = false
	p.shutdowns++
	return nil
}

// Snapshot implements mlsdk.Perception. The snapshot holds a copy of the
// transform table, so later SetTransform calls do not leak into it.
func (p *Perception) Snapshot() (mlsdk.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil, errors.New("perception not started")
	}
	if p.snapshotErr != nil {
		return nil, p.snapshotErr
	}
	transforms := make(map[mlsdk.CFUID]spatial.Pose, len(p.transforms))
	for k, v := range p.transforms {
		transforms[k] = v
	}
	return &snapshot{transforms: transforms, ts: p.snapshotTs}, nil
}

// Started reports the backend state.
func (p *Perception) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Startups returns how many times Startup succeeded.
func (p *Perception) Startups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startups
}

// Shutdowns returns how many times Shutdown succeeded.
func (p *Perception) Shutdowns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdowns
}

type snapshot struct {
	transforms map[mlsdk.CFUID]spatial.Pose
	ts         int64
	released   bool
}

func (s *snapshot) Transform(cfuid mlsdk.CFUID) (spatial.Pose, mlsdk.Result) {
	pose, ok := s.transforms[cfuid]
	if !ok {
		return spatial.NewZeroPose(), mlsdk.ResultPoseNotFound
	}
	return pose, mlsdk.ResultOk
}

func (s *snapshot) TimestampNs() int64 { return s.ts }

func (s *snapshot) Release() { s.released = true }
