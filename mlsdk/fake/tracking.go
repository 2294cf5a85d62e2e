package fake

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

// HeadTracking is an in-memory head tracking backend.
type HeadTracking struct {
	// CreateErr, when set, is returned by Create.
	CreateErr error

	// CFUID is handed to trackers as their static data.
	CFUID mlsdk.CFUID

	mu      sync.Mutex
	next    mlsdk.Handle
	tracker *HeadTracker
}

// Create implements mlsdk.HeadTracking.
func (t *HeadTracking) Create() (mlsdk.HeadTracker, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	t.next++
	t.tracker = &HeadTracker{
		handle: t.next,
		cfuid:  t.CFUID,
		state:  mlsdk.HeadState{Status: mlsdk.HeadStatusValid, Confidence: 1},
	}
	return t.tracker, nil
}

// Tracker returns the tracker from the most recent Create.
func (t *HeadTracking) Tracker() *HeadTracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracker
}

// HeadTracker is a settable head tracking session.
type HeadTracker struct {
	mu        sync.Mutex
	handle    mlsdk.Handle
	cfuid     mlsdk.CFUID
	state     mlsdk.HeadState
	mapEvents uint64
	destroyed bool
}

// SetState replaces the tracking health report.
func (t *HeadTracker) SetState(state mlsdk.HeadState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// AddMapEvents ORs bits into the pending event mask.
func (t *HeadTracker) AddMapEvents(mask uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mapEvents |= mask
}

// Handle implements mlsdk.HeadTracker.
func (t *HeadTracker) Handle() mlsdk.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return mlsdk.InvalidHandle
	}
	return t.handle
}

// StaticData implements mlsdk.HeadTracker.
func (t *HeadTracker) StaticData() (mlsdk.CFUID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return mlsdk.CFUID{}, errors.New("head tracker destroyed")
	}
	return t.cfuid, nil
}

// StateEx implements mlsdk.HeadTracker.
func (t *HeadTracker) StateEx() (mlsdk.HeadState, mlsdk.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return mlsdk.HeadState{}, mlsdk.ResultInvalidParam
	}
	return t.state, mlsdk.ResultOk
}

// MapEvents implements mlsdk.HeadTracker; reading clears the mask.
func (t *HeadTracker) MapEvents() (uint64, mlsdk.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return 0, mlsdk.ResultInvalidParam
	}
	mask := t.mapEvents
	t.mapEvents = 0
	return mask, mlsdk.ResultOk
}

// Destroy implements mlsdk.HeadTracker.
func (t *HeadTracker) Destroy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return errors.New("head tracker already destroyed")
	}
	t.destroyed = true
	return nil
}

// CVCameraTracking is an in-memory camera pose backend.
type CVCameraTracking struct {
	// CreateErr, when set, is returned by Create.
	CreateErr error

	mu      sync.Mutex
	tracker *CVCameraTracker
}

// Create implements mlsdk.CVCameraTracking.
func (t *CVCameraTracking) Create(headHandle mlsdk.Handle) (mlsdk.CVCameraTracker, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	if !headHandle.Valid() {
		return nil, errors.New("invalid head tracking handle")
	}
	t.tracker = &CVCameraTracker{poses: map[poseKey]spatial.Pose{}}
	return t.tracker, nil
}

// Tracker returns the tracker from the most recent Create.
func (t *CVCameraTracking) Tracker() *CVCameraTracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracker
}

type poseKey struct {
	camera mlsdk.CVCameraID
	ts     int64
}

// CVCameraTracker resolves poses registered with SetPose; any other
// camera/timestamp pair yields ResultPoseNotFound, like the service's short
// pose history.
type CVCameraTracker struct {
	mu        sync.Mutex
	poses     map[poseKey]spatial.Pose
	destroyed bool
}

// SetPose registers a pose for an exact camera/timestamp pair.
func (t *CVCameraTracker) SetPose(camera mlsdk.CVCameraID, timestampNs int64, pose spatial.Pose) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.poses[poseKey{camera, timestampNs}] = pose
}

// FramePose implements mlsdk.CVCameraTracker.
func (t *CVCameraTracker) FramePose(camera mlsdk.CVCameraID, timestampNs int64) (spatial.Pose, mlsdk.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return spatial.NewZeroPose(), mlsdk.ResultInvalidParam
	}
	pose, ok := t.poses[poseKey{camera, timestampNs}]
	if !ok {
		return spatial.NewZeroPose(), mlsdk.ResultPoseNotFound
	}
	return pose, mlsdk.ResultOk
}

// Destroy implements mlsdk.CVCameraTracker.
func (t *CVCameraTracker) Destroy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
	return nil
}

// EyeTracking is an in-memory eye tracking backend.
type EyeTracking struct {
	// CreateErr, when set, is returned by Create.
	CreateErr error

	// Static is handed to trackers as their static data.
	Static mlsdk.EyeStaticData

	mu      sync.Mutex
	tracker *EyeTracker
}

// Create implements mlsdk.EyeTracking.
func (t *EyeTracking) Create() (mlsdk.EyeTracker, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CreateErr != nil {
		return nil, t.CreateErr
	}
	t.tracker = &EyeTracker{static: t.Static}
	return t.tracker, nil
}

// Tracker returns the tracker from the most recent Create.
func (t *EyeTracking) Tracker() *EyeTracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracker
}

// EyeTracker is a settable eye tracking session.
type EyeTracker struct {
	mu        sync.Mutex
	static    mlsdk.EyeStaticData
	state     mlsdk.EyeState
	destroyed bool
}

// SetState replaces the gaze state sample.
func (t *EyeTracker) SetState(state mlsdk.EyeState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// StaticData implements mlsdk.EyeTracker.
func (t *EyeTracker) StaticData() (mlsdk.EyeStaticData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return mlsdk.EyeStaticData{}, errors.New("eye tracker destroyed")
	}
	return t.static, nil
}

// StateEx implements mlsdk.EyeTracker.
func (t *EyeTracker) StateEx() (mlsdk.EyeState, mlsdk.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return mlsdk.EyeState{}, mlsdk.ResultInvalidParam
	}
	return t.state, mlsdk.ResultOk
}

// Destroy implements mlsdk.EyeTracker.
func (t *EyeTracker) Destroy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
	return nil
}

// GazeRecognition is an in-memory gaze behavior backend.
type GazeRecognition struct {
	// CreateErr, when set, is returned by Create.
	CreateErr error

	// StaticErr, when set, is returned by the recognizer's StaticData.
	StaticErr error

	// Static is handed to recognizers as their static data.
	Static mlsdk.GazeRecognitionStaticData

	mu         sync.Mutex
	recognizer *GazeRecognizer
}

// Create implements mlsdk.GazeRecognition.
func (g *GazeRecognition) Create() (mlsdk.GazeRecognizer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.recognizer = &GazeRecognizer{static: g.Static, staticErr: g.StaticErr}
	return g.recognizer, nil
}

// Recognizer returns the recognizer from the most recent Create.
func (g *GazeRecognition) Recognizer() *GazeRecognizer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recognizer
}

// GazeRecognizer is a settable gaze behavior session.
type GazeRecognizer struct {
	mu        sync.Mutex
	static    mlsdk.GazeRecognitionStaticData
	staticErr error
	state     mlsdk.GazeRecognitionState
	stateRes  mlsdk.Result
	destroyed bool
}

// SetState replaces the behavior sample.
func (g *GazeRecognizer) SetState(state mlsdk.GazeRecognitionState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = state
}

// SetStateResult forces State to return the given result; ResultOk restores
// normal behavior.
func (g *GazeRecognizer) SetStateResult(res mlsdk.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stateRes = res
}

// StaticData implements mlsdk.GazeRecognizer.
func (g *GazeRecognizer) StaticData() (mlsdk.GazeRecognitionStaticData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return mlsdk.GazeRecognitionStaticData{}, errors.New("gaze recognizer destroyed")
	}
	if g.staticErr != nil {
		return mlsdk.GazeRecognitionStaticData{}, g.staticErr
	}
	return g.static, nil
}

// State implements mlsdk.GazeRecognizer.
func (g *GazeRecognizer) State() (mlsdk.GazeRecognitionState, mlsdk.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return mlsdk.GazeRecognitionState{}, mlsdk.ResultInvalidParam
	}
	if g.stateRes != mlsdk.ResultOk {
		return mlsdk.GazeRecognitionState{}, g.stateRes
	}
	return g.state, mlsdk.ResultOk
}

// Destroy implements mlsdk.GazeRecognizer.
func (g *GazeRecognizer) Destroy() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyed = true
	return nil
}
