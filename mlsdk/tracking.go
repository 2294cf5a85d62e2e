package mlsdk

import "github.com/ali867auckland/MagicLeap2SensorReading/spatial"

// HeadStatus is the coarse head-tracking state.
type HeadStatus uint32

// Head tracking statuses.
const (
	HeadStatusInvalid HeadStatus = iota
	HeadStatusValid
)

// Head tracking error flags (bitmask).
const (
	HeadErrorNone              uint32 = 0
	HeadErrorUnknown           uint32 = 1 << 0
	HeadErrorNotEnoughFeatures uint32 = 1 << 1
	HeadErrorLowLight          uint32 = 1 << 2
	HeadErrorExcessiveMotion   uint32 = 1 << 3
)

// Head tracking map events (bitmask).
const (
	HeadMapEventLost           uint64 = 1 << 0
	HeadMapEventRecovered      uint64 = 1 << 1
	HeadMapEventRecoveryFailed uint64 = 1 << 2
	HeadMapEventNewSession     uint64 = 1 << 3
)

// HeadState is the tracking quality report.
type HeadState struct {
	Status     HeadStatus
	Confidence float32
	ErrorFlags uint32
}

// HeadTracking creates head trackers.
type HeadTracking interface {
	Create() (HeadTracker, error)
}

// HeadTracker is a live head-tracking session. Its Handle may be lent to a
// CV camera tracker, which borrows but never owns it.
type HeadTracker interface {
	Handle() Handle

	// StaticData returns the coordinate frame UID for the head, used to pull
	// head poses out of perception snapshots.
	StaticData() (CFUID, error)

	StateEx() (HeadState, Result)

	// MapEvents returns and clears the pending map event bitmask.
	MapEvents() (uint64, Result)

	Destroy() error
}

// CVCameraID names a camera whose pose can be queried.
type CVCameraID uint32

// CV camera identifiers.
const (
	CVCameraColor CVCameraID = iota
	CVCameraLeftWorld
	CVCameraRightWorld
	CVCameraCenterWorld
)

// CVCameraTracking creates CV camera trackers. Create fails if the borrowed
// head-tracking handle is invalid; querying poses without a live
// head-tracking session is undefined.
type CVCameraTracking interface {
	Create(headHandle Handle) (CVCameraTracker, error)
}

// CVCameraTracker answers "where was this camera at time t". Timestamps must
// come from captured frames; the service caches poses only briefly, so
// querying with wall-clock times degrades to ResultPoseNotFound.
type CVCameraTracker interface {
	FramePose(camera CVCameraID, timestampNs int64) (spatial.Pose, Result)
	Destroy() error
}

// EyeStaticData carries the coordinate frame UIDs for gaze queries.
type EyeStaticData struct {
	Vergence    CFUID
	LeftCenter  CFUID
	RightCenter CFUID
}

// EyeState is one gaze state sample.
type EyeState struct {
	TimestampNs           int64
	VergenceConfidence    float32
	LeftCenterConfidence  float32
	RightCenterConfidence float32
	LeftBlink             bool
	RightBlink            bool
	LeftEyeOpenness       float32
	RightEyeOpenness      float32
	Error                 int32
}

// EyeTracking creates eye trackers.
type EyeTracking interface {
	Create() (EyeTracker, error)
}

// EyeTracker is a live eye-tracking session.
type EyeTracker interface {
	StaticData() (EyeStaticData, error)
	StateEx() (EyeState, Result)
	Destroy() error
}
