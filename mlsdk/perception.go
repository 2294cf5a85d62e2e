package mlsdk

import "github.com/ali867auckland/MagicLeap2SensorReading/spatial"

// Perception is the process-wide perception backend. It must be started
// before any tracker or camera connects, and torn down only after the last
// one disconnects; the perception package layers reference counting on top.
type Perception interface {
	// Startup brings the perception system up. Calling it while already
	// started is an error at this layer.
	Startup() error

	// Shutdown tears the perception system down.
	Shutdown() error

	// Snapshot captures a consistent view of all tracked coordinate frames.
	// The caller must Release it when done.
	Snapshot() (Snapshot, error)
}

// Snapshot resolves coordinate frame UIDs to transforms at a single instant.
type Snapshot interface {
	// Transform returns the pose of the given coordinate frame. Poses are
	// cached only briefly by the service; a UID or timestamp the service no
	// longer knows yields ResultPoseNotFound.
	Transform(cfuid CFUID) (spatial.Pose, Result)

	// TimestampNs is the device-clock time the snapshot was taken, or 0 if
	// the backend cannot report one.
	TimestampNs() int64

	// Release frees the snapshot.
	Release()
}
