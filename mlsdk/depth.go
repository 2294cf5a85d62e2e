package mlsdk

import "time"

// DepthStreamMask selects which depth range(s) to run. The hardware can run
// only one range at a time; connecting with both bits set is rejected by the
// service in ways that corrupt silently, so callers must collapse the mask
// before connecting.
type DepthStreamMask uint32

// Depth stream bits.
const (
	DepthStreamLongRange  DepthStreamMask = 1 << 0
	DepthStreamShortRange DepthStreamMask = 1 << 1
)

// DepthFlags gates which output channels the service produces per frame.
type DepthFlags uint32

// Depth channel flags.
const (
	DepthFlagDepthImage           DepthFlags = 1 << 0
	DepthFlagConfidence           DepthFlags = 1 << 1
	DepthFlagDepthFlags           DepthFlags = 1 << 2
	DepthFlagAmbientRawDepthImage DepthFlags = 1 << 3
	DepthFlagRawDepthImage        DepthFlags = 1 << 4
)

// Has reports whether all bits of other are set in f.
func (f DepthFlags) Has(other DepthFlags) bool { return f&other == other }

// DepthFrameRate enumerates the service's supported capture rates.
type DepthFrameRate uint32

// Depth frame rates. Long range supports only 1 and 5 FPS; short range
// supports 5 and up.
const (
	DepthFrameRate1FPS DepthFrameRate = iota
	DepthFrameRate5FPS
	DepthFrameRate25FPS
	DepthFrameRate50FPS
	DepthFrameRate60FPS
)

// FPS returns the nominal frames per second for the enum value.
func (r DepthFrameRate) FPS() int {
	switch r {
	case DepthFrameRate1FPS:
		return 1
	case DepthFrameRate5FPS:
		return 5
	case DepthFrameRate25FPS:
		return 25
	case DepthFrameRate50FPS:
		return 50
	case DepthFrameRate60FPS:
		return 60
	default:
		return 0
	}
}

// DepthSettings is the immutable-after-connect stream request.
type DepthSettings struct {
	Streams    DepthStreamMask
	Flags      DepthFlags
	FrameRate  DepthFrameRate
	ExposureUs uint32
}

// DepthFrame is one capture: up to five planes sharing a timestamp. Planes
// not enabled by the connect flags are nil.
type DepthFrame struct {
	TimestampNs     int64
	Depth           *FrameBuffer
	Confidence      *FrameBuffer
	Flags           *FrameBuffer
	RawDepth        *FrameBuffer
	AmbientRawDepth *FrameBuffer
}

// DepthData is the unit returned by one fetch.
type DepthData struct {
	Frames []DepthFrame
}

// DepthCamera connects depth streams.
type DepthCamera interface {
	Connect(settings DepthSettings) (DepthStream, error)
}

// DepthStream is a connected depth camera.
type DepthStream interface {
	// GetLatestDepthData blocks up to timeout for the next frame. Returns
	// ErrTimeout when none arrived in the window.
	GetLatestDepthData(timeout time.Duration) (*DepthData, error)

	Close() error
}
