package mlsdk

import "time"

// WorldCamMask selects which of the three world cameras to stream.
type WorldCamMask uint32

// World camera identifiers.
const (
	WorldCamLeft   WorldCamMask = 1 << 0
	WorldCamRight  WorldCamMask = 1 << 1
	WorldCamCenter WorldCamMask = 1 << 2
	WorldCamAll                 = WorldCamLeft | WorldCamRight | WorldCamCenter
)

// WorldCamMode selects the exposure program.
type WorldCamMode uint32

// World camera modes.
const (
	WorldCamModeNormalExposure WorldCamMode = iota
	WorldCamModeLowExposure
)

// WorldCamSettings is the connect request for world cameras.
type WorldCamSettings struct {
	Cameras WorldCamMask
	Mode    WorldCamMode
}

// WorldCamFrame is one frame from one world camera.
type WorldCamFrame struct {
	CameraID    WorldCamMask
	FrameType   int32
	FrameNumber int64
	TimestampNs int64
	Buffer      FrameBuffer
}

// WorldCamData is the unit returned by one fetch; the service may bundle
// frames from several cameras.
type WorldCamData struct {
	Frames []WorldCamFrame
}

// WorldCamera connects world camera streams.
type WorldCamera interface {
	Connect(settings WorldCamSettings) (WorldCamStream, error)
}

// WorldCamStream is a connected set of world cameras.
type WorldCamStream interface {
	GetLatestFrames(timeout time.Duration) (*WorldCamData, error)
	Close() error
}

// EyeCamMask selects which eye cameras to stream.
type EyeCamMask uint32

// Eye camera identifiers.
const (
	EyeCamLeftTemple  EyeCamMask = 1 << 0
	EyeCamLeftNasal   EyeCamMask = 1 << 1
	EyeCamRightNasal  EyeCamMask = 1 << 2
	EyeCamRightTemple EyeCamMask = 1 << 3
)

// EyeCamName returns a human name for a single-camera mask value.
func EyeCamName(id EyeCamMask) string {
	switch id {
	case EyeCamLeftTemple:
		return "LeftTemple"
	case EyeCamLeftNasal:
		return "LeftNasal"
	case EyeCamRightNasal:
		return "RightNasal"
	case EyeCamRightTemple:
		return "RightTemple"
	default:
		return "Unknown"
	}
}

// EyeCamSettings is the connect request for eye cameras.
type EyeCamSettings struct {
	Cameras EyeCamMask
}

// EyeCamFrame is one frame from one eye camera. FrameNumber is monotonic
// per camera and is how consumers detect new frames without re-copying.
type EyeCamFrame struct {
	CameraID    EyeCamMask
	FrameNumber int64
	TimestampNs int64
	Buffer      FrameBuffer
}

// EyeCamData is the unit returned by one fetch.
type EyeCamData struct {
	Frames []EyeCamFrame
}

// EyeCamera connects eye camera streams.
type EyeCamera interface {
	Connect(settings EyeCamSettings) (EyeCamStream, error)
}

// EyeCamStream is a connected set of eye cameras.
type EyeCamStream interface {
	GetLatestCameraData(timeout time.Duration) (*EyeCamData, error)
	Close() error
}

// RGBCaptureType distinguishes video from still capture.
type RGBCaptureType uint32

// RGB capture types.
const (
	RGBCaptureTypeVideo RGBCaptureType = iota
	RGBCaptureTypeImage
)

// RGBOutputFormat is the pixel format of delivered frames.
type RGBOutputFormat uint32

// RGB output formats.
const (
	RGBOutputYUV420 RGBOutputFormat = iota
	RGBOutputJPEG
	RGBOutputRGBA
)

// RGBCaptureConfig describes one capture stream.
type RGBCaptureConfig struct {
	CaptureType RGBCaptureType
	Width       int32
	Height      int32
	Format      RGBOutputFormat
	FrameRate   int32
}

// RGBPlane is one plane of an RGB camera output buffer.
type RGBPlane struct {
	Width  int32
	Height int32
	Stride int32
	Data   []byte
}

// RGBOutput is one delivered frame. VCamTimestampNs is the device-clock
// capture time used to correlate the frame with a camera pose.
type RGBOutput struct {
	Planes          []RGBPlane
	Format          RGBOutputFormat
	VCamTimestampNs int64
}

// RGBFrameHandler receives frames on the backend's delivery context. It must
// copy what it keeps before returning.
type RGBFrameHandler func(RGBOutput)

// RGBCamera connects the main color camera.
type RGBCamera interface {
	Connect() (RGBSession, error)
}

// RGBSession is a connected color camera. Frames are pushed via callback
// rather than pulled, unlike the other cameras.
type RGBSession interface {
	PrepareCapture(cfg RGBCaptureConfig) error
	StartVideo(handler RGBFrameHandler) error
	StopVideo() error
	Close() error
}
