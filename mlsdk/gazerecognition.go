package mlsdk

// GazeBehavior classifies what the eyes are doing in a sample.
type GazeBehavior int32

// Gaze behaviors.
const (
	GazeBehaviorUnknown GazeBehavior = iota
	GazeBehaviorEyesClosed
	GazeBehaviorBlink
	GazeBehaviorFixation
	GazeBehaviorPursuit
	GazeBehaviorSaccade
	GazeBehaviorBlinkLeft
	GazeBehaviorBlinkRight
)

// String returns the behavior name.
func (b GazeBehavior) String() string {
	switch b {
	case GazeBehaviorEyesClosed:
		return "eyes_closed"
	case GazeBehaviorBlink:
		return "blink"
	case GazeBehaviorFixation:
		return "fixation"
	case GazeBehaviorPursuit:
		return "pursuit"
	case GazeBehaviorSaccade:
		return "saccade"
	case GazeBehaviorBlinkLeft:
		return "blink_left"
	case GazeBehaviorBlinkRight:
		return "blink_right"
	default:
		return "unknown"
	}
}

// GazeRecognitionStaticData gives the extents of the normalized eye
// coordinate space that GazeRecognitionState positions are reported in.
type GazeRecognitionStaticData struct {
	EyeHeightMax float32
	EyeWidthMax  float32
}

// GazeRecognitionState is one behavior classification sample. Eye positions
// are in the normalized space described by the static data; the movement
// metrics describe the behavior event in progress.
type GazeRecognitionState struct {
	TimestampNs int64
	Behavior    GazeBehavior

	EyeLeftX  float32
	EyeLeftY  float32
	EyeRightX float32
	EyeRightY float32

	OnsetS             float32
	DurationS          float32
	VelocityDegPerSec  float32
	AmplitudeDeg       float32
	DirectionRadialDeg float32

	Error int32
}

// GazeRecognition creates gaze behavior recognizers.
type GazeRecognition interface {
	Create() (GazeRecognizer, error)
}

// GazeRecognizer is a live gaze behavior session.
type GazeRecognizer interface {
	StaticData() (GazeRecognitionStaticData, error)
	State() (GazeRecognitionState, Result)
	Destroy() error
}
