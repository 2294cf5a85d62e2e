package gazerecognition

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

var errTest = errors.New("service unavailable")

func newTracker(t *testing.T, logger golog.Logger, recognition *fake.GazeRecognition) *Tracker {
	t.Helper()
	return New(recognition, perception.NewService(fake.NewPerception(), logger), logger)
}

func TestLatestReportsBehavior(t *testing.T) {
	recognition := &fake.GazeRecognition{
		Static: mlsdk.GazeRecognitionStaticData{EyeHeightMax: 10, EyeWidthMax: 15},
	}
	tracker := newTracker(t, golog.NewTestLogger(t), recognition)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	recognition.Recognizer().SetState(mlsdk.GazeRecognitionState{
		TimestampNs:        700,
		Behavior:           mlsdk.GazeBehaviorSaccade,
		EyeLeftX:           1.5,
		EyeRightY:          -2.5,
		OnsetS:             0.1,
		DurationS:          0.04,
		VelocityDegPerSec:  300,
		AmplitudeDeg:       12,
		DirectionRadialDeg: 90,
	})

	state, res := tracker.Latest()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, state.TimestampNs, test.ShouldEqual, 700)
	test.That(t, state.Behavior, test.ShouldEqual, mlsdk.GazeBehaviorSaccade)
	test.That(t, state.Behavior.String(), test.ShouldEqual, "saccade")
	test.That(t, state.EyeLeftX, test.ShouldEqual, float32(1.5))
	test.That(t, state.VelocityDegPerSec, test.ShouldEqual, float32(300))

	static, ok := tracker.StaticData()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, static.EyeWidthMax, test.ShouldEqual, float32(15))
	test.That(t, tracker.SampleCount(), test.ShouldEqual, 1)
}

func TestStaticDataOptional(t *testing.T) {
	recognition := &fake.GazeRecognition{StaticErr: errTest}
	tracker := newTracker(t, golog.NewTestLogger(t), recognition)

	// static data failing does not fail Init
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	_, ok := tracker.StaticData()
	test.That(t, ok, test.ShouldBeFalse)

	_, res := tracker.Latest()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
}

func TestStateErrorLoggingIsBounded(t *testing.T) {
	logger, logs := golog.NewObservedTestLogger(t)
	recognition := &fake.GazeRecognition{}
	tracker := newTracker(t, logger, recognition)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	recognition.Recognizer().SetStateResult(mlsdk.ResultUnspecifiedFailure)
	for i := 0; i < 20; i++ {
		_, res := tracker.Latest()
		test.That(t, res, test.ShouldEqual, mlsdk.ResultUnspecifiedFailure)
	}
	test.That(t, logs.FilterMessageSnippet("state fetch failed").Len(),
		test.ShouldEqual, maxLoggedStateErrors)
	test.That(t, logs.FilterMessageSnippet("suppressing").Len(), test.ShouldEqual, 1)
	test.That(t, tracker.SampleCount(), test.ShouldEqual, 0)

	// recovery still counts samples
	recognition.Recognizer().SetStateResult(mlsdk.ResultOk)
	_, res := tracker.Latest()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, tracker.SampleCount(), test.ShouldEqual, 1)
}

func TestLatestBeforeInit(t *testing.T) {
	tracker := newTracker(t, golog.NewTestLogger(t), &fake.GazeRecognition{})
	_, res := tracker.Latest()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPerceptionSystemNotStarted)
}

func TestCloseBeforeInit(t *testing.T) {
	tracker := newTracker(t, golog.NewTestLogger(t), &fake.GazeRecognition{})
	test.That(t, tracker.Close(), test.ShouldBeNil)
}
