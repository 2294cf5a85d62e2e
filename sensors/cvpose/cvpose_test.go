package cvpose

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

func newTracker(t *testing.T) (*Tracker, *fake.CVCameraTracking) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	backend := &fake.CVCameraTracking{}
	return New(backend, perception.NewService(fake.NewPerception(), logger), logger), backend
}

func TestInitRejectsInvalidHandle(t *testing.T) {
	tracker, _ := newTracker(t)
	test.That(t, tracker.Init(mlsdk.InvalidHandle), test.ShouldNotBeNil)
	test.That(t, tracker.Init(0), test.ShouldNotBeNil)
	test.That(t, tracker.IsInitialized(), test.ShouldBeFalse)
}

func TestPoseAtExactTimestamp(t *testing.T) {
	tracker, backend := newTracker(t)
	test.That(t, tracker.Init(mlsdk.Handle(7)), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	want := spatial.NewPose(r3.Vector{X: 1}, quat.Number{Real: 1})
	backend.Tracker().SetPose(mlsdk.CVCameraColor, 1000, want)

	pose, res := tracker.PoseAt(mlsdk.CVCameraColor, 1000)
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, pose, test.ShouldResemble, want)

	// the service keeps no history beyond what was registered
	_, res = tracker.PoseAt(mlsdk.CVCameraColor, 1001)
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPoseNotFound)
	_, res = tracker.PoseAt(mlsdk.CVCameraLeftWorld, 1000)
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPoseNotFound)
}

func TestPoseAtBeforeInit(t *testing.T) {
	tracker, _ := newTracker(t)
	_, res := tracker.PoseAt(mlsdk.CVCameraColor, 1)
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPerceptionSystemNotStarted)
}

func TestCloseBeforeInit(t *testing.T) {
	tracker, _ := newTracker(t)
	test.That(t, tracker.Close(), test.ShouldBeNil)
	test.That(t, tracker.Close(), test.ShouldBeNil)
}
