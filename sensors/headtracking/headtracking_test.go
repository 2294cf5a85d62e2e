package headtracking

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

var headCFUID = mlsdk.CFUID{0xAA, 1}

func newTracker(t *testing.T) (*Tracker, *fake.HeadTracking, *fake.Perception) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	tracking := &fake.HeadTracking{CFUID: headCFUID}
	return New(tracking, perception.NewService(backend, logger), logger), tracking, backend
}

func TestPoseFromSnapshot(t *testing.T) {
	tracker, tracking, backend := newTracker(t)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	want := spatial.NewPose(r3.Vector{X: 0.5, Z: -1}, quat.Number{Real: 1})
	backend.SetTransform(headCFUID, want)
	backend.SetSnapshotTimestamp(4242)
	tracking.Tracker().SetState(mlsdk.HeadState{
		Status:     mlsdk.HeadStatusValid,
		Confidence: 0.9,
		ErrorFlags: mlsdk.HeadErrorLowLight,
	})

	sample, res := tracker.Pose()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, sample.Pose, test.ShouldResemble, want)
	test.That(t, sample.TimestampNs, test.ShouldEqual, 4242)
	test.That(t, sample.Status, test.ShouldEqual, mlsdk.HeadStatusValid)
	test.That(t, sample.Confidence, test.ShouldEqual, float32(0.9))
	test.That(t, sample.ErrorFlags, test.ShouldEqual, mlsdk.HeadErrorLowLight)
}

func TestPoseNotFound(t *testing.T) {
	tracker, _, _ := newTracker(t)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	// no transform registered for the head frame
	_, res := tracker.Pose()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPoseNotFound)
}

func TestPoseBeforeInit(t *testing.T) {
	tracker, _, _ := newTracker(t)
	_, res := tracker.Pose()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultPerceptionSystemNotStarted)
}

func TestMapEventsClearOnRead(t *testing.T) {
	tracker, tracking, _ := newTracker(t)
	test.That(t, tracker.Init(), test.ShouldBeNil)
	defer func() { test.That(t, tracker.Close(), test.ShouldBeNil) }()

	tracking.Tracker().AddMapEvents(mlsdk.HeadMapEventLost | mlsdk.HeadMapEventRecovered)

	mask, res := tracker.MapEvents()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, mask, test.ShouldEqual, mlsdk.HeadMapEventLost|mlsdk.HeadMapEventRecovered)

	mask, res = tracker.MapEvents()
	test.That(t, res, test.ShouldEqual, mlsdk.ResultOk)
	test.That(t, mask, test.ShouldEqual, 0)
}

func TestBorrowHandleLifecycle(t *testing.T) {
	tracker, _, _ := newTracker(t)
	test.That(t, tracker.BorrowHandle().Valid(), test.ShouldBeFalse)

	test.That(t, tracker.Init(), test.ShouldBeNil)
	handle := tracker.BorrowHandle()
	test.That(t, handle.Valid(), test.ShouldBeTrue)
	test.That(t, tracker.CFUID(), test.ShouldEqual, headCFUID)

	test.That(t, tracker.Close(), test.ShouldBeNil)
	test.That(t, tracker.BorrowHandle().Valid(), test.ShouldBeFalse)
}

func TestCloseBeforeInit(t *testing.T) {
	tracker, _, backend := newTracker(t)
	test.That(t, tracker.Close(), test.ShouldBeNil)
	test.That(t, backend.Started(), test.ShouldBeFalse)
}
