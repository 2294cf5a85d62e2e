package rgbcam

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/cvpose"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/headtracking"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

type fixture struct {
	src     *Source
	cam     *fake.RGBCamera
	poses   *cvpose.Tracker
	tracker *fake.CVCameraTracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := golog.NewTestLogger(t)
	svc := perception.NewService(fake.NewPerception(), logger)

	headBackend := &fake.HeadTracking{CFUID: mlsdk.CFUID{1}}
	head := headtracking.New(headBackend, svc, logger)
	test.That(t, head.Init(), test.ShouldBeNil)
	t.Cleanup(func() { test.That(t, head.Close(), test.ShouldBeNil) })

	cvBackend := &fake.CVCameraTracking{}
	poses := cvpose.New(cvBackend, svc, logger)
	test.That(t, poses.Init(head.BorrowHandle()), test.ShouldBeNil)
	t.Cleanup(func() { test.That(t, poses.Close(), test.ShouldBeNil) })

	cam := &fake.RGBCamera{}
	return &fixture{
		src:     New(cam, poses, svc, logger),
		cam:     cam,
		poses:   poses,
		tracker: cvBackend.Tracker(),
	}
}

func videoConfig() Config {
	return Config{CaptureType: mlsdk.RGBCaptureTypeVideo, Width: 640, Height: 480, Format: mlsdk.RGBOutputYUV420, FrameRate: 30}
}

func oneFrame(ts int64) mlsdk.RGBOutput {
	return mlsdk.RGBOutput{
		Planes: []mlsdk.RGBPlane{
			{Width: 4, Height: 1, Stride: 4, Data: []byte{1, 2, 3, 4}},
			{Width: 2, Height: 1, Stride: 2, Data: []byte{5, 6}},
		},
		Format:          mlsdk.RGBOutputYUV420,
		VCamTimestampNs: ts,
	}
}

func TestFrameDeliveryWithPose(t *testing.T) {
	f := newFixture(t)
	test.That(t, f.src.Init(videoConfig()), test.ShouldBeNil)
	defer func() { test.That(t, f.src.Close(), test.ShouldBeNil) }()
	test.That(t, f.src.StartCapture(), test.ShouldBeNil)

	want := spatial.NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, quat.Number{Real: 1})
	f.tracker.SetPose(mlsdk.CVCameraColor, 500, want)
	f.cam.Session().Deliver(oneFrame(500))

	buf := make([]byte, 16)
	info, n, ok := f.src.TryGetLatestFrame(buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 6)
	test.That(t, buf[:6], test.ShouldResemble, []byte{1, 2, 3, 4, 5, 6})
	test.That(t, info.PlaneCount, test.ShouldEqual, 2)
	test.That(t, info.Planes[1].Offset, test.ShouldEqual, 4)
	test.That(t, info.Planes[1].Size, test.ShouldEqual, 2)
	test.That(t, info.VCamTimestampNs, test.ShouldEqual, 500)
	test.That(t, info.PoseValid, test.ShouldBeTrue)
	test.That(t, info.Pose, test.ShouldResemble, want)

	// reads consume
	_, _, ok = f.src.TryGetLatestFrame(buf)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestMissingPoseIsFlaggedNotFaked(t *testing.T) {
	f := newFixture(t)
	test.That(t, f.src.Init(videoConfig()), test.ShouldBeNil)
	defer func() { test.That(t, f.src.Close(), test.ShouldBeNil) }()
	test.That(t, f.src.StartCapture(), test.ShouldBeNil)

	// no pose registered for this timestamp
	f.cam.Session().Deliver(oneFrame(123))

	buf := make([]byte, 16)
	info, _, ok := f.src.TryGetLatestFrame(buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, info.PoseValid, test.ShouldBeFalse)
	test.That(t, f.src.PosesMissed(), test.ShouldEqual, 1)
}

func TestStartStopCapture(t *testing.T) {
	f := newFixture(t)
	test.That(t, f.src.Init(videoConfig()), test.ShouldBeNil)
	defer func() { test.That(t, f.src.Close(), test.ShouldBeNil) }()

	test.That(t, f.src.IsCapturing(), test.ShouldBeFalse)
	test.That(t, f.src.StartCapture(), test.ShouldBeNil)
	test.That(t, f.src.IsCapturing(), test.ShouldBeTrue)
	// idempotent
	test.That(t, f.src.StartCapture(), test.ShouldBeNil)

	test.That(t, f.src.StopCapture(), test.ShouldBeNil)
	test.That(t, f.src.IsCapturing(), test.ShouldBeFalse)

	// frames delivered after stop are dropped by the session
	f.cam.Session().Deliver(oneFrame(1))
	test.That(t, f.src.FramesReceived(), test.ShouldEqual, 0)
}

func TestPrepareFailureCleansUp(t *testing.T) {
	logger := golog.NewTestLogger(t)
	backend := fake.NewPerception()
	svc := perception.NewService(backend, logger)
	cam := &fake.RGBCamera{PrepareErr: mlsdk.ErrTimeout}
	src := New(cam, nil, svc, logger)

	err := src.Init(videoConfig())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, src.IsInitialized(), test.ShouldBeFalse)
	test.That(t, svc.Started(), test.ShouldBeFalse)
}

func TestNilPoseTracker(t *testing.T) {
	logger := golog.NewTestLogger(t)
	svc := perception.NewService(fake.NewPerception(), logger)
	cam := &fake.RGBCamera{}
	src := New(cam, nil, svc, logger)
	test.That(t, src.Init(videoConfig()), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()
	test.That(t, src.StartCapture(), test.ShouldBeNil)

	cam.Session().Deliver(oneFrame(9))
	info, _, ok := src.TryGetLatestFrame(make([]byte, 16))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, info.PoseValid, test.ShouldBeFalse)
	// without a tracker nothing is counted as missed
	test.That(t, src.PosesMissed(), test.ShouldEqual, 0)
}

func TestCloseBeforeInit(t *testing.T) {
	f := newFixture(t)
	test.That(t, f.src.Close(), test.ShouldBeNil)
}
