package worldcam

import (
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

func newSource(t *testing.T, cam *fake.WorldCamera) *Source {
	t.Helper()
	logger := golog.NewTestLogger(t)
	return New(cam, perception.NewService(fake.NewPerception(), logger), logger)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 400; i++ {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}

func TestInitNarrowsAllToCenter(t *testing.T) {
	cam := &fake.WorldCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.WorldCamAll}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	test.That(t, src.ActiveCameras(), test.ShouldEqual, mlsdk.WorldCamCenter)
	attempts := cam.ConnectAttempts()
	test.That(t, attempts, test.ShouldHaveLength, 1)
	test.That(t, attempts[0].Cameras, test.ShouldEqual, mlsdk.WorldCamCenter)
}

func TestInitRetriesLeftWhenCenterFails(t *testing.T) {
	cam := &fake.WorldCamera{FailCenter: true}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	test.That(t, src.ActiveCameras(), test.ShouldEqual, mlsdk.WorldCamLeft)
	attempts := cam.ConnectAttempts()
	test.That(t, attempts, test.ShouldHaveLength, 2)
	test.That(t, attempts[0].Cameras, test.ShouldEqual, mlsdk.WorldCamCenter)
	test.That(t, attempts[1].Cameras, test.ShouldEqual, mlsdk.WorldCamLeft)
}

func TestNoRetryForExplicitCamera(t *testing.T) {
	cam := &fake.WorldCamera{ConnectErr: mlsdk.ErrTimeout}
	src := newSource(t, cam)
	err := src.Init(Config{Cameras: mlsdk.WorldCamRight})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, cam.ConnectAttempts(), test.ShouldHaveLength, 1)
}

func TestFrameReadConsumes(t *testing.T) {
	cam := &fake.WorldCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.WorldCamLeft | mlsdk.WorldCamRight}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	cam.Stream().Push(&mlsdk.WorldCamData{Frames: []mlsdk.WorldCamFrame{
		{
			CameraID:    mlsdk.WorldCamLeft,
			FrameNumber: 10,
			TimestampNs: 100,
			Buffer:      mlsdk.FrameBuffer{Width: 2, Height: 2, Stride: 2, BytesPerUnit: 1, Data: []byte{1, 2, 3, 4}},
		},
		{
			CameraID:    mlsdk.WorldCamRight,
			FrameNumber: 11,
			TimestampNs: 101,
			Buffer:      mlsdk.FrameBuffer{Width: 2, Height: 2, Stride: 2, BytesPerUnit: 1, Data: []byte{5, 6, 7, 8}},
		},
	}})
	waitFor(t, func() bool { return src.FramesReceived() == 2 })

	buf := make([]byte, 8)
	info, n, ok := src.TryGetLatestFrame(mlsdk.WorldCamLeft, buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 4)
	test.That(t, info.FrameNumber, test.ShouldEqual, 10)
	test.That(t, info.CaptureTimeNs, test.ShouldEqual, 100)

	// consumed; polling again reports nothing new
	_, _, ok = src.TryGetLatestFrame(mlsdk.WorldCamLeft, buf)
	test.That(t, ok, test.ShouldBeFalse)

	// the other camera's frame is independent
	test.That(t, src.HasNewFrame(mlsdk.WorldCamRight), test.ShouldBeTrue)
	_, _, ok = src.TryGetLatestFrame(mlsdk.WorldCamRight, buf)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestDroppedFrameCounter(t *testing.T) {
	cam := &fake.WorldCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.WorldCamLeft}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	frame := func(num int64) *mlsdk.WorldCamData {
		return &mlsdk.WorldCamData{Frames: []mlsdk.WorldCamFrame{{
			CameraID:    mlsdk.WorldCamLeft,
			FrameNumber: num,
			Buffer:      mlsdk.FrameBuffer{Width: 1, Height: 1, Stride: 1, BytesPerUnit: 1, Data: []byte{1}},
		}}}
	}
	cam.Stream().Push(frame(1))
	cam.Stream().Push(frame(2))
	waitFor(t, func() bool { return src.FramesReceived() == 2 })

	// second publish overwrote the unread first
	test.That(t, src.FramesDropped(), test.ShouldEqual, 1)

	buf := make([]byte, 2)
	info, _, ok := src.TryGetLatestFrame(mlsdk.WorldCamLeft, buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, info.FrameNumber, test.ShouldEqual, 2)
}

func TestCloseBeforeInit(t *testing.T) {
	src := newSource(t, &fake.WorldCamera{})
	test.That(t, src.Close(), test.ShouldBeNil)
	test.That(t, src.IsInitialized(), test.ShouldBeFalse)
}
