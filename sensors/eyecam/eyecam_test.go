package eyecam

import (
	"sync"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

func newSource(t *testing.T, cam *fake.EyeCamera) *Source {
	t.Helper()
	logger := golog.NewTestLogger(t)
	return New(cam, perception.NewService(fake.NewPerception(), logger), logger)
}

func frame(id mlsdk.EyeCamMask, num int64, data []byte) mlsdk.EyeCamFrame {
	return mlsdk.EyeCamFrame{
		CameraID:    id,
		FrameNumber: num,
		TimestampNs: num * 1000,
		Buffer:      mlsdk.FrameBuffer{Width: int32(len(data)), Height: 1, Stride: int32(len(data)), BytesPerUnit: 1, Data: data},
	}
}

func TestPollCachesNewFrames(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	// empty mask enabled all four cameras
	test.That(t, src.ActiveCameras(), test.ShouldEqual,
		mlsdk.EyeCamLeftTemple|mlsdk.EyeCamLeftNasal|mlsdk.EyeCamRightNasal|mlsdk.EyeCamRightTemple)

	cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
		frame(mlsdk.EyeCamLeftTemple, 1, []byte{1, 1}),
		frame(mlsdk.EyeCamRightNasal, 1, []byte{2, 2}),
	}})
	updated, err := src.Poll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated, test.ShouldEqual, 2)

	buf := make([]byte, 4)
	info, n, ok := src.TryGetLatestFrame(mlsdk.EyeCamLeftTemple, buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 2)
	test.That(t, info.FrameNumber, test.ShouldEqual, 1)

	// reads do not consume the cached frame
	_, _, ok = src.TryGetLatestFrame(mlsdk.EyeCamLeftTemple, buf)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestPollSkipsDuplicateFrameNumbers(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.EyeCamLeftTemple}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
		frame(mlsdk.EyeCamLeftTemple, 5, []byte{1}),
	}})
	updated, err := src.Poll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated, test.ShouldEqual, 1)

	// same frame number again: skipped and counted
	cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
		frame(mlsdk.EyeCamLeftTemple, 5, []byte{9}),
	}})
	updated, err = src.Poll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated, test.ShouldEqual, 0)
	test.That(t, src.DuplicatesSkipped(mlsdk.EyeCamLeftTemple), test.ShouldEqual, 1)
	test.That(t, src.FramesReceived(mlsdk.EyeCamLeftTemple), test.ShouldEqual, 1)

	// the cached payload is still the first one
	buf := make([]byte, 2)
	_, _, ok := src.TryGetLatestFrame(mlsdk.EyeCamLeftTemple, buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, buf[0], test.ShouldEqual, byte(1))
}

func TestNewFlagClearedSeparately(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.EyeCamRightTemple}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
		frame(mlsdk.EyeCamRightTemple, 1, []byte{1}),
	}})
	_, err := src.Poll()
	test.That(t, err, test.ShouldBeNil)

	test.That(t, src.HasNewFrame(mlsdk.EyeCamRightTemple), test.ShouldBeTrue)
	src.ClearNewFlag(mlsdk.EyeCamRightTemple)
	test.That(t, src.HasNewFrame(mlsdk.EyeCamRightTemple), test.ShouldBeFalse)

	// frame stays readable after the flag clears
	buf := make([]byte, 2)
	_, _, ok := src.TryGetLatestFrame(mlsdk.EyeCamRightTemple, buf)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestHasNewFrameDrivesAcquisition(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.EyeCamLeftNasal}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
		frame(mlsdk.EyeCamLeftNasal, 1, []byte{7}),
	}})

	// no explicit Poll: the query itself runs the fetch pass
	test.That(t, src.HasNewFrame(mlsdk.EyeCamLeftNasal), test.ShouldBeTrue)
	test.That(t, src.FramesReceived(mlsdk.EyeCamLeftNasal), test.ShouldEqual, 1)

	buf := make([]byte, 2)
	info, _, ok := src.TryGetLatestFrame(mlsdk.EyeCamLeftNasal, buf)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, info.FrameNumber, test.ShouldEqual, 1)
	test.That(t, buf[0], test.ShouldEqual, byte(7))

	test.That(t, src.HasNewFrame(mlsdk.EyeCamLeftTemple), test.ShouldBeFalse)
}

func TestPollDuringClose(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.EyeCamLeftTemple}), test.ShouldBeNil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
				frame(mlsdk.EyeCamLeftTemple, int64(i), []byte{1}),
			}})
			// shutdown mid-poll is expected here
			_, _ = src.Poll()
		}
	}()
	test.That(t, src.Close(), test.ShouldBeNil)
	wg.Wait()
}

func TestPollTimeoutIsQuiet(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.EyeCamLeftNasal}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	updated, err := src.Poll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated, test.ShouldEqual, 0)
}

func TestPollBeforeInit(t *testing.T) {
	src := newSource(t, &fake.EyeCamera{})
	_, err := src.Poll()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, src.Close(), test.ShouldBeNil)
}

func TestUnrequestedCameraIgnored(t *testing.T) {
	cam := &fake.EyeCamera{}
	src := newSource(t, cam)
	test.That(t, src.Init(Config{Cameras: mlsdk.EyeCamLeftTemple}), test.ShouldBeNil)
	defer func() { test.That(t, src.Close(), test.ShouldBeNil) }()

	cam.Stream().Push(&mlsdk.EyeCamData{Frames: []mlsdk.EyeCamFrame{
		frame(mlsdk.EyeCamRightTemple, 1, []byte{1}),
	}})
	updated, err := src.Poll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated, test.ShouldEqual, 0)

	_, _, ok := src.TryGetLatestFrame(mlsdk.EyeCamRightTemple, make([]byte, 2))
	test.That(t, ok, test.ShouldBeFalse)
}
