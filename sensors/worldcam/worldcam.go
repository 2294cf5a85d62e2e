// Package worldcam acquires frames from the three grayscale world cameras.
package worldcam

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/ali867auckland/MagicLeap2SensorReading/capture"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

const (
	fetchTimeout    = 500 * time.Millisecond
	maxLoggedErrors = 10
)

// FrameInfo is the metadata returned with every frame payload.
type FrameInfo struct {
	CameraID      mlsdk.WorldCamMask
	FrameType     int32
	FrameNumber   int64
	Width         int32
	Height        int32
	StrideBytes   int32
	BytesPerPixel int32
	CaptureTimeNs int64
}

// Config is the stream request.
type Config struct {
	Cameras mlsdk.WorldCamMask
	Mode    mlsdk.WorldCamMode
}

// Source is the world camera acquisition subsystem. Each camera gets its own
// latest-frame slot; a read consumes the frame, so polling faster than the
// camera produces yields "no new frame" rather than duplicates.
type Source struct {
	logger  golog.Logger
	backend mlsdk.WorldCamera
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	workers sync.WaitGroup
	stream  mlsdk.WorldCamStream
	token   *perception.Token

	activeCameras mlsdk.WorldCamMask

	left   capture.Slot[FrameInfo]
	right  capture.Slot[FrameInfo]
	center capture.Slot[FrameInfo]

	framesReceived atomic.Int64
	framesDropped  atomic.Int64
}

// New returns an unconnected world camera source.
func New(backend mlsdk.WorldCamera, svc *perception.Service, logger golog.Logger) *Source {
	return &Source{logger: logger, backend: backend, svc: svc}
}

// normalizeCameras reduces the mask to something the service reliably
// accepts. Requesting all three cameras at once is refused by some firmware
// revisions, so it is narrowed to center; an empty mask also means center.
func normalizeCameras(cameras mlsdk.WorldCamMask, logger golog.Logger) mlsdk.WorldCamMask {
	switch cameras {
	case mlsdk.WorldCamAll:
		logger.Warn("all world cameras requested; narrowing to center")
		return mlsdk.WorldCamCenter
	case 0:
		return mlsdk.WorldCamCenter
	default:
		return cameras
	}
}

// Init connects the requested cameras and starts acquisition. If the center
// camera is refused it retries once with the left camera before giving up;
// center is unavailable on units with a damaged middle sensor.
func (s *Source) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("already running")
		return nil
	}

	cameras := normalizeCameras(cfg.Cameras, s.logger)

	token, err := s.svc.Acquire()
	if err != nil {
		return err
	}

	stream, err := s.backend.Connect(mlsdk.WorldCamSettings{Cameras: cameras, Mode: cfg.Mode})
	if err != nil && cameras == mlsdk.WorldCamCenter {
		s.logger.Warnw("center world camera connect failed; retrying with left", "error", err)
		cameras = mlsdk.WorldCamLeft
		stream, err = s.backend.Connect(mlsdk.WorldCamSettings{Cameras: cameras, Mode: cfg.Mode})
	}
	if err != nil {
		token.Release()
		return errors.Wrapf(err, "world camera connect failed (cameras=%#x)", uint32(cameras))
	}

	s.activeCameras = cameras
	s.stream = stream
	s.token = token
	s.running = true
	s.framesReceived.Store(0)
	s.framesDropped.Store(0)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.workers.Add(1)
	goutils.PanicCapturingGo(func() {
		defer s.workers.Done()
		s.captureLoop(ctx, stream)
	})
	return nil
}

func (s *Source) captureLoop(ctx context.Context, stream mlsdk.WorldCamStream) {
	s.logger.Debug("capture goroutine started")
	defer s.logger.Debug("capture goroutine exiting")

	loggedErrs := 0
	for {
		if ctx.Err() != nil {
			return
		}
		data, err := stream.GetLatestFrames(fetchTimeout)
		if err != nil {
			if errors.Is(err, mlsdk.ErrTimeout) {
				continue
			}
			if loggedErrs < maxLoggedErrors {
				loggedErrs++
				s.logger.Errorw("world camera fetch failed", "error", err)
			}
			continue
		}
		if data == nil {
			continue
		}
		for i := range data.Frames {
			s.publishFrame(&data.Frames[i])
		}
	}
}

func (s *Source) publishFrame(frame *mlsdk.WorldCamFrame) {
	slot := s.slotFor(frame.CameraID)
	if slot == nil {
		s.framesDropped.Add(1)
		return
	}
	if slot.HasNew() {
		s.framesDropped.Add(1)
	}
	slot.Publish(FrameInfo{
		CameraID:      frame.CameraID,
		FrameType:     frame.FrameType,
		FrameNumber:   frame.FrameNumber,
		Width:         frame.Buffer.Width,
		Height:        frame.Buffer.Height,
		StrideBytes:   frame.Buffer.Stride,
		BytesPerPixel: frame.Buffer.BytesPerUnit,
		CaptureTimeNs: frame.TimestampNs,
	}, frame.Buffer.Data)
	s.framesReceived.Add(1)
}

func (s *Source) slotFor(camera mlsdk.WorldCamMask) *capture.Slot[FrameInfo] {
	switch camera {
	case mlsdk.WorldCamLeft:
		return &s.left
	case mlsdk.WorldCamRight:
		return &s.right
	case mlsdk.WorldCamCenter:
		return &s.center
	default:
		return nil
	}
}

// TryGetLatestFrame copies the newest unseen frame from one camera into buf
// and consumes it. On a capacity shortfall it returns (zero, required, false)
// with buf untouched and the frame still pending.
func (s *Source) TryGetLatestFrame(camera mlsdk.WorldCamMask, buf []byte) (FrameInfo, int, bool) {
	slot := s.slotFor(camera)
	if slot == nil {
		return FrameInfo{}, 0, false
	}
	return slot.TryGetNew(buf)
}

// HasNewFrame reports whether a camera has an unconsumed frame.
func (s *Source) HasNewFrame(camera mlsdk.WorldCamMask) bool {
	slot := s.slotFor(camera)
	return slot != nil && slot.HasNew()
}

// ActiveCameras reports the camera mask in effect after normalization and
// any connect retry.
func (s *Source) ActiveCameras() mlsdk.WorldCamMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCameras
}

// FramesReceived returns the number of frames published since Init.
func (s *Source) FramesReceived() int64 { return s.framesReceived.Load() }

// FramesDropped returns the number of frames overwritten before being read.
func (s *Source) FramesDropped() int64 { return s.framesDropped.Load() }

// IsInitialized reports whether the subsystem is running.
func (s *Source) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops acquisition, disconnects and clears all slots. Safe to call
// before Init and safe to call repeatedly.
func (s *Source) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel, stream, token := s.cancel, s.stream, s.token
	s.cancel, s.stream, s.token = nil, nil, nil
	s.mu.Unlock()

	cancel()
	s.workers.Wait()

	var err error
	if stream != nil {
		err = stream.Close()
	}
	token.Release()

	s.left.Reset()
	s.right.Reset()
	s.center.Reset()
	return err
}
