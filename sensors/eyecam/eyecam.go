// Package eyecam acquires frames from the four eye cameras.
//
// Unlike the free-running subsystems, eye cameras are polled on demand:
// Poll — or HasNewFrame, which polls on the caller's behalf — runs a single
// fetch pass, and each camera's cached frame is replaced only when its frame
// number advances. Reading a cached frame does not consume it; the new-frame
// flag is cleared separately.
package eyecam

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/capture"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
)

const pollTimeout = 10 * time.Millisecond

var allCameras = []mlsdk.EyeCamMask{
	mlsdk.EyeCamLeftTemple,
	mlsdk.EyeCamLeftNasal,
	mlsdk.EyeCamRightNasal,
	mlsdk.EyeCamRightTemple,
}

// FrameInfo is the metadata returned with every frame payload.
type FrameInfo struct {
	CameraID      mlsdk.EyeCamMask
	FrameNumber   int64
	Width         int32
	Height        int32
	StrideBytes   int32
	BytesPerPixel int32
	CaptureTimeNs int64
}

// Config is the stream request. An empty mask enables all four cameras.
type Config struct {
	Cameras mlsdk.EyeCamMask
}

type cameraState struct {
	slot            capture.Slot[FrameInfo]
	lastFrameNumber atomic.Int64
	received        atomic.Int64
	duplicates      atomic.Int64
}

// Source is the eye camera acquisition subsystem.
type Source struct {
	logger  golog.Logger
	backend mlsdk.EyeCamera
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	stream  mlsdk.EyeCamStream
	token   *perception.Token

	activeCameras mlsdk.EyeCamMask
	cams          map[mlsdk.EyeCamMask]*cameraState
}

// New returns an unconnected eye camera source.
func New(backend mlsdk.EyeCamera, svc *perception.Service, logger golog.Logger) *Source {
	return &Source{logger: logger, backend: backend, svc: svc}
}

// Init connects the requested cameras. No goroutine is started; callers
// drive acquisition through Poll.
func (s *Source) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("already running")
		return nil
	}

	cameras := cfg.Cameras
	if cameras == 0 {
		cameras = mlsdk.EyeCamLeftTemple | mlsdk.EyeCamLeftNasal |
			mlsdk.EyeCamRightNasal | mlsdk.EyeCamRightTemple
	}

	token, err := s.svc.Acquire()
	if err != nil {
		return err
	}
	stream, err := s.backend.Connect(mlsdk.EyeCamSettings{Cameras: cameras})
	if err != nil {
		token.Release()
		return errors.Wrapf(err, "eye camera connect failed (cameras=%#x)", uint32(cameras))
	}

	s.cams = make(map[mlsdk.EyeCamMask]*cameraState, len(allCameras))
	for _, id := range allCameras {
		if cameras&id != 0 {
			st := &cameraState{}
			st.lastFrameNumber.Store(-1)
			s.cams[id] = st
		}
	}
	s.activeCameras = cameras
	s.stream = stream
	s.token = token
	s.running = true
	return nil
}

// Poll runs one fetch pass and caches any frames whose frame number advanced.
// Frames repeating an already-seen number are counted as duplicates and
// dropped. Returns the number of cameras updated.
func (s *Source) Poll() (int, error) {
	s.mu.Lock()
	stream := s.stream
	running := s.running
	cams := s.cams
	s.mu.Unlock()
	if !running {
		return 0, errors.New("eye cameras not initialized")
	}

	data, err := stream.GetLatestCameraData(pollTimeout)
	if err != nil {
		if errors.Is(err, mlsdk.ErrTimeout) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "eye camera fetch failed")
	}
	if data == nil {
		return 0, nil
	}

	updated := 0
	for i := range data.Frames {
		frame := &data.Frames[i]
		st := cams[frame.CameraID]
		if st == nil {
			continue
		}
		if frame.FrameNumber <= st.lastFrameNumber.Load() {
			st.duplicates.Add(1)
			continue
		}
		st.lastFrameNumber.Store(frame.FrameNumber)
		st.slot.Publish(FrameInfo{
			CameraID:      frame.CameraID,
			FrameNumber:   frame.FrameNumber,
			Width:         frame.Buffer.Width,
			Height:        frame.Buffer.Height,
			StrideBytes:   frame.Buffer.Stride,
			BytesPerPixel: frame.Buffer.BytesPerUnit,
			CaptureTimeNs: frame.TimestampNs,
		}, frame.Buffer.Data)
		st.received.Add(1)
		updated++
	}
	return updated, nil
}

// TryGetLatestFrame copies one camera's cached frame into buf. The frame is
// not consumed and the new-frame flag is left alone; pair with HasNewFrame
// and ClearNewFlag when only unseen frames are wanted.
func (s *Source) TryGetLatestFrame(camera mlsdk.EyeCamMask, buf []byte) (FrameInfo, int, bool) {
	st := s.cameraState(camera)
	if st == nil {
		return FrameInfo{}, 0, false
	}
	return st.slot.TryGet(buf)
}

// HasNewFrame runs one fetch pass, updating every tracked camera, then
// reports whether the queried camera has a frame cached since its flag was
// last cleared. Consumers that only ever ask this question still drive
// acquisition.
func (s *Source) HasNewFrame(camera mlsdk.EyeCamMask) bool {
	if _, err := s.Poll(); err != nil {
		s.logger.Debugw("eye camera poll failed", "error", err)
		return false
	}
	st := s.cameraState(camera)
	return st != nil && st.slot.HasNew()
}

// ClearNewFlag marks a camera's cached frame as seen.
func (s *Source) ClearNewFlag(camera mlsdk.EyeCamMask) {
	if st := s.cameraState(camera); st != nil {
		st.slot.ClearNew()
	}
}

// FramesReceived returns how many distinct frames one camera has delivered.
func (s *Source) FramesReceived(camera mlsdk.EyeCamMask) int64 {
	st := s.cameraState(camera)
	if st == nil {
		return 0
	}
	return st.received.Load()
}

// DuplicatesSkipped returns how many repeated frame numbers one camera has
// produced.
func (s *Source) DuplicatesSkipped(camera mlsdk.EyeCamMask) int64 {
	st := s.cameraState(camera)
	if st == nil {
		return 0
	}
	return st.duplicates.Load()
}

func (s *Source) cameraState(camera mlsdk.EyeCamMask) *cameraState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cams[camera]
}

// ActiveCameras reports the camera mask in effect.
func (s *Source) ActiveCameras() mlsdk.EyeCamMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCameras
}

// IsInitialized reports whether the subsystem is connected.
func (s *Source) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close disconnects and drops all cached frames. Safe to call before Init
// and safe to call repeatedly.
func (s *Source) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stream, token := s.stream, s.token
	s.stream, s.token = nil, nil
	s.cams = nil
	s.mu.Unlock()

	var err error
	if stream != nil {
		err = stream.Close()
	}
	token.Release()
	return err
}
