// Package rgbcam captures frames from the main color camera.
//
// The color camera pushes frames through a callback instead of being polled.
// Each delivered frame is stamped with the camera pose at its capture time;
// when no pose is available the frame is still published with PoseValid
// false, never with a silent identity pose.
package rgbcam

import (
	"sync"
	"sync/atomic"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/ali867auckland/MagicLeap2SensorReading/capture"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/cvpose"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
)

const (
	maxPlanes       = 3
	maxLoggedErrors = 10
)

// PlaneInfo describes one plane inside a frame payload. Planes are packed
// back to back; Offset and Size locate each one.
type PlaneInfo struct {
	Width       int32
	Height      int32
	StrideBytes int32
	Offset      int32
	Size        int32
}

// FrameInfo is the metadata returned with every frame payload.
type FrameInfo struct {
	Format          mlsdk.RGBOutputFormat
	VCamTimestampNs int64
	PlaneCount      int32
	Planes          [maxPlanes]PlaneInfo
	Pose            spatial.Pose
	PoseValid       bool
}

// Config is the capture request.
type Config struct {
	CaptureType mlsdk.RGBCaptureType
	Width       int32
	Height      int32
	Format      mlsdk.RGBOutputFormat
	FrameRate   int32
}

// Validate ensures the capture dimensions are set.
func (cfg *Config) Validate(path string) error {
	if cfg.Width <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "width")
	}
	if cfg.Height <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "height")
	}
	return nil
}

// Source is the color camera subsystem.
type Source struct {
	logger  golog.Logger
	backend mlsdk.RGBCamera
	poses   *cvpose.Tracker
	svc     *perception.Service

	mu        sync.Mutex
	running   bool
	capturing bool
	session   mlsdk.RGBSession
	token     *perception.Token

	frame capture.Slot[FrameInfo]

	framesReceived atomic.Int64
	posesMissed    atomic.Int64
	loggedPoseErrs atomic.Int64
}

// New returns an unconnected color camera source. poses may be nil; frames
// are then published with PoseValid false.
func New(backend mlsdk.RGBCamera, poses *cvpose.Tracker, svc *perception.Service, logger golog.Logger) *Source {
	return &Source{logger: logger, backend: backend, poses: poses, svc: svc}
}

// Init connects the camera and prepares the capture stream. Delivery does
// not begin until StartCapture.
func (s *Source) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("already running")
		return nil
	}
	if err := cfg.Validate("rgbcam"); err != nil {
		return err
	}

	token, err := s.svc.Acquire()
	if err != nil {
		return err
	}
	session, err := s.backend.Connect()
	if err != nil {
		token.Release()
		return errors.Wrap(err, "rgb camera connect failed")
	}
	if err := session.PrepareCapture(mlsdk.RGBCaptureConfig{
		CaptureType: cfg.CaptureType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      cfg.Format,
		FrameRate:   cfg.FrameRate,
	}); err != nil {
		if cerr := session.Close(); cerr != nil {
			s.logger.Errorw("rgb session close failed", "error", cerr)
		}
		token.Release()
		return errors.Wrapf(err, "rgb prepare capture failed (%dx%d)", cfg.Width, cfg.Height)
	}

	s.session = session
	s.token = token
	s.running = true
	s.framesReceived.Store(0)
	s.posesMissed.Store(0)
	s.loggedPoseErrs.Store(0)
	return nil
}

// StartCapture begins frame delivery. Calling it while capturing is a no-op.
func (s *Source) StartCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("rgb camera not initialized")
	}
	if s.capturing {
		return nil
	}
	if err := s.session.StartVideo(s.onFrame); err != nil {
		return errors.Wrap(err, "rgb start video failed")
	}
	s.capturing = true
	return nil
}

// StopCapture halts frame delivery without disconnecting. The last cached
// frame remains readable.
func (s *Source) StopCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.capturing {
		return nil
	}
	s.capturing = false
	return s.session.StopVideo()
}

// onFrame runs on the backend's delivery context: pack the planes, attach a
// pose, publish. Everything is copied before returning.
func (s *Source) onFrame(out mlsdk.RGBOutput) {
	if len(out.Planes) == 0 || len(out.Planes) > maxPlanes {
		return
	}

	info := FrameInfo{
		Format:          out.Format,
		VCamTimestampNs: out.VCamTimestampNs,
		PlaneCount:      int32(len(out.Planes)),
	}
	total := 0
	for i, p := range out.Planes {
		info.Planes[i] = PlaneInfo{
			Width:       p.Width,
			Height:      p.Height,
			StrideBytes: p.Stride,
			Offset:      int32(total),
			Size:        int32(len(p.Data)),
		}
		total += len(p.Data)
	}
	payload := make([]byte, 0, total)
	for _, p := range out.Planes {
		payload = append(payload, p.Data...)
	}

	if s.poses != nil && s.poses.IsInitialized() {
		pose, res := s.poses.PoseAt(mlsdk.CVCameraColor, out.VCamTimestampNs)
		if res.Ok() {
			info.Pose = pose
			info.PoseValid = true
		} else {
			s.posesMissed.Add(1)
			if s.loggedPoseErrs.Add(1) <= maxLoggedErrors {
				s.logger.Debugw("no pose for rgb frame", "result", res.String(),
					"vcamTimestampNs", out.VCamTimestampNs)
			}
		}
	}

	s.frame.Publish(info, payload)
	s.framesReceived.Add(1)
}

// TryGetLatestFrame copies the newest unseen frame into buf and consumes it.
// On a capacity shortfall it returns (zero, required, false) with buf
// untouched and the frame still pending.
func (s *Source) TryGetLatestFrame(buf []byte) (FrameInfo, int, bool) {
	return s.frame.TryGetNew(buf)
}

// HasNewFrame reports whether an unconsumed frame is cached.
func (s *Source) HasNewFrame() bool { return s.frame.HasNew() }

// FramesReceived returns the number of frames delivered since Init.
func (s *Source) FramesReceived() int64 { return s.framesReceived.Load() }

// PosesMissed returns how many delivered frames had no pose available.
func (s *Source) PosesMissed() int64 { return s.posesMissed.Load() }

// IsCapturing reports whether frame delivery is active.
func (s *Source) IsCapturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

// IsInitialized reports whether the camera is connected.
func (s *Source) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops capture and disconnects. Safe to call before Init and safe to
// call repeatedly.
func (s *Source) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	capturing := s.capturing
	s.capturing = false
	session, token := s.session, s.token
	s.session, s.token = nil, nil
	s.mu.Unlock()

	var err error
	if capturing {
		err = session.StopVideo()
	}
	if cerr := session.Close(); cerr != nil && err == nil {
		err = cerr
	}
	token.Release()
	s.frame.Reset()
	return err
}
