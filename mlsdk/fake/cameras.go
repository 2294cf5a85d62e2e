package fake

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
)

// DepthCamera is an in-memory depth backend. Pushed frames are handed out in
// order by the stream's blocking fetch.
type DepthCamera struct {
	// ConnectErr, when set, is returned by Connect.
	ConnectErr error

	mu       sync.Mutex
	settings mlsdk.DepthSettings
	connects int
	stream   *DepthStream
}

// Connect implements mlsdk.DepthCamera.
func (c *DepthCamera) Connect(settings mlsdk.DepthSettings) (mlsdk.DepthStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	c.settings = settings
	c.connects++
	c.stream = &DepthStream{data: make(chan *mlsdk.DepthData, 16)}
	return c.stream, nil
}

// LastSettings returns the settings of the most recent Connect.
func (c *DepthCamera) LastSettings() mlsdk.DepthSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Stream returns the stream created by the most recent Connect, or nil.
func (c *DepthCamera) Stream() *DepthStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// DepthStream is the stream half of DepthCamera.
type DepthStream struct {
	mu       sync.Mutex
	closed   bool
	fetchErr error
	data     chan *mlsdk.DepthData
}

// Push queues one fetch result.
func (s *DepthStream) Push(data *mlsdk.DepthData) { s.data <- data }

// SetFetchErr makes subsequent fetches fail with err until cleared with nil.
func (s *DepthStream) SetFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// GetLatestDepthData implements mlsdk.DepthStream.
func (s *DepthStream) GetLatestDepthData(timeout time.Duration) (*mlsdk.DepthData, error) {
	s.mu.Lock()
	fetchErr := s.fetchErr
	s.mu.Unlock()
	if fetchErr != nil {
		return nil, fetchErr
	}
	select {
	case data := <-s.data:
		return data, nil
	case <-time.After(timeout):
		return nil, mlsdk.ErrTimeout
	}
}

// Close implements mlsdk.DepthStream.
func (s *DepthStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("depth stream already closed")
	}
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *DepthStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// WorldCamera is an in-memory world camera backend.
type WorldCamera struct {
	// ConnectErr, when set, fails every Connect.
	ConnectErr error

	// FailCenter makes only center-mask connects fail, exercising the
	// left-camera fallback.
	FailCenter bool

	mu       sync.Mutex
	settings []mlsdk.WorldCamSettings
	stream   *WorldCamStream
}

// Connect implements mlsdk.WorldCamera.
func (c *WorldCamera) Connect(settings mlsdk.WorldCamSettings) (mlsdk.WorldCamStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = append(c.settings, settings)
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	if c.FailCenter && settings.Cameras == mlsdk.WorldCamCenter {
		return nil, errors.New("center camera unavailable")
	}
	c.stream = &WorldCamStream{data: make(chan *mlsdk.WorldCamData, 16)}
	return c.stream, nil
}

// ConnectAttempts returns every settings value Connect was called with.
func (c *WorldCamera) ConnectAttempts() []mlsdk.WorldCamSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mlsdk.WorldCamSettings, len(c.settings))
	copy(out, c.settings)
	return out
}

// Stream returns the stream created by the most recent successful Connect.
func (c *WorldCamera) Stream() *WorldCamStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// WorldCamStream is the stream half of WorldCamera.
type WorldCamStream struct {
	mu     sync.Mutex
	closed bool
	data   chan *mlsdk.WorldCamData
}

// Push queues one fetch result.
func (s *WorldCamStream) Push(data *mlsdk.WorldCamData) { s.data <- data }

// GetLatestFrames implements mlsdk.WorldCamStream.
func (s *WorldCamStream) GetLatestFrames(timeout time.Duration) (*mlsdk.WorldCamData, error) {
	select {
	case data := <-s.data:
		return data, nil
	case <-time.After(timeout):
		return nil, mlsdk.ErrTimeout
	}
}

// Close implements mlsdk.WorldCamStream.
func (s *WorldCamStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// EyeCamera is an in-memory eye camera backend.
type EyeCamera struct {
	// ConnectErr, when set, is returned by Connect.
	ConnectErr error

	mu       sync.Mutex
	settings mlsdk.EyeCamSettings
	stream   *EyeCamStream
}

// Connect implements mlsdk.EyeCamera.
func (c *EyeCamera) Connect(settings mlsdk.EyeCamSettings) (mlsdk.EyeCamStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	c.settings = settings
	c.stream = &EyeCamStream{data: make(chan *mlsdk.EyeCamData, 16)}
	return c.stream, nil
}

// Stream returns the stream created by the most recent Connect.
func (c *EyeCamera) Stream() *EyeCamStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// EyeCamStream is the stream half of EyeCamera.
type EyeCamStream struct {
	mu     sync.Mutex
	closed bool
	data   chan *mlsdk.EyeCamData
}

// Push queues one fetch result.
func (s *EyeCamStream) Push(data *mlsdk.EyeCamData) { s.data <- data }

// GetLatestCameraData implements mlsdk.EyeCamStream.
func (s *EyeCamStream) GetLatestCameraData(timeout time.Duration) (*mlsdk.EyeCamData, error) {
	select {
	case data := <-s.data:
		return data, nil
	case <-time.After(timeout):
		return nil, mlsdk.ErrTimeout
	}
}

// Close implements mlsdk.EyeCamStream.
func (s *EyeCamStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// RGBCamera is an in-memory color camera backend.
type RGBCamera struct {
	// ConnectErr, when set, is returned by Connect.
	ConnectErr error

	// PrepareErr, when set, fails PrepareCapture on the session.
	PrepareErr error

	mu      sync.Mutex
	session *RGBSession
}

// Connect implements mlsdk.RGBCamera.
func (c *RGBCamera) Connect() (mlsdk.RGBSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	c.session = &RGBSession{prepareErr: c.PrepareErr}
	return c.session, nil
}

// Session returns the session created by the most recent Connect.
func (c *RGBCamera) Session() *RGBSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// RGBSession is a pushable color camera session; Deliver invokes the
// registered handler the way the device's capture callback would.
type RGBSession struct {
	prepareErr error

	mu       sync.Mutex
	config   mlsdk.RGBCaptureConfig
	handler  mlsdk.RGBFrameHandler
	started  bool
	closed   bool
	prepares int
}

// PrepareCapture implements mlsdk.RGBSession.
func (s *RGBSession) PrepareCapture(cfg mlsdk.RGBCaptureConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prepareErr != nil {
		return s.prepareErr
	}
	s.config = cfg
	s.prepares++
	return nil
}

// StartVideo implements mlsdk.RGBSession.
func (s *RGBSession) StartVideo(handler mlsdk.RGBFrameHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("video already started")
	}
	s.handler = handler
	s.started = true
	return nil
}

// StopVideo implements mlsdk.RGBSession.
func (s *RGBSession) StopVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.handler = nil
	return nil
}

// Close implements mlsdk.RGBSession.
func (s *RGBSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Deliver pushes one frame through the registered handler. It is a no-op
// when video is stopped, matching the device behavior.
func (s *RGBSession) Deliver(out mlsdk.RGBOutput) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(out)
	}
}

// Config returns the most recent PrepareCapture config.
func (s *RGBSession) Config() mlsdk.RGBCaptureConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Capturing reports whether video delivery is active.
func (s *RGBSession) Capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
