// Package depth acquires frames from the depth camera.
//
// One acquisition goroutine performs a single blocking fetch per iteration
// and fans the returned planes out to five independent channels: processed
// depth, confidence, depth flags, raw depth and ambient raw depth. Each
// channel is gated by its own flag bit; channels whose bit is unset report
// no data rather than stale data.
package depth

import (
	"context"
	"sync"
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

	exposureLongDefaultUs  = 1000
	exposureShortDefaultUs = 200
)

// FrameInfo is the metadata returned with every channel payload.
type FrameInfo struct {
	Width         int32
	Height        int32
	StrideBytes   int32
	BytesPerPixel int32
	CaptureTimeNs int64
	Format        int32
}

// Config is the stream request. It is normalized at Init: an over-specified
// stream mask is collapsed, and the frame rate is clamped to what the chosen
// range supports.
type Config struct {
	Streams   mlsdk.DepthStreamMask
	Flags     mlsdk.DepthFlags
	FrameRate mlsdk.DepthFrameRate

	// ReduceFlagsForStability applies the conservative policy of dropping
	// everything but depth (and confidence, when asked for) from the flag
	// mask before connecting. Some device builds misbehave with all five
	// channels enabled.
	ReduceFlagsForStability bool
}

// Validate ensures the config asks for at least one channel.
func (cfg *Config) Validate(path string) error {
	if cfg.Flags == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "flags")
	}
	return nil
}

// Source is the depth acquisition subsystem.
type Source struct {
	logger  golog.Logger
	backend mlsdk.DepthCamera
	svc     *perception.Service

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	workers sync.WaitGroup
	stream  mlsdk.DepthStream
	token   *perception.Token

	activeStreams mlsdk.DepthStreamMask
	activeFlags   mlsdk.DepthFlags
	activeRate    mlsdk.DepthFrameRate

	depth      capture.Slot[FrameInfo]
	confidence capture.Slot[FrameInfo]
	flags      capture.Slot[FrameInfo]
	raw        capture.Slot[FrameInfo]
	ambientRaw capture.Slot[FrameInfo]
}

// New returns an unconnected depth source. Call Init to connect and start
// acquiring.
func New(backend mlsdk.DepthCamera, svc *perception.Service, logger golog.Logger) *Source {
	return &Source{logger: logger, backend: backend, svc: svc}
}

// normalizeStreams collapses the stream mask to exactly one range. The
// hardware cannot run both ranges concurrently; when both (or neither) are
// requested we prefer short range.
func normalizeStreams(streams mlsdk.DepthStreamMask, logger golog.Logger) mlsdk.DepthStreamMask {
	const both = mlsdk.DepthStreamLongRange | mlsdk.DepthStreamShortRange
	switch streams {
	case both:
		logger.Warn("both depth ranges requested; forcing short range")
		return mlsdk.DepthStreamShortRange
	case 0:
		return mlsdk.DepthStreamShortRange
	default:
		return streams
	}
}

// clampRate downgrades the requested rate to the nearest the chosen range
// supports. Long range runs at 1 or 5 FPS only; short range runs at 5 FPS
// and up.
func clampRate(streams mlsdk.DepthStreamMask, rate mlsdk.DepthFrameRate, logger golog.Logger) mlsdk.DepthFrameRate {
	if streams == mlsdk.DepthStreamLongRange {
		if rate > mlsdk.DepthFrameRate5FPS {
			logger.Warnf("long range supports at most 5 FPS; downgrading from %d FPS", rate.FPS())
			return mlsdk.DepthFrameRate5FPS
		}
		return rate
	}
	if rate < mlsdk.DepthFrameRate5FPS {
		logger.Warnf("short range supports at least 5 FPS; upgrading from %d FPS", rate.FPS())
		return mlsdk.DepthFrameRate5FPS
	}
	return rate
}

// reduceFlags keeps only depth and confidence from the requested mask.
func reduceFlags(flags mlsdk.DepthFlags, logger golog.Logger) mlsdk.DepthFlags {
	if flags <= mlsdk.DepthFlagDepthImage {
		return flags
	}
	safe := mlsdk.DepthFlagDepthImage | (flags & mlsdk.DepthFlagConfidence)
	if safe != flags {
		logger.Warnf("reducing depth flags from %#x to %#x for stability", uint32(flags), uint32(safe))
	}
	return safe
}

// Init validates and normalizes the configuration, connects the stream and
// starts the acquisition goroutine. Calling Init while running is a no-op.
func (s *Source) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("already running")
		return nil
	}
	if err := cfg.Validate("depth"); err != nil {
		return err
	}

	streams := normalizeStreams(cfg.Streams, s.logger)
	rate := clampRate(streams, cfg.FrameRate, s.logger)
	flags := cfg.Flags
	if cfg.ReduceFlagsForStability {
		flags = reduceFlags(flags, s.logger)
	}
	exposure := uint32(exposureShortDefaultUs)
	if streams == mlsdk.DepthStreamLongRange {
		exposure = exposureLongDefaultUs
	}

	token, err := s.svc.Acquire()
	if err != nil {
		return err
	}

	settings := mlsdk.DepthSettings{
		Streams:    streams,
		Flags:      flags,
		FrameRate:  rate,
		ExposureUs: exposure,
	}
	s.logger.Infof("connecting: streams=%#x flags=%#x fps=%d exposure=%dus",
		uint32(streams), uint32(flags), rate.FPS(), exposure)
	stream, err := s.backend.Connect(settings)
	if err != nil {
		token.Release()
		return errors.Wrapf(err, "depth camera connect failed (streams=%#x flags=%#x)",
			uint32(streams), uint32(flags))
	}

	s.activeStreams = streams
	s.activeFlags = flags
	s.activeRate = rate
	s.stream = stream
	s.token = token
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.workers.Add(1)
	goutils.PanicCapturingGo(func() {
		defer s.workers.Done()
		s.captureLoop(ctx, stream)
	})
	return nil
}

func (s *Source) captureLoop(ctx context.Context, stream mlsdk.DepthStream) {
	s.logger.Debug("capture goroutine started")
	defer s.logger.Debug("capture goroutine exiting")

	loggedErrs := 0
	for {
		if ctx.Err() != nil {
			return
		}
		data, err := stream.GetLatestDepthData(fetchTimeout)
		if err != nil {
			if errors.Is(err, mlsdk.ErrTimeout) {
				continue
			}
			if loggedErrs < maxLoggedErrors {
				loggedErrs++
				s.logger.Errorw("depth fetch failed", "error", err)
			}
			if !goutils.SelectContextOrWait(ctx, 10*time.Millisecond) {
				return
			}
			continue
		}
		if data == nil || len(data.Frames) == 0 {
			continue
		}
		s.publishFrame(&data.Frames[0])
	}
}

func (s *Source) publishFrame(frame *mlsdk.DepthFrame) {
	ts := frame.TimestampNs
	publish := func(slot *capture.Slot[FrameInfo], buf *mlsdk.FrameBuffer, gate mlsdk.DepthFlags) {
		if !s.activeFlags.Has(gate) || buf == nil || len(buf.Data) == 0 {
			return
		}
		slot.Publish(FrameInfo{
			Width:         buf.Width,
			Height:        buf.Height,
			StrideBytes:   buf.Stride,
			BytesPerPixel: buf.BytesPerUnit,
			CaptureTimeNs: ts,
		}, buf.Data)
	}
	publish(&s.depth, frame.Depth, mlsdk.DepthFlagDepthImage)
	publish(&s.confidence, frame.Confidence, mlsdk.DepthFlagConfidence)
	publish(&s.flags, frame.Flags, mlsdk.DepthFlagDepthFlags)
	publish(&s.raw, frame.RawDepth, mlsdk.DepthFlagRawDepthImage)
	publish(&s.ambientRaw, frame.AmbientRawDepth, mlsdk.DepthFlagAmbientRawDepthImage)
}

// TryGetLatestDepth copies the newest processed depth frame into buf. On a
// capacity shortfall it returns (zero, required, false) with buf untouched.
// The frame is not consumed; re-reads return it until the next capture.
func (s *Source) TryGetLatestDepth(buf []byte) (FrameInfo, int, bool) {
	return s.depth.TryGet(buf)
}

// TryGetLatestConfidence copies the newest confidence plane into buf.
func (s *Source) TryGetLatestConfidence(buf []byte) (FrameInfo, int, bool) {
	return s.confidence.TryGet(buf)
}

// TryGetLatestDepthFlags copies the newest depth-flags plane into buf.
func (s *Source) TryGetLatestDepthFlags(buf []byte) (FrameInfo, int, bool) {
	return s.flags.TryGet(buf)
}

// TryGetLatestRawDepth copies the newest raw depth plane into buf.
func (s *Source) TryGetLatestRawDepth(buf []byte) (FrameInfo, int, bool) {
	return s.raw.TryGet(buf)
}

// TryGetLatestAmbientRawDepth copies the newest ambient raw plane into buf.
func (s *Source) TryGetLatestAmbientRawDepth(buf []byte) (FrameInfo, int, bool) {
	return s.ambientRaw.TryGet(buf)
}

// ActiveStreams reports the range chosen at Init.
func (s *Source) ActiveStreams() mlsdk.DepthStreamMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeStreams
}

// ActiveFlags reports the flag mask in effect after normalization.
func (s *Source) ActiveFlags() mlsdk.DepthFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFlags
}

// ActiveFrameRate reports the frame rate in effect after clamping.
func (s *Source) ActiveFrameRate() mlsdk.DepthFrameRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRate
}

// IsInitialized reports whether the subsystem is running.
func (s *Source) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops acquisition, disconnects and clears all channels. It is safe
// to call before Init and safe to call repeatedly. The stream handle is
// released only after the goroutine has fully stopped.
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

	s.depth.Reset()
	s.confidence.Reset()
	s.flags.Reset()
	s.raw.Reset()
	s.ambientRaw.Reset()
	return err
}
