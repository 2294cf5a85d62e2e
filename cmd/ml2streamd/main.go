// ml2streamd runs the capture core against in-memory backends and streams
// depth and IMU frames to a TCP consumer while recording head poses to disk.
// It exists to exercise the full pipeline off-device; on-device builds swap
// the fake backends for the vendor bindings.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk"
	"github.com/ali867auckland/MagicLeap2SensorReading/mlsdk/fake"
	"github.com/ali867auckland/MagicLeap2SensorReading/perception"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/depth"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/headtracking"
	"github.com/ali867auckland/MagicLeap2SensorReading/sensors/imu"
	"github.com/ali867auckland/MagicLeap2SensorReading/spatial"
	"github.com/ali867auckland/MagicLeap2SensorReading/stream"
)

var logger = golog.NewDevelopmentLogger("ml2streamd")

// daemonConfig is the optional JSON config file; values replace the flags.
type daemonConfig struct {
	Address    string `json:"address"`
	OutDir     string `json:"out_dir"`
	IntervalMs int    `json:"interval_ms"`
}

func (c *daemonConfig) Validate(path string) error {
	if c.OutDir == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "out_dir")
	}
	if c.IntervalMs <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("interval_ms must be positive"))
	}
	return nil
}

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	address := flags.String("address", "", "TCP address to stream frames to; empty disables streaming")
	outDir := flags.String("out", ".", "directory for recorded pose files")
	interval := flags.Duration("interval", 100*time.Millisecond, "consumer poll interval")
	cfgPath := flags.String("config", "", "JSON config file; replaces the other flags")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if *cfgPath != "" {
		raw, err := os.ReadFile(*cfgPath)
		if err != nil {
			return errors.Wrap(err, "read config failed")
		}
		var cfg daemonConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return errors.Wrap(err, "parse config failed")
		}
		if err := cfg.Validate(*cfgPath); err != nil {
			return err
		}
		*address = cfg.Address
		*outDir = cfg.OutDir
		*interval = time.Duration(cfg.IntervalMs) * time.Millisecond
	}

	backend := fake.NewPerception()
	svc := perception.NewService(backend, logger)

	headBackend := &fake.HeadTracking{CFUID: mlsdk.CFUID{1}}
	backend.SetTransform(mlsdk.CFUID{1}, spatial.NewZeroPose())
	head := headtracking.New(headBackend, svc, logger)
	if err := head.Init(); err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(head.Close)

	depthBackend := &fake.DepthCamera{}
	depthSrc := depth.New(depthBackend, svc, logger)
	if err := depthSrc.Init(depth.Config{
		Streams:   mlsdk.DepthStreamShortRange,
		Flags:     mlsdk.DepthFlagDepthImage | mlsdk.DepthFlagConfidence,
		FrameRate: mlsdk.DepthFrameRate25FPS,
	}); err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(depthSrc.Close)

	queue := &fake.SensorEventQueue{}
	imuSrc := imu.New(queue, logger)
	if err := imuSrc.Init(imu.Config{}); err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(imuSrc.Close)

	var sender *stream.MuxSender
	if *address != "" {
		conn, err := net.Dial("tcp", *address)
		if err != nil {
			return errors.Wrapf(err, "dial %s failed", *address)
		}
		defer goutils.UncheckedErrorFunc(conn.Close)
		sender = stream.NewMuxSender(conn)
		logger.Infow("streaming enabled", "address", *address)
	}

	poseFile, err := os.Create(filepath.Join(*outDir, "headpose.bin"))
	if err != nil {
		return errors.Wrap(err, "create headpose file failed")
	}
	defer goutils.UncheckedErrorFunc(poseFile.Close)
	poseWriter, err := stream.NewHeadPoseWriter(poseFile)
	if err != nil {
		return err
	}

	goutils.PanicCapturingGo(func() { synthesize(ctx, depthBackend, queue) })

	return multierr.Combine(
		consume(ctx, *interval, depthSrc, imuSrc, head, sender, poseWriter),
		poseWriter.Flush(),
	)
}

// synthesize feeds the fake backends so the pipeline has data to move.
func synthesize(ctx context.Context, cam *fake.DepthCamera, queue *fake.SensorEventQueue) {
	for goutils.SelectContextOrWait(ctx, 40*time.Millisecond) {
		now := time.Now().UnixNano()
		if stream := cam.Stream(); stream != nil {
			payload := make([]byte, 544*480*4)
			stream.Push(&mlsdk.DepthData{Frames: []mlsdk.DepthFrame{{
				TimestampNs: now,
				Depth:       &mlsdk.FrameBuffer{Width: 544, Height: 480, Stride: 544 * 4, BytesPerUnit: 4, Data: payload},
			}}})
		}
		queue.EmitPair(r3.Vector{Z: -9.81}, r3.Vector{}, now)
	}
}

func consume(
	ctx context.Context,
	interval time.Duration,
	depthSrc *depth.Source,
	imuSrc *imu.Source,
	head *headtracking.Tracker,
	sender *stream.MuxSender,
	poseWriter *stream.HeadPoseWriter,
) error {
	start := time.Now()
	buf := make([]byte, 0)
	var frameIdx, recordIdx uint32

	for goutils.SelectContextOrWait(ctx, interval) {
		info, required, ok := depthSrc.TryGetLatestDepth(buf)
		if !ok && required > len(buf) {
			buf = make([]byte, required)
			info, required, ok = depthSrc.TryGetLatestDepth(buf)
		}
		if ok && sender != nil {
			if err := sender.WriteFrame(stream.MuxFrame{
				Sensor:      stream.SensorDepth,
				FrameIndex:  frameIdx,
				TimestampNs: uint64(info.CaptureTimeNs),
				Width:       uint32(info.Width),
				Height:      uint32(info.Height),
				DType:       stream.DTypeFloat32,
			}, buf[:required]); err != nil {
				return err
			}
			frameIdx++
		}

		for _, sample := range imuSrc.GetBuffered(256) {
			logger.Debugw("imu sample", "timestampNs", sample.TimestampNs)
		}

		sample, res := head.Pose()
		rec := stream.HeadPoseRecord{
			FrameIndex:  recordIdx,
			LocalTime:   float32(time.Since(start).Seconds()),
			TimestampNs: sample.TimestampNs,
			ResultCode:  int32(res),
			Pose:        sample.Pose,
			Status:      uint32(sample.Status),
			Confidence:  sample.Confidence,
			ErrorFlags:  sample.ErrorFlags,
		}
		if err := poseWriter.WriteRecord(rec); err != nil {
			return err
		}
		recordIdx++
	}
	return nil
}
