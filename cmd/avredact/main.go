package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avredact"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/progress"
	"github.com/xaionaro-go/avredact/remux"
	"github.com/xaionaro-go/avredact/video"
	"github.com/xaionaro-go/avredact/video/types"
	"github.com/xaionaro-go/observability"
)

const (
	exitCodeFailure = 1
	exitCodeAborted = 2
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input> <output>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	logFile := pflag.String("log-file", "", "also write the log into this (rotated) file")
	configPath := pflag.String("config", "", "path to a YAML (or JSON) configuration file")
	noProgress := pflag.Bool("no-progress", false, "report the progress to the log instead of the terminal")
	remuxerKind := pflag.String("remuxer", "ffmpeg", "how to put the audio back: ffmpeg or libav")
	ffmpegBinary := pflag.String("ffmpeg", "", "path to the ffmpeg binary (default: $"+remux.BinaryEnvVar+" or PATH)")

	var detFlags detectorFlags
	pflag.StringVar(&detFlags.Kind, "detector", "yolo", "detector: yolo, pigo, replay or cascade")
	pflag.StringVar(&detFlags.Weights, "weights", "", "the ONNX model (yolo) or the cascade file (pigo)")
	pflag.StringVar(&detFlags.ONNXRuntimeLib, "onnxruntime-lib", "", "path to the onnxruntime shared library")
	pflag.StringSliceVar(&detFlags.Labels, "labels", nil, "class names of the model outputs (default: face,plate)")
	pflag.IntVar(&detFlags.Threads, "detector-threads", 0, "intra-op threads of the model, 0 means automatic")
	pflag.StringVar(&detFlags.DetectionsJSON, "detections-json", "", "the detections to replay (replay detector)")
	pflag.StringVar(&detFlags.CascadeFace, "cascade-face", "", "Haar cascade of faces (cascade detector)")
	pflag.StringVar(&detFlags.CascadePlate, "cascade-plate", "", "Haar cascade of plates (cascade detector)")

	cfgFlags := addConfigFlags(pflag.CommandLine)
	pflag.Parse()
	if len(pflag.Args()) != 2 {
		pflag.Usage()
		os.Exit(exitCodeFailure)
	}
	job := avredact.Job{
		InputPath:  pflag.Arg(0),
		OutputPath: pflag.Arg(1),
	}

	logCfg := logger.Config{
		Level: loggerLevel,
	}
	if *logFile != "" {
		logCfg.File = &logger.FileConfig{
			Path:       *logFile,
			MaxSizeMB:  100,
			MaxBackups: 3,
		}
	}
	ctx, logCloser := logger.Init(context.Background(), logCfg)
	video.BridgeLibAV(ctx, loggerLevel)
	ctx, cancelFn := context.WithCancel(ctx)

	exitCode := run(ctx, cancelFn, job, *configPath, cfgFlags, detFlags, *remuxerKind, *ffmpegBinary, *noProgress)
	cancelFn()
	belt.Flush(ctx)
	logCloser.Close()
	os.Exit(exitCode)
}

func run(
	ctx context.Context,
	cancelFn context.CancelFunc,
	job avredact.Job,
	configPath string,
	cfgFlags *configFlags,
	detFlags detectorFlags,
	remuxerKind string,
	ffmpegBinary string,
	noProgress bool,
) int {
	cfg, err := loadConfig(pflag.CommandLine, cfgFlags, configPath)
	if err != nil {
		logger.Errorf(ctx, "invalid configuration: %v", err)
		return exitCodeFailure
	}

	meta, err := video.Probe(ctx, job.InputPath)
	if err != nil {
		logger.Errorf(ctx, "unable to probe '%s': %v", job.InputPath, err)
		return exitCodeFailure
	}
	logger.Infof(ctx, "input: %s", meta)

	var remuxer remux.Remuxer
	switch remuxerKind {
	case "ffmpeg":
		remuxer = &remux.FFmpeg{Binary: ffmpegBinary}
	case "libav":
		remuxer = video.Remuxer{}
	default:
		logger.Errorf(ctx, "unknown remuxer '%s', expected ffmpeg or libav", remuxerKind)
		return exitCodeFailure
	}

	d, err := newDetector(ctx, detFlags, cfg)
	if err != nil {
		logger.Errorf(ctx, "unable to initialize the detector: %v", err)
		return exitCodeFailure
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the detector: %v", err)
		}
	}()

	var sink progress.Sink = progress.NewConsole(os.Stderr)
	if noProgress {
		sink = progress.NewLog(ctx, 5*time.Second)
	}

	blurrer, err := avredact.New(cfg, d, avredact.Deps{
		Open:     openVideo,
		Create:   createVideo,
		Remuxer:  remuxer,
		Progress: sink,
	})
	if err != nil {
		logger.Errorf(ctx, "unable to initialize: %v", err)
		return exitCodeFailure
	}

	signalCh := make(chan os.Signal, 2)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	observability.Go(ctx, func(ctx context.Context) {
		select {
		case <-ctx.Done():
			return
		case <-signalCh:
		}
		logger.Warnf(ctx, "interrupted, finishing the current batch; interrupt again to stop immediately")
		blurrer.Abort()
		select {
		case <-ctx.Done():
		case <-signalCh:
			cancelFn()
		}
	})

	result := blurrer.Run(ctx, job)
	printSummary(job, result)
	switch result.State {
	case avredact.StateDone:
		return 0
	case avredact.StateAborted:
		return exitCodeAborted
	default:
		return exitCodeFailure
	}
}

func openVideo(ctx context.Context, path string) (avredact.FrameReader, error) {
	r, err := video.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func createVideo(ctx context.Context, path string, cfg types.WriterConfig) (avredact.FrameWriter, error) {
	w, err := video.CreateWriter(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func printSummary(job avredact.Job, result avredact.Result) {
	fps := float64(0)
	if seconds := result.Elapsed.Seconds(); seconds > 0 {
		fps = float64(result.FramesWritten) / seconds
	}
	fmt.Fprintf(os.Stderr, "%s: %s frames written in %s (%.1f fps), %s detections, %s tracked boxes\n",
		result.State,
		humanize.Comma(int64(result.FramesWritten)),
		result.Elapsed.Round(time.Millisecond),
		fps,
		humanize.Comma(int64(result.Detections)),
		humanize.Comma(int64(result.Tracked)),
	)
	if result.Success {
		if stat, err := os.Stat(job.OutputPath); err == nil {
			fmt.Fprintf(os.Stderr, "output: %s (%s)\n", job.OutputPath, humanize.Bytes(uint64(stat.Size())))
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", result.ErrorDetail())
	}
}
