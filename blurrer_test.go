package avredact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/config"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/remux"
)

type testEnv struct {
	Job     Job
	Media   *fakeMedia
	Remuxer *fakeRemuxer
	Sink    *recordingSink
	Blurrer *Blurrer
}

func newTestEnv(
	t *testing.T,
	frames int,
	hasAudio bool,
	d detector.Detector,
	opts ...config.Option,
) *testEnv {
	dir := t.TempDir()
	job := Job{
		InputPath:  filepath.Join(dir, "input.mp4"),
		OutputPath: filepath.Join(dir, "out", "redacted.mp4"),
	}
	require.NoError(t, os.WriteFile(job.InputPath, []byte("input"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Dir(job.OutputPath), 0o755))

	opts = append([]config.Option{
		config.WithTracking(0.5, 2, 2),
		config.WithBatching(2, 2),
	}, opts...)
	cfg, err := config.New(opts...)
	require.NoError(t, err)

	env := &testEnv{
		Job:     job,
		Media:   newFakeMedia(frames, hasAudio),
		Remuxer: &fakeRemuxer{},
		Sink:    &recordingSink{},
	}
	deps := env.Media.Deps()
	deps.Remuxer = env.Remuxer
	deps.Progress = env.Sink
	env.Blurrer, err = New(cfg, d, deps)
	require.NoError(t, err)
	env.Sink.Blurrer = env.Blurrer
	return env
}

func (env *testEnv) requireNoFile(t *testing.T, path string) {
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist, path)
}

func TestBlurrerEndToEnd(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, 10, false, detector.NewReplay(movingPlate(3, 7)), config.WithExportJSON(true))
	require.Equal(t, StateIdle, env.Blurrer.State())

	result := env.Blurrer.Run(ctx, env.Job)
	require.NoError(t, result.Err)
	require.True(t, result.Success)
	require.Equal(t, StateDone, result.State)
	require.Equal(t, StateDone, env.Blurrer.State())
	require.NotEmpty(t, result.JobID)
	require.Empty(t, result.Warnings)
	require.Equal(t, 10, result.FramesRead)
	require.Equal(t, 10, result.FramesWritten)
	require.Equal(t, 5, result.Detections)
	require.Equal(t, 9, result.Tracked)

	require.Equal(t, []State{
		StateDetecting,
		StateTracking,
		StateTracking,
		StateRendering,
	}, env.Sink.States)

	t.Run("output", func(t *testing.T) {
		content, err := os.ReadFile(env.Job.OutputPath)
		require.NoError(t, err)
		require.Equal(t, "video:10", string(content))
		env.requireNoFile(t, env.Job.TempPath())
		require.Empty(t, env.Remuxer.Calls)
	})

	t.Run("input-is-read-twice", func(t *testing.T) {
		require.Len(t, env.Media.readers, 2)
		for _, r := range env.Media.readers {
			require.True(t, r.closed)
		}
	})

	t.Run("frame-order", func(t *testing.T) {
		require.Len(t, env.Media.writers, 1)
		w := env.Media.writers[0]
		require.Equal(t, env.Job.TempPath(), w.path)
		require.Equal(t, 200, w.cfg.Width)
		require.Equal(t, 100, w.cfg.Height)
		require.Equal(t, float64(25), w.cfg.FPS)
		require.Len(t, w.frames, 10)
		for idx, frame := range w.frames {
			require.Equal(t, idx, frameIndexOf(frame))
		}
	})

	t.Run("redaction", func(t *testing.T) {
		w := env.Media.writers[0]
		require.Equal(t, testFrame(0, 200, 100).Pix, w.frames[0].Pix)
		for idx := 1; idx < 10; idx++ {
			require.NotEqual(t, testFrame(idx, 200, 100).Pix, w.frames[idx].Pix, "frame %d", idx)
		}
		// the center of the plate on frame 5 is blurred
		orig := testFrame(5, 200, 100)
		require.NotEqual(t, orig.RGBAAt(55, 25), w.frames[5].RGBAAt(55, 25))
		// far from it nothing changes
		require.Equal(t, orig.RGBAAt(180, 80), w.frames[5].RGBAAt(180, 80))
	})

	t.Run("export", func(t *testing.T) {
		exported, err := detection.LoadJSONFile(env.Job.ExportPath())
		require.NoError(t, err)
		require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, exported.Frames())
	})
}

func TestBlurrerRepeatedJobs(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, 10, false, detector.NewReplay(movingPlate(3, 7)))
	for run := 0; run < 2; run++ {
		result := env.Blurrer.Run(ctx, env.Job)
		require.True(t, result.Success, "run %d: %s", run, result.ErrorDetail())
		require.Equal(t, 5, result.Detections, "run %d", run)
		require.Equal(t, 9, result.Tracked, "run %d", run)
	}

	require.Len(t, env.Media.writers, 2)
	first, second := env.Media.writers[0], env.Media.writers[1]
	require.Len(t, second.frames, 10)
	for idx := range first.frames {
		require.Equal(t, first.frames[idx].Pix, second.frames[idx].Pix, "frame %d", idx)
	}
}

func TestBlurrerReplayExport(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, 20, false, detector.NewReplay(movingPlate(3, 7)), config.WithExportJSON(true))
	result := env.Blurrer.Run(ctx, env.Job)
	require.True(t, result.Success, result.ErrorDetail())
	exported, err := detection.LoadJSONFile(env.Job.ExportPath())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, exported.Frames())

	replay, err := detector.NewReplayFromFile(env.Job.ExportPath())
	require.NoError(t, err)
	require.True(t, detector.IsTracked(replay))

	again := newTestEnv(t, 20, false, replay, config.WithExportJSON(true))
	result = again.Blurrer.Run(ctx, again.Job)
	require.True(t, result.Success, result.ErrorDetail())
	require.Equal(t, exported.Len(), result.Tracked)
	require.Equal(t, []State{StateDetecting, StateRendering}, again.Sink.States)

	reexported, err := detection.LoadJSONFile(again.Job.ExportPath())
	require.NoError(t, err)
	require.Equal(t, exported, reexported)

	before, after := env.Media.writers[0], again.Media.writers[0]
	require.Len(t, after.frames, 20)
	for idx := range before.frames {
		require.Equal(t, before.frames[idx].Pix, after.frames[idx].Pix, "frame %d", idx)
	}
}

func TestBlurrerRemux(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t, 4, true, detector.NewReplay(movingPlate(1, 2)))
		result := env.Blurrer.Run(ctx, env.Job)
		require.True(t, result.Success, result.ErrorDetail())
		require.Empty(t, result.Warnings)
		require.Equal(t, []remuxCall{{
			VideoPath:       env.Job.TempPath(),
			AudioSourcePath: env.Job.InputPath,
			OutputPath:      env.Job.OutputPath,
		}}, env.Remuxer.Calls)

		content, err := os.ReadFile(env.Job.OutputPath)
		require.NoError(t, err)
		require.Equal(t, "video:4+audio", string(content))
		env.requireNoFile(t, env.Job.TempPath())
		env.requireNoFile(t, env.Job.ExportPath())
	})

	for name, remuxErr := range map[string]error{
		"failure":        errors.New("exit status 1"),
		"tool-not-found": remux.ErrToolNotFound,
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, 4, true, detector.NewReplay(movingPlate(1, 2)))
			env.Remuxer.Err = remuxErr

			result := env.Blurrer.Run(ctx, env.Job)
			require.True(t, result.Success, result.ErrorDetail())
			require.Equal(t, StateDone, result.State)
			require.Len(t, result.Warnings, 1)
			require.Contains(t, result.Warnings[0], remuxErr.Error())
			require.Len(t, env.Remuxer.Calls, 1)

			content, err := os.ReadFile(env.Job.OutputPath)
			require.NoError(t, err)
			require.Equal(t, "video:4", string(content))
			env.requireNoFile(t, env.Job.TempPath())
		})
	}
}

func TestBlurrerAbort(t *testing.T) {
	ctx := context.Background()

	t.Run("during-rendering", func(t *testing.T) {
		env := newTestEnv(t, 10, true, detector.NewReplay(movingPlate(3, 7)))
		env.Sink.AbortOnUpdate = 2

		result := env.Blurrer.Run(ctx, env.Job)
		require.False(t, result.Success)
		require.Equal(t, StateAborted, result.State)
		require.Equal(t, StateAborted, env.Blurrer.State())
		require.ErrorIs(t, result.Err, ErrAborted)
		require.Equal(t, 10, result.FramesRead)
		require.Equal(t, 4, result.FramesWritten)
		require.Empty(t, env.Remuxer.Calls)
		env.requireNoFile(t, env.Job.OutputPath)
		env.requireNoFile(t, env.Job.TempPath())
	})

	t.Run("during-detection", func(t *testing.T) {
		env := newTestEnv(t, 10, true, detector.NewReplay(movingPlate(3, 7)))
		env.Sink.AbortDuring = "Detecting..."
		env.Sink.AbortOnUpdate = 2

		result := env.Blurrer.Run(ctx, env.Job)
		require.Equal(t, StateAborted, result.State)
		require.ErrorIs(t, result.Err, ErrAborted)
		require.Equal(t, 4, result.FramesRead)
		require.Zero(t, result.FramesWritten)
		require.Equal(t, []State{StateDetecting}, env.Sink.States)
		require.Empty(t, env.Media.writers)
		env.requireNoFile(t, env.Job.OutputPath)
	})

	t.Run("on-the-last-batch", func(t *testing.T) {
		env := newTestEnv(t, 10, false, detector.NewReplay(movingPlate(3, 7)))
		env.Sink.AbortOnUpdate = 5

		result := env.Blurrer.Run(ctx, env.Job)
		require.Equal(t, StateAborted, result.State)
		require.Equal(t, 10, result.FramesWritten)
		env.requireNoFile(t, env.Job.OutputPath)
		env.requireNoFile(t, env.Job.TempPath())
	})

	t.Run("context-cancelled", func(t *testing.T) {
		env := newTestEnv(t, 10, false, detector.NewReplay(movingPlate(3, 7)))
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		result := env.Blurrer.Run(ctx, env.Job)
		require.False(t, result.Success)
		require.Equal(t, StateAborted, result.State)
		require.ErrorIs(t, result.Err, ErrAborted)
		require.ErrorIs(t, result.Err, context.Canceled)
		require.Zero(t, result.FramesRead)
		require.Empty(t, env.Media.writers)
	})

	t.Run("next-job-is-not-affected", func(t *testing.T) {
		env := newTestEnv(t, 4, false, detector.NewReplay(movingPlate(1, 2)))
		env.Blurrer.Abort()
		result := env.Blurrer.Run(ctx, env.Job)
		require.True(t, result.Success, result.ErrorDetail())
	})
}

func TestBlurrerFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("detector-error", func(t *testing.T) {
		d := &failingDetector{Replay: detector.NewReplay(movingPlate(3, 7)), FailAt: 2}
		env := newTestEnv(t, 10, true, d)

		result := env.Blurrer.Run(ctx, env.Job)
		require.False(t, result.Success)
		require.Equal(t, StateFailed, result.State)
		require.Equal(t, StateFailed, env.Blurrer.State())
		require.NotEmpty(t, result.ErrorDetail())

		var detErr ErrDetector
		require.ErrorAs(t, result.Err, &detErr)
		require.Equal(t, 2, detErr.FirstFrame)
		require.Equal(t, 2, detErr.Frames)

		var stageErr ErrStage
		require.ErrorAs(t, result.Err, &stageErr)
		require.Equal(t, StateDetecting, stageErr.Stage)

		require.Equal(t, 2, d.Calls)
		require.Empty(t, env.Media.writers)
		env.requireNoFile(t, env.Job.OutputPath)
		env.requireNoFile(t, env.Job.TempPath())
	})

	t.Run("detector-result-mismatch", func(t *testing.T) {
		env := newTestEnv(t, 4, false, truncatingDetector{Replay: detector.NewReplay(movingPlate(1, 2))})
		result := env.Blurrer.Run(ctx, env.Job)
		require.Equal(t, StateFailed, result.State)
		var detErr ErrDetector
		require.ErrorAs(t, result.Err, &detErr)
	})

	t.Run("missing-input", func(t *testing.T) {
		env := newTestEnv(t, 4, false, detector.NewReplay(movingPlate(1, 2)))
		require.NoError(t, os.Remove(env.Job.InputPath))

		result := env.Blurrer.Run(ctx, env.Job)
		require.Equal(t, StateFailed, result.State)
		require.ErrorIs(t, result.Err, os.ErrNotExist)
		require.Empty(t, env.Media.readers)
	})

	t.Run("output-overwrites-input", func(t *testing.T) {
		env := newTestEnv(t, 4, false, detector.NewReplay(movingPlate(1, 2)))
		job := env.Job
		job.OutputPath = job.InputPath

		result := env.Blurrer.Run(ctx, job)
		require.Equal(t, StateFailed, result.State)
		require.Empty(t, env.Media.readers)
	})
}

func TestNew(t *testing.T) {
	media := newFakeMedia(1, false)
	replay := detector.NewReplay(detection.Table{})

	t.Run("defaults", func(t *testing.T) {
		b, err := New(config.Default(), replay, media.Deps())
		require.NoError(t, err)
		require.IsType(t, &remux.FFmpeg{}, b.Deps.Remuxer)
		require.NotNil(t, b.Deps.Progress)
		require.Equal(t, StateIdle, b.State())
	})

	t.Run("invalid-config", func(t *testing.T) {
		cfg := config.Default()
		cfg.ROIMultiplier = 0.5
		_, err := New(cfg, replay, media.Deps())
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("no-detector", func(t *testing.T) {
		_, err := New(config.Default(), nil, media.Deps())
		require.Error(t, err)
	})

	t.Run("no-video-io", func(t *testing.T) {
		_, err := New(config.Default(), replay, Deps{})
		require.Error(t, err)
	})
}

func TestJobPaths(t *testing.T) {
	job := Job{InputPath: "/videos/in.mov", OutputPath: "/videos/out/clip.final.mp4"}
	require.Equal(t, "/videos/out/clip.final_copy.mp4", job.TempPath())
	require.Equal(t, "/videos/out/clip.final.json", job.ExportPath())
}

func TestState(t *testing.T) {
	for s := StateUndefined; s < EndOfState; s++ {
		require.NotContains(t, s.String(), "unknown")
	}
	require.True(t, StateAborted.IsFinal())
	require.False(t, StateMuxing.IsFinal())
	require.True(t, StateRendering.IsWorking())
	require.False(t, StateIdle.IsWorking())
}
