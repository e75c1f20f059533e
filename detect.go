package avredact

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/progress"
	"github.com/xaionaro-go/avredact/tracker"
	"github.com/xaionaro-go/avredact/video/types"
)

// readBatch reads up to size frames; done is true if the input is over.
func readBatch(
	ctx context.Context,
	r FrameReader,
	size int,
) (_ []*image.RGBA, done bool, _ error) {
	frames := make([]*image.RGBA, 0, size)
	for len(frames) < size {
		frame, err := r.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			return frames, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("unable to read frame #%d of the batch: %w", len(frames), err)
		}
		frames = append(frames, frame)
	}
	return frames, false, nil
}

func (b *Blurrer) detect(
	ctx context.Context,
	inputPath string,
	result *Result,
) (_ detection.Table, _ types.Metadata, _err error) {
	logger.Debugf(ctx, "detect: '%s'", inputPath)
	defer func() { logger.Debugf(ctx, "/detect: '%s': %v", inputPath, _err) }()

	reader, err := b.Deps.Open(ctx, inputPath)
	if err != nil {
		return nil, types.Metadata{}, fmt.Errorf("unable to open '%s': %w", inputPath, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Errorf(ctx, "unable to close '%s': %v", inputPath, err)
		}
	}()
	meta := reader.Metadata()
	logger.Debugf(ctx, "input metadata: %s", spew.Sdump(meta))

	sink := b.Deps.Progress
	sink.Init(int64(meta.FrameCount), progress.UnitFrames, "Detecting...")
	defer sink.Finish()

	table := detection.Table{}
	for {
		if err := b.checkpoint(ctx); err != nil {
			return nil, meta, err
		}
		frames, done, err := readBatch(ctx, reader, b.Config.BatchSize)
		if err != nil {
			return nil, meta, err
		}
		if len(frames) > 0 {
			firstFrame := result.FramesRead
			dets, err := b.detectBatch(ctx, frames, firstFrame)
			if err != nil {
				return nil, meta, err
			}
			for idx, frameDets := range dets {
				table.Add(firstFrame+idx, frameDets...)
				result.Detections += len(frameDets)
			}
			result.FramesRead += len(frames)
			sink.Update(int64(len(frames)))
		}
		if done {
			break
		}
	}
	if result.FramesRead == 0 {
		return nil, meta, fmt.Errorf("'%s' has no frames", inputPath)
	}
	if meta.FrameCount != result.FramesRead {
		logger.Debugf(ctx, "the container reported %d frames, but %d were decoded", meta.FrameCount, result.FramesRead)
		meta.FrameCount = result.FramesRead
	}
	return table, meta, nil
}

// detectBatch invokes the detector once for the whole batch.
func (b *Blurrer) detectBatch(
	ctx context.Context,
	frames []*image.RGBA,
	firstFrame int,
) (_ [][]detection.Detection, _err error) {
	logger.Tracef(ctx, "detectBatch: frames [%d, %d)", firstFrame, firstFrame+len(frames))
	defer func() { logger.Tracef(ctx, "/detectBatch: %v", _err) }()

	wrap := func(err error) error {
		return ErrDetector{
			Detector:   b.Detector.String(),
			FirstFrame: firstFrame,
			Frames:     len(frames),
			Err:        err,
		}
	}

	batch := detector.PrepareBatch(b.Detector, frames)
	raw, err := b.Detector.Detect(ctx, batch, b.Config.InferenceSize, b.Config.ConfidenceThreshold)
	if err != nil {
		return nil, wrap(err)
	}
	if err := detector.CheckBatchResult(batch, raw); err != nil {
		return nil, wrap(err)
	}

	result := make([][]detection.Detection, len(raw))
	for idx, frameRaw := range raw {
		dets, err := detector.ToDetections(frameRaw)
		if err != nil {
			return nil, wrap(fmt.Errorf("frame %d: %w", firstFrame+idx, err))
		}
		result[idx] = dets
	}
	return result, nil
}

// track runs once the whole table is known: the backward pass walks it
// from the last frame.
func (b *Blurrer) track(
	ctx context.Context,
	table detection.Table,
	meta types.Metadata,
	result *Result,
) (detection.Table, error) {
	if detector.IsTracked(b.Detector) {
		logger.Debugf(ctx, "%s reports tracked boxes, skipping the tracker", b.Detector)
		result.Tracked = table.Len()
		return table, nil
	}
	tracked, err := tracker.Run(ctx, table, meta.FrameCount, b.Config.TrackerConfig(meta.Height), b.Deps.Progress)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		return nil, err
	}
	result.Tracked = tracked.Len()
	logger.Debugf(ctx, "tracking: %d detections -> %d boxes", table.Len(), tracked.Len())
	return tracked, nil
}

// export failures do not invalidate the redacted video.
func (b *Blurrer) export(
	ctx context.Context,
	job Job,
	tracked detection.Table,
	result *Result,
) {
	path := job.ExportPath()
	if err := detection.SaveJSONFile(path, tracked); err != nil {
		result.addWarning(ctx, "unable to export the detections to '%s': %v", path, err)
		return
	}
	logger.Infof(ctx, "exported the detections to '%s'", path)
}
