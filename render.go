// render.go implements the rendering stage: the second read of the input.

package avredact

import (
	"context"
	"fmt"
	"image"

	"github.com/xaionaro-go/avredact/compositor"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/progress"
	"github.com/xaionaro-go/avredact/render"
	"github.com/xaionaro-go/avredact/video/types"
)

// render re-reads the input and writes the redacted frames into outputPath.
func (b *Blurrer) render(
	ctx context.Context,
	inputPath string,
	outputPath string,
	tracked detection.Table,
	result *Result,
) (_err error) {
	logger.Debugf(ctx, "render: '%s' -> '%s'", inputPath, outputPath)
	defer func() { logger.Debugf(ctx, "/render: '%s' -> '%s': %v", inputPath, outputPath, _err) }()

	reader, err := b.Deps.Open(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("unable to reopen '%s': %w", inputPath, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Errorf(ctx, "unable to close '%s': %v", inputPath, err)
		}
	}()
	meta := reader.Metadata()

	comp, err := compositor.New(meta.FrameSize(), b.Config.CompositorOptions())
	if err != nil {
		return fmt.Errorf("unable to initialize the compositor: %w", err)
	}
	renderer := &render.Renderer{
		Compositor:    comp,
		KindFilter:    b.Config.KindFilter(),
		ROIMultiplier: b.Config.ROIMultiplier,
	}
	pool := render.NewPool(b.Config.RenderWorkers(), renderer.Render)
	logger.Debugf(ctx, "rendering with %d workers", pool.Workers)

	writer, err := b.Deps.Create(ctx, outputPath, types.WriterConfig{
		FPS:     meta.FPS,
		Width:   meta.Width,
		Height:  meta.Height,
		Quality: b.Config.Quality,
	})
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", outputPath, err)
	}
	writerClosed := false
	defer func() {
		if writerClosed {
			return
		}
		if err := writer.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close '%s': %v", outputPath, err)
		}
	}()

	total := meta.FrameCount
	if result.FramesRead > 0 {
		total = result.FramesRead
	}
	sink := b.Deps.Progress
	sink.Init(int64(total), progress.UnitFrames, "Rendering...")
	defer sink.Finish()

	nextFrame := 0
	for {
		if err := b.checkpoint(ctx); err != nil {
			return err
		}
		frames, done, err := readBatch(ctx, reader, b.Config.BatchSize)
		if err != nil {
			return err
		}
		if len(frames) > 0 {
			items := make([]render.WorkItem, len(frames))
			for idx, frame := range frames {
				items[idx] = render.WorkItem{
					Index:      nextFrame + idx,
					Frame:      frame,
					Detections: tracked.Get(nextFrame + idx),
				}
			}
			err := pool.Run(ctx, items, func(index int, frame *image.RGBA) error {
				assert(ctx, index == result.FramesWritten, index, result.FramesWritten)
				if err := writer.AppendFrame(ctx, frame); err != nil {
					return fmt.Errorf("unable to write frame %d: %w", index, err)
				}
				result.FramesWritten++
				return nil
			})
			if err != nil {
				return err
			}
			nextFrame += len(frames)
			sink.Update(int64(len(frames)))
		}
		if done {
			break
		}
	}

	writerClosed = true
	if err := writer.Close(ctx); err != nil {
		return fmt.Errorf("unable to finalize '%s': %w", outputPath, err)
	}
	return nil
}
