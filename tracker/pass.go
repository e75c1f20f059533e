package tracker

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/progress"
)

// RunPass runs a single tracking pass over frames [0, frameCount) in the
// given direction and returns the table of reported boxes.
func RunPass(
	ctx context.Context,
	table detection.Table,
	frameCount int,
	cfg PassConfig,
	direction Direction,
	sink progress.Sink,
) (detection.Table, error) {
	t, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = progress.Nop{}
	}
	frameCount = max(frameCount, table.MaxFrame()+1)

	sink.Init(int64(frameCount), progress.UnitFrames, fmt.Sprintf("Tracking %s...", direction))
	defer sink.Finish()

	result := detection.Table{}
	for step := range frameCount {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := step
		if direction == DirectionBackward {
			frame = frameCount - 1 - step
		}
		for _, obj := range t.Update(ctx, frame, table.Get(frame)) {
			result.Add(obj.Frame, obj.Detection)
		}

		if (step+1)%progressStep == 0 {
			sink.Update(progressStep)
		}
	}
	if rest := frameCount % progressStep; rest != 0 {
		sink.Update(int64(rest))
	}

	logger.Debugf(ctx, "%s tracking: %d detections in, %d boxes out", direction, table.Len(), result.Len())
	return result, nil
}

const progressStep = 100

// Run stabilizes the detection table: a forward pass creates tracks from
// every detection and keeps them for ForwardMemory frames after they
// disappear, then a backward pass over the forward result extends the
// confirmed tracks back in time by up to BackwardMemory frames.
func Run(
	ctx context.Context,
	table detection.Table,
	frameCount int,
	cfg Config,
	sink progress.Sink,
) (detection.Table, error) {
	forward, err := RunPass(ctx, table, frameCount, cfg.Forward(), DirectionForward, sink)
	if err != nil {
		return nil, fmt.Errorf("forward pass failed: %w", err)
	}
	backward, err := RunPass(ctx, forward, frameCount, cfg.Backward(), DirectionBackward, sink)
	if err != nil {
		return nil, fmt.Errorf("backward pass failed: %w", err)
	}
	return backward, nil
}
