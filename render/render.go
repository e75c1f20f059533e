// Package render composites batches of frames on a bounded worker pool
// and hands the results over in frame order.
package render

import (
	"context"
	"image"

	"github.com/xaionaro-go/avredact/compositor"
	"github.com/xaionaro-go/avredact/detection"
)

// WorkItem carries everything needed to render one frame, so workers
// share no mutable state.
type WorkItem struct {
	Index      int
	Frame      *image.RGBA
	Detections []detection.Detection
}

type Output struct {
	Index int
	Frame *image.RGBA
	Err   error
}

// RenderFunc renders a single frame; it is called concurrently.
type RenderFunc func(ctx context.Context, item WorkItem) (*image.RGBA, error)

// Renderer filters the tracked detections by kind, grows them by the ROI
// multiplier and composites them into the frame.
type Renderer struct {
	Compositor    *compositor.Compositor
	KindFilter    detection.KindFilter
	ROIMultiplier float64
}

func (r *Renderer) Render(ctx context.Context, item WorkItem) (*image.RGBA, error) {
	dets := detection.Prepare(item.Detections, r.KindFilter, r.Compositor.Frame, r.ROIMultiplier)
	return r.Compositor.Composite(ctx, item.Frame, dets)
}
