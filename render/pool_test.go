package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/compositor"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/geometry"
	"go.uber.org/atomic"
)

func items(indexes ...int) []WorkItem {
	result := make([]WorkItem, 0, len(indexes))
	for _, idx := range indexes {
		result = append(result, WorkItem{Index: idx, Frame: image.NewRGBA(image.Rect(0, 0, 1, 1))})
	}
	return result
}

func TestPoolOrdering(t *testing.T) {
	ctx := context.Background()
	var running, maxRunning atomic.Int64
	p := NewPool(3, func(ctx context.Context, item WorkItem) (*image.RGBA, error) {
		cur := running.Inc()
		defer running.Dec()
		for {
			prev := maxRunning.Load()
			if cur <= prev || maxRunning.CompareAndSwap(prev, cur) {
				break
			}
		}
		// the earlier frames finish later
		time.Sleep(time.Duration(20-item.Index) * time.Millisecond)
		item.Frame.SetRGBA(0, 0, color.RGBA{R: uint8(item.Index), A: 255})
		return item.Frame, nil
	})

	var order []int
	var values []uint8
	err := p.Run(ctx, items(10, 11, 12, 13, 14, 15, 16), func(index int, frame *image.RGBA) error {
		order = append(order, index)
		values = append(values, frame.RGBAAt(0, 0).R)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{10, 11, 12, 13, 14, 15, 16}, order)
	require.Equal(t, []uint8{10, 11, 12, 13, 14, 15, 16}, values)
	require.LessOrEqual(t, maxRunning.Load(), int64(3))

	frames, err := p.RenderBatch(ctx, items(0, 1))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, uint8(1), frames[1].RGBAAt(0, 0).R)
}

func TestPoolErrors(t *testing.T) {
	ctx := context.Background()
	errBroken := errors.New("broken")

	t.Run("render", func(t *testing.T) {
		p := NewPool(2, func(ctx context.Context, item WorkItem) (*image.RGBA, error) {
			if item.Index == 2 {
				return nil, errBroken
			}
			return item.Frame, nil
		})
		_, err := p.RenderBatch(ctx, items(0, 1, 2, 3, 4, 5))
		require.ErrorIs(t, err, errBroken)
	})

	t.Run("emit", func(t *testing.T) {
		p := NewPool(2, func(ctx context.Context, item WorkItem) (*image.RGBA, error) {
			return item.Frame, nil
		})
		var emitted int
		err := p.Run(ctx, items(0, 1, 2, 3), func(int, *image.RGBA) error {
			emitted++
			if emitted == 2 {
				return errBroken
			}
			return nil
		})
		require.ErrorIs(t, err, errBroken)
		require.Equal(t, 2, emitted)
	})

	t.Run("unsorted", func(t *testing.T) {
		p := NewPool(2, nil)
		_, err := p.RenderBatch(ctx, items(1, 0))
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		p := NewPool(2, nil)
		frames, err := p.RenderBatch(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, frames)
	})
}

func TestRenderer(t *testing.T) {
	ctx := context.Background()
	frame := geometry.FrameSize{Width: 32, Height: 32}
	c, err := compositor.New(frame, compositor.Options{Mode: compositor.ModeMask})
	require.NoError(t, err)
	r := &Renderer{
		Compositor:    c,
		KindFilter:    detection.IncludeKinds(detection.KindPlate),
		ROIMultiplier: 4,
	}

	out, err := r.Render(ctx, WorkItem{
		Frame: image.NewRGBA(image.Rect(0, 0, 32, 32)),
		Detections: []detection.Detection{
			detection.New(geometry.NewBounds(14, 14, 18, 18), 1, detection.KindPlate),
			detection.New(geometry.NewBounds(0, 0, 8, 8), 1, detection.KindFace),
		},
	})
	require.NoError(t, err)
	// the plate grew to 8x8 around its center
	require.Equal(t, uint8(255), out.RGBAAt(12, 12).R)
	require.Equal(t, uint8(0), out.RGBAAt(10, 10).R)
	// the face was filtered out
	require.Equal(t, uint8(0), out.RGBAAt(4, 4).R)
}
