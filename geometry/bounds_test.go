package geometry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var hd = FrameSize{Width: 1920, Height: 1080}

func TestNewBounds(t *testing.T) {
	require.Equal(t, Bounds{XMin: 10, YMin: 20, XMax: 30, YMax: 40}, NewBounds(30, 40, 10, 20))
	require.Equal(t, NewBounds(1, 2, 3, 4), NewBounds(1, 2, 3, 4))
	require.NotEqual(t, NewBounds(1, 2, 3, 4), NewBounds(1, 2, 3, 5))
}

func TestScale(t *testing.T) {
	b := NewBounds(100, 100, 200, 150)

	t.Run("identity", func(t *testing.T) {
		require.Equal(t, b, b.Scale(hd, 1))
	})

	t.Run("area", func(t *testing.T) {
		for _, m := range []float64{1.5, 2, 4, 9} {
			t.Run(fmt.Sprint(m), func(t *testing.T) {
				s := b.Scale(hd, m)
				require.True(t, s.Contains(b), "%v does not contain %v", s, b)
				ratio := float64(s.Area()) / float64(b.Area())
				require.InDelta(t, m, ratio, m*0.05)
			})
		}
	})

	t.Run("round-trip", func(t *testing.T) {
		for _, m := range []float64{1.5, 2, 3, 4} {
			back := b.Scale(hd, m).Scale(hd, 1/m)
			require.InDelta(t, b.XMin, back.XMin, 1)
			require.InDelta(t, b.YMin, back.YMin, 1)
			require.InDelta(t, b.XMax, back.XMax, 1)
			require.InDelta(t, b.YMax, back.YMax, 1)
		}
	})

	t.Run("shrink-keeps-order", func(t *testing.T) {
		s := NewBounds(10, 10, 11, 11).Scale(hd, 0.01)
		require.LessOrEqual(t, s.XMin, s.XMax)
		require.LessOrEqual(t, s.YMin, s.YMax)
	})

	t.Run("clipped", func(t *testing.T) {
		s := NewBounds(0, 0, 100, 100).Scale(FrameSize{Width: 120, Height: 120}, 4)
		require.Equal(t, NewBounds(0, 0, 120, 120), s)
	})
}

func TestExpand(t *testing.T) {
	frame := FrameSize{Width: 100, Height: 50}
	require.Equal(t, NewBounds(5, 5, 35, 35), NewBounds(10, 10, 30, 30).Expand(frame, 5))
	require.Equal(t, NewBounds(0, 0, 100, 50), NewBounds(2, 2, 98, 48).Expand(frame, 10))
}

func TestClip(t *testing.T) {
	frame := FrameSize{Width: 100, Height: 50}
	require.Equal(t, NewBounds(0, 0, 100, 50), NewBounds(-10, -10, 200, 200).Clip(frame))
	require.Equal(t, NewBounds(100, 50, 100, 50), NewBounds(150, 60, 200, 70).Clip(frame))
}

func TestEllipseCoordinates(t *testing.T) {
	center, radii := NewBounds(10, 20, 30, 60).EllipseCoordinates()
	require.Equal(t, 20, center.X)
	require.Equal(t, 40, center.Y)
	require.Equal(t, 10, radii.X)
	require.Equal(t, 20, radii.Y)

	_, radii = NewBounds(100, 100, 100, 100).EllipseCoordinates()
	require.Zero(t, radii.X)
	require.Zero(t, radii.Y)
}
