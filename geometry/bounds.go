// Package geometry provides the pixel-space rectangle used for detections.
package geometry

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/exp/constraints"
)

// FrameSize is the size of a video frame in pixels.
type FrameSize struct {
	Width  int
	Height int
}

func (s FrameSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Bounds is an axis-aligned rectangle in pixel coordinates.
//
// It is a value type: all transformations return a new instance.
type Bounds struct {
	XMin int
	YMin int
	XMax int
	YMax int
}

// NewBounds returns Bounds for the given corners in any order.
func NewBounds(x0, y0, x1, y1 int) Bounds {
	return Bounds{
		XMin: min(x0, x1),
		YMin: min(y0, y1),
		XMax: max(x0, x1),
		YMax: max(y0, y1),
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("Box(%d, %d, %d, %d)", b.XMin, b.YMin, b.XMax, b.YMax)
}

func (b Bounds) Width() int {
	return b.XMax - b.XMin
}

func (b Bounds) Height() int {
	return b.YMax - b.YMin
}

func (b Bounds) Area() int {
	return b.Width() * b.Height()
}

func (b Bounds) Empty() bool {
	return b.XMin >= b.XMax || b.YMin >= b.YMax
}

// Points returns the top-left and the bottom-right corners.
func (b Bounds) Points() (image.Point, image.Point) {
	return image.Pt(b.XMin, b.YMin), image.Pt(b.XMax, b.YMax)
}

// Rectangle returns the region covered by the bounds; the max corner is exclusive.
func (b Bounds) Rectangle() image.Rectangle {
	return image.Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}

// Corners returns {x_min, y_min, x_max, y_max} as floats, the vector
// the tracker measures distances on.
func (b Bounds) Corners() []float64 {
	return []float64{float64(b.XMin), float64(b.YMin), float64(b.XMax), float64(b.YMax)}
}

// EllipseCoordinates returns the center and the radii of the ellipse
// inscribed into the bounds. Radii are never negative.
func (b Bounds) EllipseCoordinates() (center image.Point, radii image.Point) {
	center = image.Pt((b.XMin+b.XMax)/2, (b.YMin+b.YMax)/2)
	radii = image.Pt(abs(b.XMax-b.XMin)/2, abs(b.YMax-b.YMin)/2)
	return
}

// Clip clamps the bounds into [0, width] x [0, height].
func (b Bounds) Clip(frame FrameSize) Bounds {
	return Bounds{
		XMin: clamp(b.XMin, 0, frame.Width),
		YMin: clamp(b.YMin, 0, frame.Height),
		XMax: clamp(b.XMax, 0, frame.Width),
		YMax: clamp(b.YMax, 0, frame.Height),
	}
}

// Expand adds a fixed margin on all the sides and clips the result.
func (b Bounds) Expand(frame FrameSize, amount int) Bounds {
	return NewBounds(
		b.XMin-amount, b.YMin-amount,
		b.XMax+amount, b.YMax+amount,
	).Clip(frame)
}

// Scale scales the area of the bounds by multiplier keeping the center.
// The result is floored and clipped to the frame.
func (b Bounds) Scale(frame FrameSize, multiplier float64) Bounds {
	k := math.Sqrt(multiplier) - 1
	dx := k * float64(b.Width()) / 2
	dy := k * float64(b.Height()) / 2
	return NewBounds(
		int(math.Floor(float64(b.XMin)-dx)),
		int(math.Floor(float64(b.YMin)-dy)),
		int(math.Floor(float64(b.XMax)+dx)),
		int(math.Floor(float64(b.YMax)+dy)),
	).Clip(frame)
}

// Contains reports whether other lies entirely within b.
func (b Bounds) Contains(other Bounds) bool {
	return b.XMin <= other.XMin && b.YMin <= other.YMin &&
		b.XMax >= other.XMax && b.YMax >= other.YMax
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
