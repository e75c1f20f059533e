// mask.go implements the float RGB mask and the box filter over it.

package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/xaionaro-go/avredact/geometry"
)

const channels = 3

// Color is a per-channel mask intensity.
type Color [channels]float64

var White = Color{1, 1, 1}

// Mask is a 3-channel floating-point alpha mask, intensities are in [0, 1]
// once clamped.
type Mask struct {
	Width  int
	Height int
	Pix    []float64

	// Dirty is the area that may contain non-zero values.
	Dirty image.Rectangle
}

func NewMask(size geometry.FrameSize) *Mask {
	return &Mask{
		Width:  size.Width,
		Height: size.Height,
		Pix:    make([]float64, size.Width*size.Height*channels),
	}
}

func (m *Mask) Rect() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Reset zeroes the mask.
func (m *Mask) Reset() {
	for y := m.Dirty.Min.Y; y < m.Dirty.Max.Y; y++ {
		row := m.Pix[m.offset(m.Dirty.Min.X, y):m.offset(m.Dirty.Max.X, y)]
		clear(row)
	}
	m.Dirty = image.Rectangle{}
}

func (m *Mask) offset(x, y int) int {
	return (y*m.Width + x) * channels
}

// At returns the intensities of the pixel.
func (m *Mask) At(x, y int) Color {
	var c Color
	copy(c[:], m.Pix[m.offset(x, y):])
	return c
}

func (m *Mask) markDirty(r image.Rectangle) {
	m.Dirty = m.Dirty.Union(r.Intersect(m.Rect()))
}

// FillRectangle paints the bounds (max corner exclusive).
// If accumulate is true, the color is added to the existing intensities,
// otherwise the intensities are raised to at least the color.
func (m *Mask) FillRectangle(b geometry.Bounds, c Color, accumulate bool) {
	r := b.Rectangle().Intersect(m.Rect())
	if r.Empty() {
		return
	}
	m.markDirty(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.paint(m.offset(x, y), c, accumulate)
		}
	}
}

// FillEllipse paints the ellipse inscribed into the bounds. Degenerate
// ellipses (a zero radius) paint nothing.
func (m *Mask) FillEllipse(b geometry.Bounds, c Color, accumulate bool) {
	center, radii := b.EllipseCoordinates()
	if radii.X <= 0 || radii.Y <= 0 {
		return
	}
	r := image.Rect(
		center.X-radii.X, center.Y-radii.Y,
		center.X+radii.X+1, center.Y+radii.Y+1,
	).Intersect(m.Rect())
	if r.Empty() {
		return
	}
	m.markDirty(r)

	rx2 := float64(radii.X) * float64(radii.X)
	ry2 := float64(radii.Y) * float64(radii.Y)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dy := float64(y - center.Y)
		for x := r.Min.X; x < r.Max.X; x++ {
			dx := float64(x - center.X)
			if dx*dx/rx2+dy*dy/ry2 > 1 {
				continue
			}
			m.paint(m.offset(x, y), c, accumulate)
		}
	}
}

func (m *Mask) paint(idx int, c Color, accumulate bool) {
	for ch := range channels {
		if accumulate {
			m.Pix[idx+ch] += c[ch]
		} else {
			m.Pix[idx+ch] = max(m.Pix[idx+ch], c[ch])
		}
	}
}

// AddClamped adds other to m and clamps the result to [0, 1].
func (m *Mask) AddClamped(other *Mask) {
	m.markDirty(other.Dirty)
	for y := m.Dirty.Min.Y; y < m.Dirty.Max.Y; y++ {
		for idx := m.offset(m.Dirty.Min.X, y); idx < m.offset(m.Dirty.Max.X, y); idx++ {
			m.Pix[idx] = min(max(m.Pix[idx]+other.Pix[idx], 0), 1)
		}
	}
}

// Clamp clamps all the intensities to [0, 1].
func (m *Mask) Clamp() {
	for y := m.Dirty.Min.Y; y < m.Dirty.Max.Y; y++ {
		for idx := m.offset(m.Dirty.Min.X, y); idx < m.offset(m.Dirty.Max.X, y); idx++ {
			m.Pix[idx] = min(max(m.Pix[idx], 0), 1)
		}
	}
}

// BoxBlur applies a normalized box filter of size (2*radius+1)^2.
func (m *Mask) BoxBlur(radius int, tmp *Mask) {
	m.BoxBlurKernel(2*radius+1, tmp)
}

// BoxBlurKernel applies a normalized box filter of size size^2 using
// tmp as the scratch buffer; the borders are replicated. For an even size
// the anchor is at size/2, so the window reaches one pixel further to the
// left (top) than to the right (bottom).
func (m *Mask) BoxBlurKernel(size int, tmp *Mask) {
	if size <= 1 || m.Dirty.Empty() {
		return
	}
	before := size / 2
	after := size - 1 - before
	area := m.Dirty.Inset(-before).Intersect(m.Rect())
	norm := 1 / float64(size)

	tmp.markDirty(area)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			var sum Color
			for k := x - before; k <= x+after; k++ {
				src := m.offset(clampInt(k, 0, m.Width-1), y)
				for ch := range channels {
					sum[ch] += m.Pix[src+ch]
				}
			}
			dst := tmp.offset(x, y)
			for ch := range channels {
				tmp.Pix[dst+ch] = sum[ch] * norm
			}
		}
	}

	m.markDirty(area)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			var sum Color
			for k := y - before; k <= y+after; k++ {
				src := tmp.offset(x, clampInt(k, 0, m.Height-1))
				for ch := range channels {
					sum[ch] += tmp.Pix[src+ch]
				}
			}
			dst := m.offset(x, y)
			for ch := range channels {
				m.Pix[dst+ch] = sum[ch] * norm
			}
		}
	}
}

// PartialCount returns the amount of pixels having at least one channel
// strictly between 0 and 1.
func (m *Mask) PartialCount() int {
	var count int
	for y := m.Dirty.Min.Y; y < m.Dirty.Max.Y; y++ {
		for x := m.Dirty.Min.X; x < m.Dirty.Max.X; x++ {
			c := m.At(x, y)
			for _, v := range c {
				if v > 0 && v < 1 {
					count++
					break
				}
			}
		}
	}
	return count
}

// ToImage renders the mask into an 8-bit opaque image.
func (m *Mask) ToImage() *image.RGBA {
	img := image.NewRGBA(m.Rect())
	fillOpaqueBlack(img)
	for y := m.Dirty.Min.Y; y < m.Dirty.Max.Y; y++ {
		for x := m.Dirty.Min.X; x < m.Dirty.Max.X; x++ {
			c := m.At(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: toUint8(c[0] * 255),
				G: toUint8(c[1] * 255),
				B: toUint8(c[2] * 255),
				A: 0xff,
			})
		}
	}
	return img
}

func fillOpaqueBlack(img *image.RGBA) {
	for idx := 3; idx < len(img.Pix); idx += 4 {
		img.Pix[idx] = 0xff
	}
}

func toUint8(v float64) uint8 {
	return uint8(min(max(math.Round(v), 0), 255))
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
