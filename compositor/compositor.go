// Package compositor renders detections into frames: it rasterizes them
// into a soft-edged mask and blends a blurred copy of the frame through it.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/geometry"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/pool"
)

var ErrUnsupportedKind = detection.ErrUnsupportedKind

type Options struct {
	// BlurRadius is the radius of the frame blur; the kernel is 2*BlurRadius+1 wide.
	BlurRadius int
	BlurKind   BlurKind

	// FeatherRadius is the size (in pixels) of the soft edge around every
	// shape: the shapes are expanded by it and blurred with a kernel of
	// that width. 0 disables feathering.
	FeatherRadius int

	Mode Mode

	// FeatherExportedMask makes the mask export modes output the feathered
	// mask instead of the sharp one.
	FeatherExportedMask bool
}

func (opts Options) Validate() error {
	var errs []error
	if opts.BlurRadius < 0 {
		errs = append(errs, fmt.Errorf("blur radius must not be negative, got %d", opts.BlurRadius))
	}
	if opts.FeatherRadius < 0 {
		errs = append(errs, fmt.Errorf("feather radius must not be negative, got %d", opts.FeatherRadius))
	}
	if opts.Mode <= ModeUndefined || opts.Mode >= EndOfMode {
		errs = append(errs, fmt.Errorf("invalid mode %s", opts.Mode))
	}
	return errors.Join(errs...)
}

// Compositor is safe for concurrent use: all the per-frame state lives in
// pooled buffers.
type Compositor struct {
	Options Options
	Frame   geometry.FrameSize
	Blurrer FrameBlurrer

	masks *pool.Pool[Mask]
}

func New(frame geometry.FrameSize, opts Options) (*Compositor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %s", frame)
	}
	blurKind := opts.BlurKind
	if blurKind == BlurKindUndefined {
		blurKind = BlurKindBox
	}
	blurrer, err := NewFrameBlurrer(blurKind)
	if err != nil {
		return nil, err
	}
	return &Compositor{
		Options: opts,
		Frame:   frame,
		Blurrer: blurrer,
		masks: pool.NewPool(
			func() *Mask { return NewMask(frame) },
			(*Mask).Reset,
		),
	}, nil
}

// ReleaseMask returns a mask obtained from BuildMask to the pool.
func (c *Compositor) ReleaseMask(m *Mask) {
	c.masks.Put(m)
}

func (c *Compositor) colorOf(d detection.Detection) Color {
	if c.Options.Mode != ModeColoredMask {
		return White
	}
	var result Color
	switch d.Kind {
	case detection.KindFace:
		result[0] = d.Score
	case detection.KindPlate:
		result[2] = d.Score
	}
	return result
}

func (c *Compositor) rasterize(m *Mask, d detection.Detection, b geometry.Bounds) error {
	accumulate := c.Options.Mode == ModeColoredMask
	switch d.Kind {
	case detection.KindPlate:
		m.FillRectangle(b, c.colorOf(d), accumulate)
	case detection.KindFace:
		m.FillEllipse(b, c.colorOf(d), accumulate)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, d.Kind)
	}
	return nil
}

// BuildMask rasterizes the detections into a mask. If feathered is true
// the feathered edges are added.
func (c *Compositor) BuildMask(
	ctx context.Context,
	dets []detection.Detection,
	feathered bool,
) (_ret *Mask, _err error) {
	m := c.masks.Get()
	defer func() {
		if _err != nil {
			c.masks.Put(m)
		}
	}()

	for _, d := range dets {
		if err := c.rasterize(m, d, d.Bounds); err != nil {
			return nil, err
		}
	}
	m.Clamp()

	radius := c.Options.FeatherRadius
	if !feathered || radius <= 0 {
		return m, nil
	}

	edges := c.masks.Get()
	defer c.masks.Put(edges)
	for _, d := range dets {
		if err := c.rasterize(edges, d, d.Bounds.Expand(c.Frame, radius)); err != nil {
			return nil, err
		}
	}
	edges.Clamp()

	tmp := c.masks.Get()
	defer c.masks.Put(tmp)
	edges.BoxBlurKernel(radius, tmp)

	m.AddClamped(edges)
	logger.Tracef(ctx, "mask built: %d detections, %d partial pixels", len(dets), m.PartialCount())
	return m, nil
}

// Composite renders the detections into the frame according to the mode.
// The detections must be already filtered and scaled.
//
// Without detections the frame itself is returned in the blend mode and
// an empty (black) mask in the mask export modes.
func (c *Compositor) Composite(
	ctx context.Context,
	frame *image.RGBA,
	dets []detection.Detection,
) (*image.RGBA, error) {
	if frame.Bounds().Dx() != c.Frame.Width || frame.Bounds().Dy() != c.Frame.Height {
		return nil, fmt.Errorf("frame is %dx%d, but the compositor is configured for %s", frame.Bounds().Dx(), frame.Bounds().Dy(), c.Frame)
	}

	if len(dets) == 0 {
		if c.Options.Mode.IsMaskExport() {
			img := image.NewRGBA(image.Rect(0, 0, c.Frame.Width, c.Frame.Height))
			fillOpaqueBlack(img)
			return img, nil
		}
		return frame, nil
	}

	feathered := true
	if c.Options.Mode.IsMaskExport() {
		feathered = c.Options.FeatherExportedMask
	}
	m, err := c.BuildMask(ctx, dets, feathered)
	if err != nil {
		return nil, err
	}
	defer c.masks.Put(m)

	if c.Options.Mode.IsMaskExport() {
		return m.ToImage(), nil
	}
	return c.blend(frame, m)
}

// blend computes frame*(1-mask) + blurred*mask.
func (c *Compositor) blend(frame *image.RGBA, m *Mask) (*image.RGBA, error) {
	origin := frame.Bounds().Min
	out := image.NewRGBA(image.Rect(0, 0, c.Frame.Width, c.Frame.Height))
	draw.Draw(out, out.Bounds(), frame, origin, draw.Src)
	if m.Dirty.Empty() {
		return out, nil
	}

	blurred, blurredAt, err := blurRegion(c.Blurrer, out, m.Dirty, c.Options.BlurRadius)
	if err != nil {
		return nil, err
	}

	for y := m.Dirty.Min.Y; y < m.Dirty.Max.Y; y++ {
		for x := m.Dirty.Min.X; x < m.Dirty.Max.X; x++ {
			alpha := m.At(x, y)
			if alpha == (Color{}) {
				continue
			}
			dst := out.PixOffset(x, y)
			src := blurred.PixOffset(x-blurredAt.X, y-blurredAt.Y)
			for ch := range channels {
				a := alpha[ch]
				v := float64(out.Pix[dst+ch])*(1-a) + float64(blurred.Pix[src+ch])*a
				out.Pix[dst+ch] = uint8(min(max(math.Round(v), 0), 255))
			}
		}
	}
	return out, nil
}
