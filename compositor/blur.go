// blur.go defines the FrameBlurrer backends.

package compositor

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
)

// FrameBlurrer blurs a whole image.
//
// The kernel of a blur of radius r is 2r+1 pixels wide.
type FrameBlurrer interface {
	fmt.Stringer
	Blur(src *image.RGBA, radius int) (*image.RGBA, error)
}

type frameBlurrerFactory func() FrameBlurrer

var frameBlurrers = map[BlurKind]frameBlurrerFactory{
	BlurKindBox:      func() FrameBlurrer { return BoxBlur{} },
	BlurKindGaussian: func() FrameBlurrer { return GaussianBlur{} },
}

// NewFrameBlurrer returns the blurrer of the given kind.
func NewFrameBlurrer(kind BlurKind) (FrameBlurrer, error) {
	factory, ok := frameBlurrers[kind]
	if !ok {
		return nil, fmt.Errorf("blur kind '%s' is not supported by this build", kind)
	}
	return factory(), nil
}

// BoxBlur is a normalized box filter.
type BoxBlur struct{}

var _ FrameBlurrer = BoxBlur{}

func (BoxBlur) String() string {
	return "BoxBlur"
}

func (BoxBlur) Blur(src *image.RGBA, radius int) (*image.RGBA, error) {
	return blur.Box(src, float64(radius)), nil
}

// GaussianBlur is a separable Gaussian filter.
type GaussianBlur struct{}

var _ FrameBlurrer = GaussianBlur{}

func (GaussianBlur) String() string {
	return "GaussianBlur"
}

func (GaussianBlur) Blur(src *image.RGBA, radius int) (*image.RGBA, error) {
	return blur.Gaussian(src, float64(radius)), nil
}

// blurRegion blurs only the part of img within area, using the pixels
// up to radius around it; the result is placed at area.Min.
func blurRegion(
	b FrameBlurrer,
	img *image.RGBA,
	area image.Rectangle,
	radius int,
) (*image.RGBA, image.Point, error) {
	src := area.Inset(-radius).Intersect(img.Bounds())
	crop := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(crop, crop.Bounds(), img, src.Min, draw.Src)

	blurred, err := b.Blur(crop, radius)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%s failed: %w", b, err)
	}
	return blurred, src.Min, nil
}
