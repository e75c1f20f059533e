//go:build with_cv
// +build with_cv

package compositor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	frameBlurrers[BlurKindCV] = func() FrameBlurrer { return CVBlur{} }
}

// CVBlur is the OpenCV box filter (cv::blur).
type CVBlur struct{}

var _ FrameBlurrer = CVBlur{}

func (CVBlur) String() string {
	return "CVBlur"
}

func (CVBlur) Blur(src *image.RGBA, radius int) (*image.RGBA, error) {
	mat, err := gocv.ImageToMatRGBA(src)
	if err != nil {
		return nil, fmt.Errorf("unable to convert the image to a Mat: %w", err)
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	kernel := 2*radius + 1
	gocv.Blur(mat, &dst, image.Pt(kernel, kernel))

	img, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("unable to convert the Mat to an image: %w", err)
	}
	switch img := img.(type) {
	case *image.RGBA:
		return img, nil
	default:
		result := image.NewRGBA(img.Bounds())
		for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
			for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
				result.Set(x, y, img.At(x, y))
			}
		}
		return result, nil
	}
}
