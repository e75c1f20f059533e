// letterbox.go resizes the frames to the network input keeping the aspect ratio.

package yolo

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var padColor = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// letterbox describes how an image was fit into the square model input.
type letterbox struct {
	Scale float64
	PadX  int
	PadY  int
}

// newLetterbox resizes img to fit into a size×size square keeping the
// aspect ratio and pads the rest with gray.
func newLetterbox(img image.Image, size int) (*image.NRGBA, letterbox) {
	b := img.Bounds()
	scale := min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	w := max(int(float64(b.Dx())*scale+0.5), 1)
	h := max(int(float64(b.Dy())*scale+0.5), 1)

	resized := imaging.Resize(img, w, h, imaging.Linear)
	canvas := imaging.New(size, size, padColor)
	lb := letterbox{
		Scale: scale,
		PadX:  (size - w) / 2,
		PadY:  (size - h) / 2,
	}
	return imaging.Paste(canvas, resized, image.Pt(lb.PadX, lb.PadY)), lb
}

// toOriginal maps a point from the model input back to the source image.
func (lb letterbox) toOriginal(x, y float64) (float64, float64) {
	return (x - float64(lb.PadX)) / lb.Scale, (y - float64(lb.PadY)) / lb.Scale
}

// fillCHW writes the image as normalized planar RGB.
func fillCHW(dst []float32, img *image.NRGBA) {
	b := img.Bounds()
	plane := b.Dx() * b.Dy()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			i := y*b.Dx() + x
			dst[i] = float32(row[x*4]) / 255
			dst[plane+i] = float32(row[x*4+1]) / 255
			dst[2*plane+i] = float32(row[x*4+2]) / 255
		}
	}
}
