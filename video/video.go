// Package video reads and writes video files with libav.
package video

import (
	"image"
	"image/draw"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avredact/video/types"
)

// RationalFromFPS converts the frame rate into a libav rational.
func RationalFromFPS(fps float64) astiav.Rational {
	return astiav.NewRational(types.FPSToFraction(fps))
}

// toRGBA returns the decoded picture as RGBA; opaque NRGBA pictures share
// the memory since the layouts are identical.
func toRGBA(img image.Image) *image.RGBA {
	switch img := img.(type) {
	case *image.RGBA:
		return img
	case *image.NRGBA:
		return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect}
	}
	result := image.NewRGBA(img.Bounds())
	draw.Draw(result, result.Bounds(), img, img.Bounds().Min, draw.Src)
	return result
}

// asNRGBA reinterprets an opaque RGBA picture as NRGBA.
func asNRGBA(img *image.RGBA) *image.NRGBA {
	return &image.NRGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect}
}

func allocPictureBuffer(f *astiav.Frame, width, height int, pixFmt astiav.PixelFormat) error {
	f.Unref()
	f.SetWidth(width)
	f.SetHeight(height)
	f.SetPixelFormat(pixFmt)
	return f.AllocBuffer(1)
}
