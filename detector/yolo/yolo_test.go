package yolo

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/detector"
)

func TestAnchorsCount(t *testing.T) {
	require.Equal(t, 8400, anchorsCount(640))
	require.Equal(t, 4*4+2*2+1, anchorsCount(32))
}

func TestLetterbox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := range 100 {
		for x := range 200 {
			src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	img, lb := newLetterbox(src, 64)
	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	require.InDelta(t, 0.32, lb.Scale, 1e-9)
	require.Equal(t, 0, lb.PadX)
	require.Equal(t, 16, lb.PadY)
	require.Equal(t, padColor, img.NRGBAAt(10, 5))
	require.Equal(t, uint8(255), img.NRGBAAt(10, 32).R)

	x, y := lb.toOriginal(32, 32)
	require.InDelta(t, 100, x, 1e-9)
	require.InDelta(t, 50, y, 1e-9)

	buf := make([]float32, 3*64*64)
	fillCHW(buf, img)
	require.InDelta(t, 1, buf[32*64+10], 1e-6)
	require.InDelta(t, 0, buf[64*64+32*64+10], 1e-6)
	require.InDelta(t, 114.0/255, buf[5*64+10], 1e-6)
}

func TestDecodeOutput(t *testing.T) {
	const anchors, classes = 3, 2
	out := make([]float32, (4+classes)*anchors)
	set := func(a int, cx, cy, w, h float32, scores ...float32) {
		out[a], out[anchors+a], out[2*anchors+a], out[3*anchors+a] = cx, cy, w, h
		for c, s := range scores {
			out[(4+c)*anchors+a] = s
		}
	}
	set(0, 20, 20, 10, 10, 0.9, 0.1)
	set(1, 40, 30, 20, 10, 0.2, 0.7)
	set(2, 10, 10, 4, 4, 0.3, 0.2)

	lb := letterbox{Scale: 0.5, PadX: 0, PadY: 10}
	cands := decodeOutput(out, anchors, classes, 0.5, lb, image.Rect(0, 0, 200, 100))
	require.Len(t, cands, 2)
	require.Equal(t, candidate{x0: 30, y0: 10, x1: 50, y1: 30, score: float64(float32(0.9)), class: 0}, cands[0])
	require.Equal(t, 1, cands[1].class)
	require.InDelta(t, 60, cands[1].x0, 1e-9)
	require.InDelta(t, 30, cands[1].y0, 1e-9)

	raw := toRaw(cands, DefaultLabels, image.Point{})
	require.Equal(t, detector.RawDetection{XMin: 30, YMin: 10, XMax: 50, YMax: 30, Score: float64(float32(0.9)), Label: "face"}, raw[0])
	require.Equal(t, "plate", raw[1].Label)
}

func TestNonMaxSuppression(t *testing.T) {
	cands := []candidate{
		{x0: 0, y0: 0, x1: 10, y1: 10, score: 0.6, class: 0},
		{x0: 1, y0: 1, x1: 11, y1: 11, score: 0.9, class: 0},
		{x0: 1, y0: 1, x1: 11, y1: 11, score: 0.8, class: 1},
		{x0: 50, y0: 50, x1: 60, y1: 60, score: 0.5, class: 0},
	}
	kept := nonMaxSuppression(cands, 0.45)
	require.Len(t, kept, 3)
	require.Equal(t, 0.9, kept[0].score)
	require.Equal(t, 0.8, kept[1].score)
	require.Equal(t, 0.5, kept[2].score)
}

func TestConfigValidate(t *testing.T) {
	err := Config{InputSize: 100}.withDefaults().Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "model path")
	require.Contains(t, err.Error(), "multiple of 32")
}
