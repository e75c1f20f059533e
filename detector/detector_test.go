package detector

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/geometry"
)

func TestToDetection(t *testing.T) {
	d, err := RawDetection{XMin: 10, YMin: 5, XMax: 2, YMax: 20, Score: 0.7, Label: "Plate"}.ToDetection()
	require.NoError(t, err)
	require.Equal(t, detection.New(geometry.NewBounds(2, 5, 10, 20), 0.7, detection.KindPlate), d)

	_, err = ToDetections([]RawDetection{{Label: "face"}, {Label: "car"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "car")
}

type grayConverter struct {
	Replay
}

func (*grayConverter) ConvertInput(img *image.RGBA) image.Image {
	gray := image.NewGray(img.Bounds())
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

func TestPrepareBatch(t *testing.T) {
	frames := []*image.RGBA{
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
	}

	batch := PrepareBatch(NewReplay(nil), frames)
	require.Len(t, batch, 2)
	require.Same(t, frames[0], batch[0])

	batch = PrepareBatch(&grayConverter{}, frames)
	require.Len(t, batch, 2)
	require.IsType(t, &image.Gray{}, batch[1])

	require.NoError(t, CheckBatchResult(batch, make([][]RawDetection, 2)))
	require.Error(t, CheckBatchResult(batch, make([][]RawDetection, 1)))
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	table := detection.Table{}
	table.Add(1, detection.New(geometry.NewBounds(0, 0, 4, 4), 0.9, detection.KindFace))
	table.Add(2, detection.New(geometry.NewBounds(1, 1, 5, 5), 0.2, detection.KindPlate))
	table.Add(3, detection.New(geometry.NewBounds(2, 2, 6, 6), 1, detection.KindPlate))
	r := NewReplay(table)
	batch := make([]image.Image, 2)

	res, err := r.Detect(ctx, batch, 640, 0.5)
	require.NoError(t, err)
	require.Equal(t, [][]RawDetection{
		nil,
		{{XMin: 0, YMin: 0, XMax: 4, YMax: 4, Score: 0.9, Label: "face"}},
	}, res)

	res, err = r.Detect(ctx, batch, 640, 0.5)
	require.NoError(t, err)
	require.Empty(t, res[0])
	require.Equal(t, "plate", res[1][0].Label)

	res, err = r.Detect(ctx, batch[:1], 640, 0.5)
	require.NoError(t, err)
	require.Equal(t, [][]RawDetection{nil}, res)

	r.Rewind(ctx)
	res, err = r.Detect(ctx, batch, 640, 0.1)
	require.NoError(t, err)
	require.Len(t, res[1], 1)
	require.NoError(t, r.Close())
}

func TestReplayFromFile(t *testing.T) {
	table := detection.Table{}
	table.Add(0, detection.New(geometry.NewBounds(0, 0, 4, 4), 0.9, detection.KindFace))
	path := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, detection.SaveJSONFile(path, table))

	r, err := NewReplayFromFile(path)
	require.NoError(t, err)
	require.True(t, IsTracked(r))
	require.False(t, IsTracked(NewReplay(table)))

	_, err = NewReplayFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
