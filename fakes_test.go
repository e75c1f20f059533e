package avredact

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/geometry"
	"github.com/xaionaro-go/avredact/progress"
	"github.com/xaionaro-go/avredact/video/types"
)

// testFrame is a frame of vertical black and white stripes with the frame
// index stored in the bottom right pixel.
func testFrame(index, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := uint8(255 * (x % 2))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	img.SetRGBA(width-1, height-1, color.RGBA{R: uint8(index), A: 255})
	return img
}

func frameIndexOf(img *image.RGBA) int {
	b := img.Bounds()
	return int(img.RGBAAt(b.Max.X-1, b.Max.Y-1).R)
}

type fakeReader struct {
	meta   types.Metadata
	next   int
	closed bool
}

func (r *fakeReader) Metadata() types.Metadata {
	return r.meta
}

func (r *fakeReader) ReadFrame(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.next >= r.meta.FrameCount {
		return nil, io.EOF
	}
	frame := testFrame(r.next, r.meta.Width, r.meta.Height)
	r.next++
	return frame, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeWriter struct {
	path   string
	cfg    types.WriterConfig
	frames []*image.RGBA
	closed bool
}

func (w *fakeWriter) AppendFrame(ctx context.Context, frame *image.RGBA) error {
	if w.closed {
		return errors.New("the writer is closed")
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *fakeWriter) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	return os.WriteFile(w.path, []byte(fmt.Sprintf("video:%d", len(w.frames))), 0o644)
}

// fakeMedia plays the role of the codec layer.
type fakeMedia struct {
	meta    types.Metadata
	readers []*fakeReader
	writers []*fakeWriter
}

func newFakeMedia(frames int, hasAudio bool) *fakeMedia {
	return &fakeMedia{
		meta: types.Metadata{
			FPS:        25,
			FrameCount: frames,
			Width:      200,
			Height:     100,
			HasAudio:   hasAudio,
		},
	}
}

func (m *fakeMedia) Open(ctx context.Context, path string) (FrameReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	r := &fakeReader{meta: m.meta}
	m.readers = append(m.readers, r)
	return r, nil
}

func (m *fakeMedia) Create(ctx context.Context, path string, cfg types.WriterConfig) (FrameWriter, error) {
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, err
	}
	w := &fakeWriter{path: path, cfg: cfg}
	m.writers = append(m.writers, w)
	return w, nil
}

func (m *fakeMedia) Deps() Deps {
	return Deps{
		Open:   m.Open,
		Create: m.Create,
	}
}

type remuxCall struct {
	VideoPath       string
	AudioSourcePath string
	OutputPath      string
}

type fakeRemuxer struct {
	Err   error
	Calls []remuxCall
}

func (r *fakeRemuxer) String() string {
	return "fakeRemuxer"
}

func (r *fakeRemuxer) Combine(
	ctx context.Context,
	videoPath, audioSourcePath, outputPath string,
) error {
	r.Calls = append(r.Calls, remuxCall{
		VideoPath:       videoPath,
		AudioSourcePath: audioSourcePath,
		OutputPath:      outputPath,
	})
	if r.Err != nil {
		return r.Err
	}
	video, err := os.ReadFile(videoPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, append(video, []byte("+audio")...), 0o644)
}

// failingDetector replays the table, but fails on the given call.
type failingDetector struct {
	*detector.Replay
	FailAt int
	Calls  int
}

func (d *failingDetector) Detect(
	ctx context.Context,
	batch []image.Image,
	inferenceSize int,
	confidenceThreshold float64,
) ([][]detector.RawDetection, error) {
	d.Calls++
	if d.Calls == d.FailAt {
		return nil, errors.New("inference failed")
	}
	return d.Replay.Detect(ctx, batch, inferenceSize, confidenceThreshold)
}

// truncatingDetector loses the result of the last image.
type truncatingDetector struct {
	*detector.Replay
}

func (d truncatingDetector) Detect(
	ctx context.Context,
	batch []image.Image,
	inferenceSize int,
	confidenceThreshold float64,
) ([][]detector.RawDetection, error) {
	result, err := d.Replay.Detect(ctx, batch, inferenceSize, confidenceThreshold)
	if err != nil {
		return nil, err
	}
	return result[:len(result)-1], nil
}

// recordingSink records the state of the blurrer at the start of every
// stage and aborts it on the given update of the AbortDuring stage
// (rendering by default).
type recordingSink struct {
	progress.Nop
	Blurrer       *Blurrer
	AbortOnUpdate int
	AbortDuring   string
	Stages        []string
	States        []State
	stage         string
	updates       int
}

func (s *recordingSink) Init(total int64, unit, description string) {
	s.stage = description
	s.Stages = append(s.Stages, description)
	if s.Blurrer != nil {
		s.States = append(s.States, s.Blurrer.State())
	}
}

func (s *recordingSink) Update(increment int64) {
	abortDuring := s.AbortDuring
	if abortDuring == "" {
		abortDuring = "Rendering..."
	}
	if s.stage != abortDuring {
		return
	}
	s.updates++
	if s.updates == s.AbortOnUpdate {
		s.Blurrer.Abort()
	}
}

// movingPlate is a plate moving right by 5 pixels per frame, present on
// frames [from, to].
func movingPlate(from, to int) detection.Table {
	table := detection.Table{}
	for frame := from; frame <= to; frame++ {
		x := 10 + 5*frame
		table.Add(frame, detection.New(geometry.NewBounds(x, 10, x+40, 40), 0.9, detection.KindPlate))
	}
	return table
}
