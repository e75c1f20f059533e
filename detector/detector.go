// Package detector defines the object detector used to find the regions
// to redact, and the detectors shipped with the project.
package detector

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/geometry"
)

// RawDetection is a detection as reported by a detector, in the pixel
// coordinates of the image it was found on.
type RawDetection struct {
	XMin, YMin int
	XMax, YMax int
	Score      float64
	Label      string
}

func (r RawDetection) String() string {
	return fmt.Sprintf("%s[%d,%d-%d,%d]@%.2f", r.Label, r.XMin, r.YMin, r.XMax, r.YMax, r.Score)
}

// ToDetection converts the raw detection; unknown labels are an error.
func (r RawDetection) ToDetection() (detection.Detection, error) {
	kind, err := detection.ParseKind(r.Label)
	if err != nil {
		return detection.Detection{}, err
	}
	return detection.New(
		geometry.NewBounds(r.XMin, r.YMin, r.XMax, r.YMax),
		r.Score,
		kind,
	), nil
}

// ToDetections converts all the raw detections of one image.
func ToDetections(raw []RawDetection) ([]detection.Detection, error) {
	result := make([]detection.Detection, 0, len(raw))
	for _, r := range raw {
		d, err := r.ToDetection()
		if err != nil {
			return nil, fmt.Errorf("unable to convert %s: %w", r, err)
		}
		result = append(result, d)
	}
	return result, nil
}

// Detector finds faces and license plates.
//
// Detect is called once per batch and returns one list per input image,
// in the same order as the input.
type Detector interface {
	fmt.Stringer
	io.Closer
	Detect(
		ctx context.Context,
		batch []image.Image,
		inferenceSize int,
		confidenceThreshold float64,
	) ([][]RawDetection, error)
}

// Rewinder is implemented by detectors which keep a position within the
// input. Rewind is called before every job.
type Rewinder interface {
	Rewind(ctx context.Context)
}

// Pretracked is implemented by detectors which may report boxes that
// already went through the tracker.
type Pretracked interface {
	IsTracked() bool
}

// IsTracked reports whether the detections of d must bypass the tracker.
func IsTracked(d Detector) bool {
	pt, ok := d.(Pretracked)
	return ok && pt.IsTracked()
}

// InputConverter is implemented by detectors which expect the frames in
// a specific pixel layout.
type InputConverter interface {
	ConvertInput(*image.RGBA) image.Image
}

// PrepareBatch converts the frames the way the detector expects them.
func PrepareBatch(d Detector, frames []*image.RGBA) []image.Image {
	converter, _ := d.(InputConverter)
	batch := make([]image.Image, len(frames))
	for idx, frame := range frames {
		if converter != nil {
			batch[idx] = converter.ConvertInput(frame)
			continue
		}
		batch[idx] = frame
	}
	return batch
}

// CheckBatchResult verifies the detector returned one list per image.
func CheckBatchResult(batch []image.Image, result [][]RawDetection) error {
	if len(result) != len(batch) {
		return fmt.Errorf("the detector returned %d results for %d images", len(result), len(batch))
	}
	return nil
}
