// Package detection defines detected objects and the per-frame tables of them.
package detection

import (
	"fmt"

	"github.com/xaionaro-go/avredact/geometry"
)

// Detection is a scored, categorized region found on a frame.
//
// Age is the amount of frames since the object was last actually observed
// (0 for fresh detections).
type Detection struct {
	Bounds geometry.Bounds
	Score  float64
	Kind   Kind
	Age    int
}

func New(bounds geometry.Bounds, score float64, kind Kind) Detection {
	return Detection{
		Bounds: bounds,
		Score:  score,
		Kind:   kind,
	}
}

func (d Detection) String() string {
	return fmt.Sprintf("%s%s@%.2f(age:%d)", d.Kind, d.Bounds, d.Score, d.Age)
}

// GetScaled returns a copy with the bounds scaled by the ROI multiplier.
func (d Detection) GetScaled(frame geometry.FrameSize, multiplier float64) Detection {
	d.Bounds = d.Bounds.Scale(frame, multiplier)
	return d
}

// GetOlder returns a copy aged by one frame.
func (d Detection) GetOlder() Detection {
	d.Age++
	return d
}

// Filter returns the detections accepted by keep, in the original order.
// A nil filter keeps everything.
func Filter(dets []Detection, keep KindFilter) []Detection {
	if keep == nil {
		return dets
	}
	result := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if keep(d.Kind) {
			result = append(result, d)
		}
	}
	return result
}

// Prepare filters the detections by kind and then scales the survivors,
// so rejected detections never reach the geometry code.
func Prepare(
	dets []Detection,
	keep KindFilter,
	frame geometry.FrameSize,
	multiplier float64,
) []Detection {
	dets = Filter(dets, keep)
	result := make([]Detection, len(dets))
	for idx, d := range dets {
		result[idx] = d.GetScaled(frame, multiplier)
	}
	return result
}
