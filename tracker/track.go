// track.go defines a single tracked object.

package tracker

import (
	"math"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/geometry"
	"github.com/xaionaro-go/avredact/indicator"
)

type pendingOutput struct {
	Frame     int
	Detection detection.Detection
}

type track struct {
	ID     uint64
	Kind   detection.Kind
	State  State
	Hits   int // successful associations since the track was created
	Misses int // consecutive missed associations
	Score  float64
	Age    int

	corners [4]*indicator.EMA[float64]
	pending []pendingOutput
}

func newTrack(
	id uint64,
	d detection.Detection,
	smoothing float64,
) *track {
	t := &track{
		ID:    id,
		Kind:  d.Kind,
		State: StateTentative,
	}
	for idx := range t.corners {
		t.corners[idx] = indicator.NewEMA[float64](smoothing)
	}
	t.observe(d)
	return t
}

func (t *track) observe(d detection.Detection) {
	for idx, v := range d.Bounds.Corners() {
		t.corners[idx].Update(v)
	}
	t.Hits++
	t.Misses = 0
	t.Score = d.Score
	t.Age = d.Age
}

// Estimate returns the current box estimate; without a new observation
// the object is assumed to stay where it was last seen.
func (t *track) Estimate() geometry.Bounds {
	return geometry.NewBounds(
		int(math.Round(t.corners[0].Current())),
		int(math.Round(t.corners[1].Current())),
		int(math.Round(t.corners[2].Current())),
		int(math.Round(t.corners[3].Current())),
	)
}

func (t *track) Detection() detection.Detection {
	d := detection.New(t.Estimate(), t.Score, t.Kind)
	if t.Misses > 0 {
		d.Age = t.Misses
	} else {
		d.Age = t.Age
	}
	return d
}
