// table.go defines the per-frame detection Table.

package detection

import (
	"fmt"
	"maps"
	"slices"
)

// Table maps a frame index to the detections on that frame.
type Table map[int][]Detection

// Add appends detections to the frame.
func (t Table) Add(frame int, dets ...Detection) {
	if len(dets) == 0 {
		return
	}
	t[frame] = append(t[frame], dets...)
}

// Get returns the detections on the frame (nil if there are none).
func (t Table) Get(frame int) []Detection {
	return t[frame]
}

// Frames returns the indexes of the non-empty frames in ascending order.
func (t Table) Frames() []int {
	frames := make([]int, 0, len(t))
	for frame, dets := range t {
		if len(dets) > 0 {
			frames = append(frames, frame)
		}
	}
	slices.Sort(frames)
	return frames
}

// MaxFrame returns the largest non-empty frame index, or -1.
func (t Table) MaxFrame() int {
	result := -1
	for frame, dets := range t {
		if len(dets) > 0 && frame > result {
			result = frame
		}
	}
	return result
}

// Len returns the total amount of detections in the table.
func (t Table) Len() int {
	var count int
	for _, dets := range t {
		count += len(dets)
	}
	return count
}

func (t Table) Clone() Table {
	result := make(Table, len(t))
	for frame, dets := range maps.All(t) {
		result[frame] = slices.Clone(dets)
	}
	return result
}

// Validate checks that every detection is of a valid kind.
func (t Table) Validate() error {
	for _, frame := range t.Frames() {
		for _, d := range t[frame] {
			if !d.Kind.Valid() {
				return fmt.Errorf("frame %d: %w: %s", frame, ErrUnsupportedKind, d)
			}
		}
	}
	return nil
}
