// Package tracker implements nearest-neighbor temporal tracking of
// detections and the two-pass (forward, then backward) stabilization of
// a whole-video detection table.
package tracker

import (
	"context"
	"fmt"
	"slices"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/logger"
	"gonum.org/v1/gonum/floats"
)

// Object is a track reported on a frame.
type Object struct {
	Frame     int
	TrackID   uint64
	State     State
	Detection detection.Detection
}

// Tracker associates detections across consecutive frames of a single pass.
//
// It is not safe for concurrent use.
type Tracker struct {
	Config PassConfig
	tracks []*track
	nextID uint64
}

func New(cfg PassConfig) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}
	return &Tracker{
		Config: cfg,
		nextID: 1,
	}, nil
}

type candidatePair struct {
	TrackIdx     int
	DetectionIdx int
	Distance     float64
}

// Update processes the detections of the next frame of the pass and
// returns the objects to be reported. The detections must be of valid
// kinds (see detection.Table.Validate). Tentative tracks that get confirmed
// also report their earlier frames, so Object.Frame may differ from frame.
func (t *Tracker) Update(
	ctx context.Context,
	frame int,
	dets []detection.Detection,
) []Object {
	// Step 1: associate detections to the predictions
	matchedDetection := make([]int, len(t.tracks))
	for idx := range matchedDetection {
		matchedDetection[idx] = -1
	}
	detectionUsed := make([]bool, len(dets))
	for _, pair := range t.candidatePairs(dets) {
		if matchedDetection[pair.TrackIdx] >= 0 || detectionUsed[pair.DetectionIdx] {
			continue
		}
		matchedDetection[pair.TrackIdx] = pair.DetectionIdx
		detectionUsed[pair.DetectionIdx] = true
	}

	var result []Object
	alive := t.tracks[:0]

	// Step 2: update the tracks
	for trackIdx, tr := range t.tracks {
		detIdx := matchedDetection[trackIdx]
		if detIdx >= 0 {
			tr.observe(dets[detIdx])
			result = t.reportObserved(result, frame, tr)
			alive = append(alive, tr)
			continue
		}

		tr.Misses++
		switch {
		case tr.State == StateTentative:
			logger.Tracef(ctx, "track %d dropped before confirmation at frame %d", tr.ID, frame)
			tr.State = StateEvicted
		case tr.Misses > t.Config.Memory:
			logger.Tracef(ctx, "track %d evicted at frame %d", tr.ID, frame)
			tr.State = StateEvicted
		default:
			tr.State = StateStale
			result = append(result, Object{
				Frame:     frame,
				TrackID:   tr.ID,
				State:     tr.State,
				Detection: tr.Detection(),
			})
		}
		if tr.State != StateEvicted {
			alive = append(alive, tr)
		}
	}
	clear(t.tracks[len(alive):])
	t.tracks = alive

	// Step 3: initialize new tracks from unassociated detections
	for detIdx, d := range dets {
		if detectionUsed[detIdx] {
			continue
		}
		tr := newTrack(t.nextID, d, t.Config.Smoothing)
		t.nextID++
		result = t.reportObserved(result, frame, tr)
		t.tracks = append(t.tracks, tr)
	}

	return result
}

func (t *Tracker) reportObserved(
	result []Object,
	frame int,
	tr *track,
) []Object {
	if tr.State == StateTentative && tr.Hits <= t.Config.InitializationDelay {
		tr.pending = append(tr.pending, pendingOutput{
			Frame:     frame,
			Detection: tr.Detection(),
		})
		return result
	}

	for _, p := range tr.pending {
		result = append(result, Object{
			Frame:     p.Frame,
			TrackID:   tr.ID,
			State:     StateConfirmed,
			Detection: p.Detection,
		})
	}
	tr.pending = nil
	tr.State = StateConfirmed
	return append(result, Object{
		Frame:     frame,
		TrackID:   tr.ID,
		State:     tr.State,
		Detection: tr.Detection(),
	})
}

// candidatePairs returns all the same-kind (track, detection) pairs within
// the distance threshold, nearest first.
func (t *Tracker) candidatePairs(dets []detection.Detection) []candidatePair {
	var pairs []candidatePair
	for trackIdx, tr := range t.tracks {
		estimate := tr.Estimate().Corners()
		for detIdx, d := range dets {
			if d.Kind != tr.Kind {
				continue
			}
			dist := floats.Distance(estimate, d.Bounds.Corners(), 2)
			if dist > t.Config.DistanceThreshold {
				continue
			}
			pairs = append(pairs, candidatePair{
				TrackIdx:     trackIdx,
				DetectionIdx: detIdx,
				Distance:     dist,
			})
		}
	}
	slices.SortStableFunc(pairs, func(a, b candidatePair) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	return pairs
}

// TrackInfo is a snapshot of a live track.
type TrackInfo struct {
	ID     uint64
	Kind   detection.Kind
	State  State
	Misses int
}

// Tracks returns the live tracks.
func (t *Tracker) Tracks() []TrackInfo {
	result := make([]TrackInfo, 0, len(t.tracks))
	for _, tr := range t.tracks {
		result = append(result, TrackInfo{
			ID:     tr.ID,
			Kind:   tr.Kind,
			State:  tr.State,
			Misses: tr.Misses,
		})
	}
	return result
}
