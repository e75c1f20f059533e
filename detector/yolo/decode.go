package yolo

import (
	"image"
	"math"
	"sort"

	"github.com/xaionaro-go/avredact/detector"
)

type candidate struct {
	x0, y0, x1, y1 float64
	score          float64
	class          int
}

func (c candidate) area() float64 {
	return max(c.x1-c.x0, 0) * max(c.y1-c.y0, 0)
}

func iou(a, b candidate) float64 {
	ix := max(min(a.x1, b.x1)-max(a.x0, b.x0), 0)
	iy := max(min(a.y1, b.y1)-max(a.y0, b.y0), 0)
	inter := ix * iy
	union := a.area() + b.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// decodeOutput parses a YOLOv8 head output laid out as
// [4+classes][anchors]: center x, center y, width, height followed by
// the per-class scores.
func decodeOutput(
	out []float32,
	anchors int,
	classes int,
	threshold float64,
	lb letterbox,
	source image.Rectangle,
) []candidate {
	var result []candidate
	for a := range anchors {
		best, bestScore := -1, threshold
		for c := range classes {
			score := float64(out[(4+c)*anchors+a])
			if score >= bestScore {
				best, bestScore = c, score
			}
		}
		if best < 0 {
			continue
		}

		cx, cy := float64(out[a]), float64(out[anchors+a])
		w, h := float64(out[2*anchors+a]), float64(out[3*anchors+a])
		x0, y0 := lb.toOriginal(cx-w/2, cy-h/2)
		x1, y1 := lb.toOriginal(cx+w/2, cy+h/2)
		result = append(result, candidate{
			x0:    clampF(x0, 0, float64(source.Dx())),
			y0:    clampF(y0, 0, float64(source.Dy())),
			x1:    clampF(x1, 0, float64(source.Dx())),
			y1:    clampF(y1, 0, float64(source.Dy())),
			score: bestScore,
			class: best,
		})
	}
	return result
}

// nonMaxSuppression keeps the best-scored candidate among the overlapping
// candidates of the same class; the result is sorted by score.
func nonMaxSuppression(cands []candidate, iouThreshold float64) []candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
	kept := make([]candidate, 0, len(cands))
	for _, c := range cands {
		suppressed := false
		for _, k := range kept {
			if k.class == c.class && iou(k, c) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

func toRaw(cands []candidate, labels []string, origin image.Point) []detector.RawDetection {
	result := make([]detector.RawDetection, 0, len(cands))
	for _, c := range cands {
		result = append(result, detector.RawDetection{
			XMin:  origin.X + int(math.Floor(c.x0)),
			YMin:  origin.Y + int(math.Floor(c.y0)),
			XMax:  origin.X + int(math.Floor(c.x1)),
			YMax:  origin.Y + int(math.Floor(c.y1)),
			Score: c.score,
			Label: labels[c.class],
		})
	}
	return result
}

func clampF(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
