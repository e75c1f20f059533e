// Package types contains the libav-independent video types, so that the
// packages consuming them do not have to link libav.
package types

import (
	"fmt"
	"math"
	"time"

	"github.com/xaionaro-go/avredact/geometry"
)

// Metadata describes the first video stream of a container.
type Metadata struct {
	FPS        float64
	FrameCount int
	Width      int
	Height     int
	Duration   time.Duration
	HasAudio   bool
}

func (m Metadata) FrameSize() geometry.FrameSize {
	return geometry.FrameSize{Width: m.Width, Height: m.Height}
}

func (m Metadata) String() string {
	return fmt.Sprintf("%dx%d@%.3ffps, %d frames, %s, audio:%t", m.Width, m.Height, m.FPS, m.FrameCount, m.Duration, m.HasAudio)
}

// EstimateFrameCount is used when the container does not report the
// amount of frames.
func EstimateFrameCount(duration time.Duration, fps float64) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(duration.Seconds() * fps)
}

// WriterConfig configures the encoder of the output video.
type WriterConfig struct {
	FPS    float64
	Width  int
	Height int

	// Quality is within [0, 10], 10 is the best.
	Quality float64
}

func (cfg WriterConfig) FrameSize() geometry.FrameSize {
	return geometry.FrameSize{Width: cfg.Width, Height: cfg.Height}
}

const MaxCRF = 51

// QualityToCRF maps the quality [0, 10] to the x264 constant rate factor
// [51, 0].
func QualityToCRF(quality float64) int {
	quality = min(max(quality, 0), 10)
	return int(math.Floor((1 - quality/10) * MaxCRF))
}

// FPSToFraction represents the frame rate as a reduced fraction,
// recognizing the NTSC rates (N*1000/1001).
func FPSToFraction(fps float64) (num, den int) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0, 1
	}
	if r := math.Round(fps); math.Abs(fps-r) < 1e-3 {
		return int(r), 1
	}
	if n := math.Round(fps * 1001); math.Abs(fps*1001-n) < 1 && int(n)%1000 == 0 {
		return int(n), 1001
	}
	num, den = int(math.Round(fps*1000)), 1000
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
