// Package avconv converts between libav values and Go values.
package avconv

import (
	"math"
	"time"

	"github.com/asticode/go-astiav"
)

const (
	// see https://ffmpeg.org/doxygen/trunk/group__lavu__time.html#ga2eaefe702f95f619ea6f2d08afa01be1
	avNoPTSValue = math.MinInt64

	// NoDuration is returned for timestamps equal to AV_NOPTS_VALUE.
	NoDuration = time.Duration(math.MinInt64)
)

// Duration converts a timestamp in the given time base.
func Duration(t int64, timeBase astiav.Rational) time.Duration {
	if t == avNoPTSValue || timeBase.Den() == 0 {
		return NoDuration
	}
	return time.Duration(float64(t) * timeBase.Float64() * float64(time.Second))
}

// FromDuration is the inverse of Duration.
func FromDuration(d time.Duration, timeBase astiav.Rational) int64 {
	if d == NoDuration || timeBase.Num() == 0 {
		return avNoPTSValue
	}
	return int64(math.Round(d.Seconds() / timeBase.Float64()))
}

// ContainerDuration converts the duration of a format context, which is
// expressed in AV_TIME_BASE units.
func ContainerDuration(fmtCtx *astiav.FormatContext) time.Duration {
	d := fmtCtx.Duration()
	if d <= 0 {
		return 0
	}
	return Duration(d, astiav.NewRational(1, astiav.TimeBase))
}
