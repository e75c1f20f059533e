// moving_average.go defines the MovingAverage interface.

// Package indicator provides smoothing filters for noisy measurements.
package indicator

import (
	"golang.org/x/exp/constraints"
)

type MovingAverage[T constraints.Integer | constraints.Float] interface {
	Update(v T) T
	Current() T
	InitPeriod() int64
	Valid() bool
}
