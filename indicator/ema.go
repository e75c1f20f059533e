// ema.go implements the exponential moving average.

package indicator

import (
	"golang.org/x/exp/constraints"
)

// EMA is an exponential moving average.
//
// Alpha is the weight of the newest measurement: 1 disables smoothing
// (the average always equals the last value).
type EMA[T constraints.Integer | constraints.Float] struct {
	Alpha             float64
	value             float64
	measurementsCount int64
}

var _ MovingAverage[float64] = (*EMA[float64])(nil)

func NewEMA[T constraints.Integer | constraints.Float](alpha float64) *EMA[T] {
	return &EMA[T]{
		Alpha: min(max(alpha, 0), 1),
	}
}

func (m *EMA[T]) Update(v T) T {
	m.measurementsCount++
	if m.measurementsCount == 1 {
		m.value = float64(v)
		return v
	}
	m.value = m.Alpha*float64(v) + (1-m.Alpha)*m.value
	return T(m.value)
}

func (m *EMA[T]) Current() T {
	return T(m.value)
}

func (m *EMA[T]) InitPeriod() int64 {
	return 1
}

func (m *EMA[T]) Valid() bool {
	return m.measurementsCount >= 1
}
