package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	var allocated, reset int
	p := NewPool(
		func() *[]float64 {
			allocated++
			v := make([]float64, 4)
			return &v
		},
		func(v *[]float64) {
			reset++
			clear(*v)
		},
	)

	item := p.Get()
	require.Len(t, *item, 4)
	(*item)[0] = 1
	p.Put(item, nil)
	require.Equal(t, 1, reset)

	item = p.Get()
	require.Zero(t, (*item)[0])
	require.GreaterOrEqual(t, allocated, 1)
}
