package avconv

import (
	"math"
	"testing"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	tb := astiav.NewRational(1, 90000)
	require.Equal(t, 2*time.Second, Duration(180000, tb))
	require.Equal(t, int64(180000), FromDuration(2*time.Second, tb))
	require.Equal(t, NoDuration, Duration(math.MinInt64, tb))
	require.Equal(t, int64(math.MinInt64), FromDuration(NoDuration, tb))
}
