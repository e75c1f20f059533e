package video

import (
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/logger"
)

func TestLevelAstiavMapping(t *testing.T) {
	for _, level := range []logger.Level{
		logger.LevelFatal,
		logger.LevelPanic,
		logger.LevelError,
		logger.LevelWarning,
		logger.LevelInfo,
		logger.LevelDebug,
	} {
		t.Run(level.String(), func(t *testing.T) {
			require.Equal(t, level, LevelFromAstiav(LevelToAstiav(level)))
		})
	}

	require.Equal(t, logger.LevelTrace, LevelFromAstiav(astiav.LogLevelTrace))
	require.Equal(t, logger.LevelUndefined, LevelFromAstiav(astiav.LogLevelQuiet))
}
