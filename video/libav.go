// libav.go routes the libav (FFmpeg) log messages into the go-belt logger.

package video

import (
	"context"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avredact/logger"
)

func LevelToAstiav(level logger.Level) astiav.LogLevel {
	switch level {
	case logger.LevelUndefined:
		return astiav.LogLevelQuiet
	case logger.LevelFatal:
		return astiav.LogLevelFatal
	case logger.LevelPanic:
		return astiav.LogLevelPanic
	case logger.LevelError:
		return astiav.LogLevelError
	case logger.LevelWarning:
		return astiav.LogLevelWarning
	case logger.LevelInfo:
		return astiav.LogLevelInfo
	case logger.LevelDebug:
		return astiav.LogLevelVerbose
	default:
		return astiav.LogLevelDebug
	}
}

func LevelFromAstiav(level astiav.LogLevel) logger.Level {
	switch {
	case level <= astiav.LogLevelQuiet:
		return logger.LevelUndefined
	case level <= astiav.LogLevelPanic:
		return logger.LevelPanic
	case level <= astiav.LogLevelFatal:
		return logger.LevelFatal
	case level <= astiav.LogLevelError:
		return logger.LevelError
	case level <= astiav.LogLevelWarning:
		return logger.LevelWarning
	case level <= astiav.LogLevelInfo:
		return logger.LevelInfo
	case level <= astiav.LogLevelVerbose:
		return logger.LevelDebug
	default:
		return logger.LevelTrace
	}
}

// BridgeLibAV makes libav emit its messages through the logger stored in ctx.
// It is called once, by the command, after the logger is initialized.
//
// libav's panic and fatal levels are downgraded to errors: the decoder or
// encoder reports the failure through its return codes anyway, and the
// job must not crash because of a log line.
func BridgeLibAV(ctx context.Context, level logger.Level) {
	astiav.SetLogLevel(LevelToAstiav(level))
	astiav.SetLogCallback(func(c astiav.Classer, avLevel astiav.LogLevel, fmt, msg string) {
		var cs string
		if c != nil {
			if cl := c.Class(); cl != nil {
				cs = " - class: " + cl.String()
			}
		}
		l := LevelFromAstiav(avLevel)
		if l == logger.LevelUndefined {
			return
		}
		if l < logger.LevelError {
			l = logger.LevelError
		}
		logger.Logf(ctx, l, "%s%s", strings.TrimSpace(msg), cs)
	})
}
