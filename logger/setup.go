package logger

import (
	"context"
	"io"
	"os"

	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/xaionaro-go/observability"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig enables a rotating log file next to the console output.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Config struct {
	Level Level
	File  *FileConfig
}

// Init creates the logger, sets it as the default one and returns a
// context carrying it. The returned closer flushes the log file (if any).
func Init(ctx context.Context, cfg Config) (context.Context, io.Closer) {
	runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != nil && cfg.File.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
		}
		out = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	ll := logrus.DefaultLogrusLogger()
	ll.SetOutput(out)
	l := logrus.New(ll).WithLevel(cfg.Level)

	ctx = CtxWithLogger(ctx, l)
	SetDefault(func() Logger {
		return l
	})
	return ctx, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
