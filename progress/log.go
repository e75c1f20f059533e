package progress

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/avredact/logger"
	"golang.org/x/time/rate"
)

// Log reports the progress as log lines at most once per Interval.
type Log struct {
	ctx         context.Context
	limiter     *rate.Limiter
	total       int64
	done        int64
	unit        string
	description string
	startedAt   time.Time
}

var _ Sink = (*Log)(nil)

func NewLog(ctx context.Context, interval time.Duration) *Log {
	return &Log{
		ctx:     ctx,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (l *Log) Init(total int64, unit, description string) {
	l.total = total
	l.done = 0
	l.unit = unit
	l.description = description
	l.startedAt = time.Now()
	logger.Infof(l.ctx, "%s (%s %s)", description, humanize.Comma(total), unit)
}

func (l *Log) Update(increment int64) {
	l.done += increment
	if !l.limiter.Allow() {
		return
	}
	if l.total > 0 {
		logger.Infof(l.ctx, "%s %s/%s %s (%.1f%%)",
			l.description,
			humanize.Comma(l.done), humanize.Comma(l.total), l.unit,
			100*float64(l.done)/float64(l.total),
		)
		return
	}
	logger.Infof(l.ctx, "%s %s %s", l.description, humanize.Comma(l.done), l.unit)
}

func (l *Log) Finish() {
	if l.startedAt.IsZero() {
		return
	}
	logger.Infof(l.ctx, "%s done: %s %s in %v",
		l.description, humanize.Comma(l.done), l.unit,
		time.Since(l.startedAt).Round(time.Millisecond),
	)
	l.startedAt = time.Time{}
}
