// console.go implements the terminal progress bar Sink.

package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Console renders a progress bar into a terminal.
type Console struct {
	Writer io.Writer
	bar    *progressbar.ProgressBar
}

var _ Sink = (*Console)(nil)

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{Writer: w}
}

func (c *Console) Init(total int64, unit, description string) {
	c.Finish()
	if total <= 0 {
		total = -1 // spinner
	}
	c.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(c.Writer),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.Writer)
		}),
	)
}

func (c *Console) Update(increment int64) {
	if c.bar == nil {
		return
	}
	_ = c.bar.Add64(increment)
}

func (c *Console) Finish() {
	if c.bar == nil {
		return
	}
	_ = c.bar.Finish()
	c.bar = nil
}
