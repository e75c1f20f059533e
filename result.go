// result.go defines the Result of a job.

package avredact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xaionaro-go/avredact/logger"
)

// Result is the outcome of a job. Only configuration and detector errors
// and aborts make it unsuccessful; remux and cleanup problems are
// reported as warnings.
type Result struct {
	JobID         string
	Success       bool
	State         State
	Err           error
	Elapsed       time.Duration
	FramesRead    int
	FramesWritten int
	Detections    int
	Tracked       int
	Warnings      []string
}

// ErrorDetail is the text of the error, or an empty string.
func (r Result) ErrorDetail() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "job %s: %s in %v, frames: %d/%d", r.JobID, r.State, r.Elapsed, r.FramesWritten, r.FramesRead)
	if r.Err != nil {
		fmt.Fprintf(&b, ", error: %v", r.Err)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, ", warnings: [%s]", strings.Join(r.Warnings, "; "))
	}
	return b.String()
}

func (r *Result) addWarning(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warnf(ctx, "%s", msg)
	r.Warnings = append(r.Warnings, msg)
}
