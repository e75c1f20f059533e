// errors.go defines the errors reported by a job.

package avredact

import (
	"errors"
	"fmt"
)

// ErrAborted is the error of a job stopped by Abort or by the context.
var ErrAborted = errors.New("aborted")

// ErrDetector is a failure of the detector; it is fatal for the job.
type ErrDetector struct {
	Detector   string
	FirstFrame int
	Frames     int
	Err        error
}

func (e ErrDetector) Error() string {
	return fmt.Sprintf("detector %s failed on frames [%d, %d): %v", e.Detector, e.FirstFrame, e.FirstFrame+e.Frames, e.Err)
}

func (e ErrDetector) Unwrap() error {
	return e.Err
}

// ErrStage tells in which stage a job failed.
type ErrStage struct {
	Stage State
	Err   error
}

func (e ErrStage) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e ErrStage) Unwrap() error {
	return e.Err
}
