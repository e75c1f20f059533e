// Package remux merges the audio of the source video into the redacted
// video-only file.
package remux

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when the external remux tool is unavailable.
var ErrToolNotFound = errors.New("remux tool not found")

// Remuxer writes outputPath with the video of videoPath and the audio of
// audioSourcePath, both copied without re-encoding; the result is as
// long as the shorter of them.
type Remuxer interface {
	fmt.Stringer
	Combine(ctx context.Context, videoPath, audioSourcePath, outputPath string) error
}
