// mux.go puts the audio back into the rendered video and moves it into place.

package avredact

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/remux"
	"github.com/xaionaro-go/avredact/video/types"
)

// mux turns the video-only intermediate file into the output. Remux
// failures keep the video-only output and only add a warning.
func (b *Blurrer) mux(
	ctx context.Context,
	job Job,
	meta types.Metadata,
	tempPath string,
	result *Result,
) (_err error) {
	logger.Debugf(ctx, "mux: '%s' + audio of '%s' -> '%s'", tempPath, job.InputPath, job.OutputPath)
	defer func() { logger.Debugf(ctx, "/mux: %v", _err) }()

	if !meta.HasAudio {
		return b.moveTemp(tempPath, job.OutputPath)
	}

	err := b.Deps.Remuxer.Combine(ctx, tempPath, job.InputPath, job.OutputPath)
	if err == nil {
		if err := os.Remove(tempPath); err != nil {
			result.addWarning(ctx, "unable to remove the intermediate file '%s': %v", tempPath, err)
		}
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		b.removeOutput(ctx, job.OutputPath)
		return fmt.Errorf("%w: %w", ErrAborted, ctxErr)
	}

	switch {
	case errors.Is(err, remux.ErrToolNotFound):
		result.addWarning(ctx, "%s is unavailable, the output has no audio: %v", b.Deps.Remuxer, err)
	default:
		result.addWarning(ctx, "unable to put the audio back using %s, the output has no audio: %v", b.Deps.Remuxer, err)
	}
	b.removeOutput(ctx, job.OutputPath)
	return b.moveTemp(tempPath, job.OutputPath)
}

func (b *Blurrer) moveTemp(tempPath, outputPath string) error {
	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("unable to move '%s' to '%s': %w", tempPath, outputPath, err)
	}
	return nil
}

// removeOutput removes a partially written output of a failed remux.
func (b *Blurrer) removeOutput(ctx context.Context, outputPath string) {
	err := os.Remove(outputPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf(ctx, "unable to remove the partial output '%s': %v", outputPath, err)
	}
}

// discard removes the intermediate file of an aborted or failed job.
func (b *Blurrer) discard(
	ctx context.Context,
	tempPath string,
	result *Result,
) {
	err := os.Remove(tempPath)
	switch {
	case err == nil:
		logger.Debugf(ctx, "removed the intermediate file '%s'", tempPath)
	case errors.Is(err, os.ErrNotExist):
	default:
		result.addWarning(ctx, "unable to remove the intermediate file '%s': %v", tempPath, err)
	}
}
