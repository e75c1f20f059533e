// probe.go implements the metadata probe of a video file.

package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/avredact/avconv"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/video/types"
)

var ErrNoVideoStream = errors.New("no video stream found")

func openInput(path string, closer *astikit.Closer) (*astiav.FormatContext, error) {
	fmtCtx := astiav.AllocFormatContext()
	if fmtCtx == nil {
		return nil, errors.New("unable to allocate a format context")
	}
	closer.Add(fmtCtx.Free)

	if err := fmtCtx.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	closer.Add(fmtCtx.CloseInput)

	if err := fmtCtx.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("unable to find the stream info of '%s': %w", path, err)
	}
	return fmtCtx, nil
}

func metadataOf(fmtCtx *astiav.FormatContext, stream *astiav.Stream) types.Metadata {
	fps := fmtCtx.GuessFrameRate(stream, nil).Float64()
	if fps <= 0 {
		fps = stream.AvgFrameRate().Float64()
	}

	duration := avconv.Duration(stream.Duration(), stream.TimeBase())
	if duration <= 0 {
		duration = avconv.ContainerDuration(fmtCtx)
	}

	frameCount := int(stream.NbFrames())
	if frameCount <= 0 {
		frameCount = types.EstimateFrameCount(duration, fps)
	}

	return types.Metadata{
		FPS:        fps,
		FrameCount: frameCount,
		Width:      stream.CodecParameters().Width(),
		Height:     stream.CodecParameters().Height(),
		Duration:   duration,
		HasAudio:   avconv.FindFirstStream(fmtCtx, astiav.MediaTypeAudio) != nil,
	}
}

// Probe reads the metadata of the first video stream.
func Probe(ctx context.Context, path string) (_ret types.Metadata, _err error) {
	logger.Debugf(ctx, "Probe(ctx, '%s')", path)
	defer func() { logger.Debugf(ctx, "/Probe(ctx, '%s'): %s %v", path, _ret, _err) }()

	closer := astikit.NewCloser()
	defer closer.Close()

	fmtCtx, err := openInput(path, closer)
	if err != nil {
		return types.Metadata{}, err
	}
	stream := avconv.FindFirstStream(fmtCtx, astiav.MediaTypeVideo)
	if stream == nil {
		return types.Metadata{}, fmt.Errorf("'%s': %w", path, ErrNoVideoStream)
	}
	metadata := metadataOf(fmtCtx, stream)
	logger.Tracef(ctx, "metadata of '%s': %s", path, spew.Sdump(metadata))
	return metadata, nil
}
