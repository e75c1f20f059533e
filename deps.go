// deps.go defines the video I/O, remux and progress dependencies of a Blurrer.

package avredact

import (
	"context"
	"errors"
	"image"

	"github.com/xaionaro-go/avredact/progress"
	"github.com/xaionaro-go/avredact/remux"
	"github.com/xaionaro-go/avredact/video/types"
)

// FrameReader is a sequential iterator over the decoded frames of a
// video; ReadFrame returns io.EOF after the last frame.
type FrameReader interface {
	Metadata() types.Metadata
	ReadFrame(ctx context.Context) (*image.RGBA, error)
	Close() error
}

// FrameWriter encodes the frames it is given; the file is finalized by Close.
type FrameWriter interface {
	AppendFrame(ctx context.Context, frame *image.RGBA) error
	Close(ctx context.Context) error
}

type VideoOpener func(ctx context.Context, path string) (FrameReader, error)

type VideoCreator func(ctx context.Context, path string, cfg types.WriterConfig) (FrameWriter, error)

// Deps are the outer collaborators of a Blurrer.
type Deps struct {
	Open    VideoOpener
	Create  VideoCreator
	Remuxer remux.Remuxer

	// Progress receives the progress of every stage; it may be nil.
	Progress progress.Sink
}

func (d Deps) withDefaults() Deps {
	if d.Remuxer == nil {
		d.Remuxer = &remux.FFmpeg{}
	}
	if d.Progress == nil {
		d.Progress = progress.Nop{}
	}
	return d
}

func (d Deps) Validate() error {
	var errs []error
	if d.Open == nil {
		errs = append(errs, errors.New("the video opener is not set"))
	}
	if d.Create == nil {
		errs = append(errs, errors.New("the video creator is not set"))
	}
	return errors.Join(errs...)
}
