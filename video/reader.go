package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avredact/avconv"
	"github.com/xaionaro-go/avredact/geometry"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/scaler"
	"github.com/xaionaro-go/avredact/video/types"
)

// Reader decodes the first video stream of a file into RGBA pictures.
// It is not safe for concurrent use.
type Reader struct {
	Path string

	closer    *astikit.Closer
	fmtCtx    *astiav.FormatContext
	stream    *astiav.Stream
	decoder   *astiav.CodecContext
	packet    *astiav.Packet
	frame     *astiav.Frame
	rgbaFrame *astiav.Frame
	scaler    *scaler.Software
	metadata  types.Metadata
	flushing  bool
}

func OpenReader(ctx context.Context, path string) (_ret *Reader, _err error) {
	logger.Debugf(ctx, "OpenReader(ctx, '%s')", path)
	r := &Reader{
		Path:   path,
		closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			r.closer.Close()
		}
	}()

	var err error
	r.fmtCtx, err = openInput(path, r.closer)
	if err != nil {
		return nil, err
	}
	r.stream = avconv.FindFirstStream(r.fmtCtx, astiav.MediaTypeVideo)
	if r.stream == nil {
		return nil, fmt.Errorf("'%s': %w", path, ErrNoVideoStream)
	}
	r.metadata = metadataOf(r.fmtCtx, r.stream)

	codec := astiav.FindDecoder(r.stream.CodecParameters().CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for %s", r.stream.CodecParameters().CodecID())
	}
	if r.decoder = astiav.AllocCodecContext(codec); r.decoder == nil {
		return nil, errors.New("unable to allocate a decoder context")
	}
	r.closer.Add(r.decoder.Free)
	if err := r.stream.CodecParameters().ToCodecContext(r.decoder); err != nil {
		return nil, fmt.Errorf("unable to configure the decoder: %w", err)
	}
	r.decoder.SetFramerate(r.fmtCtx.GuessFrameRate(r.stream, nil))
	if err := r.decoder.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("unable to open the decoder %s: %w", codec.Name(), err)
	}
	r.decoder.SetTimeBase(r.stream.TimeBase())

	r.packet = astiav.AllocPacket()
	r.closer.Add(r.packet.Free)
	r.frame = astiav.AllocFrame()
	r.closer.Add(r.frame.Free)
	r.rgbaFrame = astiav.AllocFrame()
	r.closer.Add(r.rgbaFrame.Free)
	return r, nil
}

func (r *Reader) Metadata() types.Metadata {
	return r.metadata
}

// ReadFrame returns the next picture, or io.EOF after the last one.
func (r *Reader) ReadFrame(ctx context.Context) (*image.RGBA, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := r.decoder.ReceiveFrame(r.frame)
		switch {
		case err == nil:
			img, err := r.convert(ctx)
			r.frame.Unref()
			return img, err
		case errors.Is(err, astiav.ErrEof):
			return nil, io.EOF
		case errors.Is(err, astiav.ErrEagain):
		default:
			return nil, fmt.Errorf("unable to receive a frame: %w", err)
		}
		if r.flushing {
			return nil, io.EOF
		}
		if err := r.feed(ctx); err != nil {
			return nil, err
		}
	}
}

// feed sends the next packet of the video stream to the decoder, or
// starts flushing it at the end of the input.
func (r *Reader) feed(ctx context.Context) error {
	for {
		err := r.fmtCtx.ReadFrame(r.packet)
		if errors.Is(err, astiav.ErrEof) {
			logger.Debugf(ctx, "reached the end of '%s', flushing the decoder", r.Path)
			r.flushing = true
			if err := r.decoder.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
				return fmt.Errorf("unable to flush the decoder: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to read a packet: %w", err)
		}
		if r.packet.StreamIndex() != r.stream.Index() {
			r.packet.Unref()
			continue
		}
		err = r.decoder.SendPacket(r.packet)
		r.packet.Unref()
		if err != nil {
			return fmt.Errorf("unable to send a packet to the decoder: %w", err)
		}
		return nil
	}
}

func (r *Reader) convert(ctx context.Context) (*image.RGBA, error) {
	size := geometry.FrameSize{Width: r.frame.Width(), Height: r.frame.Height()}
	if r.scaler == nil || r.scaler.Source() != size || r.scaler.SourcePixelFormat() != r.frame.PixelFormat() {
		if r.scaler != nil {
			r.scaler.Close(ctx)
		}
		s, err := scaler.NewSoftware(ctx, size, r.frame.PixelFormat(), size, astiav.PixelFormatRgba, astiav.SoftwareScaleContextFlagBilinear)
		if err != nil {
			return nil, err
		}
		r.scaler = s
	}

	if err := allocPictureBuffer(r.rgbaFrame, size.Width, size.Height, astiav.PixelFormatRgba); err != nil {
		return nil, fmt.Errorf("unable to allocate the RGBA frame: %w", err)
	}
	if err := r.scaler.ScaleFrame(ctx, r.frame, r.rgbaFrame); err != nil {
		return nil, err
	}

	img, err := r.rgbaFrame.Data().GuessImageFormat()
	if err != nil {
		return nil, fmt.Errorf("unable to guess the image format: %w", err)
	}
	if err := r.rgbaFrame.Data().ToImage(img); err != nil {
		return nil, fmt.Errorf("unable to convert the frame: %w", err)
	}
	return toRGBA(img), nil
}

func (r *Reader) Close() error {
	if r.scaler != nil {
		r.scaler.Close(context.TODO())
		r.scaler = nil
	}
	return r.closer.Close()
}
