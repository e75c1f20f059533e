package video

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/avredact/scaler"
	"github.com/xaionaro-go/avredact/video/types"
)

const encoderName = "libx264"

// Writer encodes RGBA pictures into an H.264 video-only file.
// It is not safe for concurrent use.
type Writer struct {
	Path   string
	Config types.WriterConfig

	closer    *astikit.Closer
	fmtCtx    *astiav.FormatContext
	stream    *astiav.Stream
	encoder   *astiav.CodecContext
	packet    *astiav.Packet
	rgbaFrame *astiav.Frame
	yuvFrame  *astiav.Frame
	scaler    *scaler.Software
	nextPTS   int64
	closed    bool
}

func CreateWriter(
	ctx context.Context,
	path string,
	cfg types.WriterConfig,
) (_ret *Writer, _err error) {
	logger.Debugf(ctx, "CreateWriter(ctx, '%s', %#+v)", path, cfg)
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid writer config %#+v", cfg)
	}
	w := &Writer{
		Path:   path,
		Config: cfg,
		closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			if w.scaler != nil {
				w.scaler.Close(ctx)
			}
			w.closer.Close()
		}
	}()

	fmtCtx, err := astiav.AllocOutputFormatContext(nil, "", path)
	if err != nil {
		return nil, fmt.Errorf("unable to allocate the output format context for '%s': %w", path, err)
	}
	if fmtCtx == nil {
		return nil, errors.New("the output format context is nil")
	}
	w.fmtCtx = fmtCtx
	w.closer.Add(fmtCtx.Free)

	codec := astiav.FindEncoderByName(encoderName)
	if codec == nil {
		codec = astiav.FindEncoder(astiav.CodecIDH264)
	}
	if codec == nil {
		return nil, errors.New("no H.264 encoder available")
	}
	if w.encoder = astiav.AllocCodecContext(codec); w.encoder == nil {
		return nil, errors.New("unable to allocate the encoder context")
	}
	w.closer.Add(w.encoder.Free)

	frameRate := RationalFromFPS(cfg.FPS)
	w.encoder.SetWidth(cfg.Width)
	w.encoder.SetHeight(cfg.Height)
	w.encoder.SetPixelFormat(astiav.PixelFormatYuv420P)
	w.encoder.SetFramerate(frameRate)
	w.encoder.SetTimeBase(astiav.NewRational(frameRate.Den(), frameRate.Num()))
	if fmtCtx.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		w.encoder.SetFlags(w.encoder.Flags() | astiav.CodecContextFlags(astiav.CodecContextFlagGlobalHeader))
	}
	crf := types.QualityToCRF(cfg.Quality)
	if err := w.encoder.PrivateData().Options().Set("crf", fmt.Sprintf("%d", crf), 0); err != nil {
		logger.Warnf(ctx, "unable to set crf %d on %s: %v", crf, codec.Name(), err)
	}
	if err := w.encoder.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("unable to open the encoder %s: %w", codec.Name(), err)
	}

	if w.stream = fmtCtx.NewStream(nil); w.stream == nil {
		return nil, errors.New("unable to create the output stream")
	}
	if err := w.stream.CodecParameters().FromCodecContext(w.encoder); err != nil {
		return nil, fmt.Errorf("unable to set the stream codec parameters: %w", err)
	}
	w.stream.SetTimeBase(w.encoder.TimeBase())

	if !fmtCtx.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioContext, err := astiav.OpenIOContext(path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("unable to open '%s' for writing: %w", path, err)
		}
		w.closer.AddWithError(ioContext.Close)
		fmtCtx.SetPb(ioContext)
	}
	if err := fmtCtx.WriteHeader(nil); err != nil {
		return nil, fmt.Errorf("unable to write the header: %w", err)
	}

	size := cfg.FrameSize()
	w.scaler, err = scaler.NewSoftware(ctx, size, astiav.PixelFormatRgba, size, astiav.PixelFormatYuv420P, astiav.SoftwareScaleContextFlagBilinear)
	if err != nil {
		return nil, err
	}

	w.packet = astiav.AllocPacket()
	w.closer.Add(w.packet.Free)
	w.rgbaFrame = astiav.AllocFrame()
	w.closer.Add(w.rgbaFrame.Free)
	w.yuvFrame = astiav.AllocFrame()
	w.closer.Add(w.yuvFrame.Free)
	if err := allocPictureBuffer(w.rgbaFrame, cfg.Width, cfg.Height, astiav.PixelFormatRgba); err != nil {
		return nil, fmt.Errorf("unable to allocate the RGBA frame: %w", err)
	}
	logger.Debugf(ctx, "writing '%s' with %s, crf %d, %s fps", path, codec.Name(), crf, frameRate)
	return w, nil
}

// AppendFrame encodes the picture as the next frame.
func (w *Writer) AppendFrame(ctx context.Context, img *image.RGBA) error {
	if w.closed {
		return errors.New("the writer is closed")
	}
	if b := img.Bounds(); b.Dx() != w.Config.Width || b.Dy() != w.Config.Height {
		return fmt.Errorf("the picture is %dx%d, but the video is %dx%d", b.Dx(), b.Dy(), w.Config.Width, w.Config.Height)
	}

	if err := w.rgbaFrame.MakeWritable(); err != nil {
		return fmt.Errorf("unable to make the frame writable: %w", err)
	}
	if err := w.rgbaFrame.Data().FromImage(asNRGBA(img)); err != nil {
		return fmt.Errorf("unable to copy the picture into the frame: %w", err)
	}
	if err := allocPictureBuffer(w.yuvFrame, w.Config.Width, w.Config.Height, astiav.PixelFormatYuv420P); err != nil {
		return fmt.Errorf("unable to allocate the YUV frame: %w", err)
	}
	if err := w.scaler.ScaleFrame(ctx, w.rgbaFrame, w.yuvFrame); err != nil {
		return err
	}
	w.yuvFrame.SetPts(w.nextPTS)
	w.nextPTS++
	return w.encode(w.yuvFrame)
}

// encode sends the frame (nil to flush) and writes all the ready packets.
func (w *Writer) encode(f *astiav.Frame) error {
	if err := w.encoder.SendFrame(f); err != nil {
		return fmt.Errorf("unable to send a frame to the encoder: %w", err)
	}
	for {
		err := w.encoder.ReceivePacket(w.packet)
		if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to receive a packet from the encoder: %w", err)
		}
		w.packet.SetStreamIndex(w.stream.Index())
		w.packet.RescaleTs(w.encoder.TimeBase(), w.stream.TimeBase())
		err = w.fmtCtx.WriteInterleavedFrame(w.packet)
		w.packet.Unref()
		if err != nil {
			return fmt.Errorf("unable to write a packet: %w", err)
		}
	}
}

// Close flushes the encoder and finalizes the file.
func (w *Writer) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close: '%s', %d frames", w.Path, w.nextPTS)
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.encode(nil); err != nil {
		errs = append(errs, err)
	}
	if err := w.fmtCtx.WriteTrailer(); err != nil {
		errs = append(errs, fmt.Errorf("unable to write the trailer: %w", err))
	}
	w.scaler.Close(ctx)
	if err := w.closer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
