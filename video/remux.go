package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avredact/avconv"
	"github.com/xaionaro-go/avredact/logger"
)

// Remuxer combines the video of one file with the audio of another one by
// copying the packets in-process, no external tools required. Like
// ffmpeg's -shortest, it stops at the end of the shorter stream.
type Remuxer struct{}

func (Remuxer) String() string {
	return "LibAVRemuxer"
}

type remuxInput struct {
	fmtCtx  *astiav.FormatContext
	stream  *astiav.Stream
	output  *astiav.Stream
	packet  *astiav.Packet
	pending bool
	eof     bool
}

func (in *remuxInput) fill() error {
	for !in.pending && !in.eof {
		err := in.fmtCtx.ReadFrame(in.packet)
		if errors.Is(err, astiav.ErrEof) {
			in.eof = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to read a packet: %w", err)
		}
		if in.packet.StreamIndex() != in.stream.Index() {
			in.packet.Unref()
			continue
		}
		in.pending = true
	}
	return nil
}

func (in *remuxInput) timestamp() float64 {
	ts := in.packet.Dts()
	if d := avconv.Duration(ts, in.stream.TimeBase()); d != avconv.NoDuration {
		return d.Seconds()
	}
	return avconv.Duration(in.packet.Pts(), in.stream.TimeBase()).Seconds()
}

func openRemuxInput(
	path string,
	mediaType astiav.MediaType,
	closer *astikit.Closer,
) (*remuxInput, error) {
	fmtCtx, err := openInput(path, closer)
	if err != nil {
		return nil, err
	}
	stream := avconv.FindFirstStream(fmtCtx, mediaType)
	if stream == nil {
		return nil, fmt.Errorf("no %s stream in '%s'", mediaType, path)
	}
	packet := astiav.AllocPacket()
	closer.Add(packet.Free)
	return &remuxInput{
		fmtCtx: fmtCtx,
		stream: stream,
		packet: packet,
	}, nil
}

func (Remuxer) Combine(
	ctx context.Context,
	videoPath string,
	audioSourcePath string,
	outputPath string,
) (_err error) {
	logger.Debugf(ctx, "Combine(ctx, '%s', '%s', '%s')", videoPath, audioSourcePath, outputPath)
	defer func() { logger.Debugf(ctx, "/Combine: %v", _err) }()

	closer := astikit.NewCloser()
	defer closer.Close()

	videoIn, err := openRemuxInput(videoPath, astiav.MediaTypeVideo, closer)
	if err != nil {
		return err
	}
	audioIn, err := openRemuxInput(audioSourcePath, astiav.MediaTypeAudio, closer)
	if err != nil {
		return err
	}

	outCtx, err := astiav.AllocOutputFormatContext(nil, "", outputPath)
	if err != nil {
		return fmt.Errorf("unable to allocate the output format context for '%s': %w", outputPath, err)
	}
	if outCtx == nil {
		return errors.New("the output format context is nil")
	}
	closer.Add(outCtx.Free)

	inputs := []*remuxInput{videoIn, audioIn}
	for _, in := range inputs {
		if in.output = outCtx.NewStream(nil); in.output == nil {
			return errors.New("unable to create an output stream")
		}
		if err := in.stream.CodecParameters().Copy(in.output.CodecParameters()); err != nil {
			return fmt.Errorf("unable to copy the codec parameters: %w", err)
		}
		in.output.CodecParameters().SetCodecTag(0)
		in.output.SetTimeBase(in.stream.TimeBase())
	}

	if !outCtx.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioContext, err := astiav.OpenIOContext(outputPath, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return fmt.Errorf("unable to open '%s' for writing: %w", outputPath, err)
		}
		closer.AddWithError(ioContext.Close)
		outCtx.SetPb(ioContext)
	}
	if err := outCtx.WriteHeader(nil); err != nil {
		return fmt.Errorf("unable to write the header: %w", err)
	}

	var written int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, in := range inputs {
			if err := in.fill(); err != nil {
				return err
			}
		}
		if videoIn.eof || audioIn.eof {
			break
		}

		in := videoIn
		if audioIn.timestamp() < videoIn.timestamp() {
			in = audioIn
		}
		in.packet.SetStreamIndex(in.output.Index())
		in.packet.RescaleTs(in.stream.TimeBase(), in.output.TimeBase())
		in.packet.SetPos(-1)
		err := outCtx.WriteInterleavedFrame(in.packet)
		in.packet.Unref()
		in.pending = false
		if err != nil {
			return fmt.Errorf("unable to write a packet: %w", err)
		}
		written++
	}
	for _, in := range inputs {
		if in.pending {
			in.packet.Unref()
		}
	}

	if err := outCtx.WriteTrailer(); err != nil {
		return fmt.Errorf("unable to write the trailer: %w", err)
	}
	logger.Debugf(ctx, "remuxed %d packets into '%s'", written, outputPath)
	return nil
}
