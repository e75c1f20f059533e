// Package scaler converts decoded frames between resolutions and pixel
// formats.
package scaler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avredact/geometry"
	"github.com/xaionaro-go/avredact/helpers/closuresignaler"
	"github.com/xaionaro-go/avredact/logger"
)

type Software struct {
	*astiav.SoftwareScaleContext
	*closuresignaler.ClosureSignaler
}

func NewSoftware(
	ctx context.Context,
	src geometry.FrameSize,
	srcPixFmt astiav.PixelFormat,
	dst geometry.FrameSize,
	dstPixFmt astiav.PixelFormat,
	opts ...astiav.SoftwareScaleContextFlag,
) (*Software, error) {
	swSCtx, err := astiav.CreateSoftwareScaleContext(
		src.Width,
		src.Height,
		srcPixFmt,
		dst.Width,
		dst.Height,
		dstPixFmt,
		astiav.NewSoftwareScaleContextFlags(opts...),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create a software scale context: %w", err)
	}
	s := &Software{
		SoftwareScaleContext: swSCtx,
		ClosureSignaler:      closuresignaler.New(),
	}
	logger.Debugf(ctx, "created %s", s)
	return s, nil
}

func (s *Software) String() string {
	return fmt.Sprintf(
		"SoftwareScaler(%dx%d:%s -> %dx%d:%s)",
		s.SoftwareScaleContext.SourceWidth(),
		s.SoftwareScaleContext.SourceHeight(),
		s.SoftwareScaleContext.SourcePixelFormat(),
		s.SoftwareScaleContext.DestinationWidth(),
		s.SoftwareScaleContext.DestinationHeight(),
		s.SoftwareScaleContext.DestinationPixelFormat(),
	)
}

func (s *Software) Close(ctx context.Context) error {
	logger.Tracef(ctx, "Close")
	defer logger.Tracef(ctx, "/Close")
	if s.ClosureSignaler.Close(ctx) {
		s.SoftwareScaleContext.Free()
	}
	return nil
}

// ScaleFrame converts src into dst; dst gets allocated by libswscale if it
// has no buffers.
func (s *Software) ScaleFrame(
	ctx context.Context,
	src *astiav.Frame,
	dst *astiav.Frame,
) (_err error) {
	logger.Tracef(ctx, "ScaleFrame")
	defer logger.Tracef(ctx, "/ScaleFrame: %v", _err)
	if s.IsClosed() {
		return fmt.Errorf("scaler is closed")
	}
	if err := s.SoftwareScaleContext.ScaleFrame(src, dst); err != nil {
		return fmt.Errorf("unable to scale a frame: %w", err)
	}
	return nil
}

func (s *Software) Source() geometry.FrameSize {
	return geometry.FrameSize{
		Width:  s.SoftwareScaleContext.SourceWidth(),
		Height: s.SoftwareScaleContext.SourceHeight(),
	}
}

func (s *Software) Destination() geometry.FrameSize {
	return geometry.FrameSize{
		Width:  s.SoftwareScaleContext.DestinationWidth(),
		Height: s.SoftwareScaleContext.DestinationHeight(),
	}
}
