package avconv

import (
	"github.com/asticode/go-astiav"
)

func FindStreamByIndex(
	fmtCtx *astiav.FormatContext,
	streamIndex int,
) *astiav.Stream {
	for _, stream := range fmtCtx.Streams() {
		if stream.Index() == streamIndex {
			return stream
		}
	}
	return nil
}

// FindFirstStream returns the first stream of the media type, or nil.
func FindFirstStream(
	fmtCtx *astiav.FormatContext,
	mediaType astiav.MediaType,
) *astiav.Stream {
	for _, stream := range fmtCtx.Streams() {
		if stream.CodecParameters().MediaType() == mediaType {
			return stream
		}
	}
	return nil
}
