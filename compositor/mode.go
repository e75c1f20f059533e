// mode.go defines the output Mode enum.

package compositor

import (
	"fmt"
	"strings"
)

// Mode selects what the compositor produces.
type Mode int

const (
	ModeUndefined = Mode(iota)

	// ModeBlend blends the blurred frame into the original one.
	ModeBlend

	// ModeMask outputs the mask itself.
	ModeMask

	// ModeColoredMask outputs the mask with the intensity scaled by the
	// detection score and every kind drawn into its own color channel.
	ModeColoredMask

	EndOfMode
)

func (m Mode) String() string {
	switch m {
	case ModeUndefined:
		return "undefined"
	case ModeBlend:
		return "blend"
	case ModeMask:
		return "mask"
	case ModeColoredMask:
		return "colored-mask"
	default:
		return fmt.Sprintf("unknown_mode_%d", int(m))
	}
}

func (m Mode) IsMaskExport() bool {
	return m == ModeMask || m == ModeColoredMask
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m := ModeUndefined + 1; m < EndOfMode; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeUndefined, fmt.Errorf("unknown output mode '%s'", s)
}

// BlurKind selects the full-frame blur implementation.
type BlurKind int

const (
	BlurKindUndefined = BlurKind(iota)
	BlurKindBox
	BlurKindGaussian
	BlurKindCV
	EndOfBlurKind
)

func (k BlurKind) String() string {
	switch k {
	case BlurKindUndefined:
		return "undefined"
	case BlurKindBox:
		return "box"
	case BlurKindGaussian:
		return "gaussian"
	case BlurKindCV:
		return "cv"
	default:
		return fmt.Sprintf("unknown_blur_kind_%d", int(k))
	}
}

func ParseBlurKind(s string) (BlurKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := BlurKindUndefined + 1; k < EndOfBlurKind; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return BlurKindUndefined, fmt.Errorf("unknown blur kind '%s'", s)
}
