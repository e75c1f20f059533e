// kind.go defines the Kind enum and the kind filters.

package detection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedKind is returned for a detection of a kind no stage
// knows how to handle.
var ErrUnsupportedKind = errors.New("detection kind is not supported")

// Kind is the category of a redacted object.
type Kind int

const (
	KindUndefined = Kind(iota)
	KindFace
	KindPlate
	EndOfKind
)

// Kinds lists all the valid kinds.
func Kinds() []Kind {
	return []Kind{KindFace, KindPlate}
}

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindFace:
		return "face"
	case KindPlate:
		return "plate"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

func (k Kind) Valid() bool {
	return k > KindUndefined && k < EndOfKind
}

// ParseKind converts a detector class label into a Kind.
func ParseKind(label string) (Kind, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, k := range Kinds() {
		if k.String() == label {
			return k, nil
		}
	}
	return KindUndefined, fmt.Errorf("unknown detection class '%s'", label)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KindFilter reports whether detections of the given kind should be kept.
type KindFilter func(Kind) bool

// IncludeKinds returns a filter accepting only the listed kinds.
func IncludeKinds(kinds ...Kind) KindFilter {
	var set [EndOfKind]bool
	for _, k := range kinds {
		if k.Valid() {
			set[k] = true
		}
	}
	return func(k Kind) bool {
		return k.Valid() && set[k]
	}
}
