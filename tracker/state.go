// state.go defines the State enum of a track.

package tracker

import (
	"fmt"
)

// State is the lifecycle state of a track within a single pass.
type State int

const (
	StateUndefined = State(iota)

	// StateTentative is a track that is not yet reported: it waits for
	// InitializationDelay more hits.
	StateTentative

	// StateConfirmed is a track matched on the current frame.
	StateConfirmed

	// StateStale is a confirmed track that was not matched on the current
	// frame and is reported at its last estimate.
	StateStale

	// StateEvicted is a track that is not tracked anymore.
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateTentative:
		return "tentative"
	case StateConfirmed:
		return "confirmed"
	case StateStale:
		return "stale"
	case StateEvicted:
		return "evicted"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}

// Direction is the temporal direction of a pass.
type Direction int

const (
	DirectionForward = Direction(iota)
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return fmt.Sprintf("unknown_direction_%d", int(d))
	}
}
