// state.go defines the State enum of a Blurrer.

package avredact

import (
	"fmt"
)

// State is the stage a job is in:
//
//	idle -> detecting -> tracking -> rendering -> muxing -> done | aborted | failed
type State int

const (
	StateUndefined = State(iota)
	StateIdle
	StateDetecting
	StateTracking
	StateRendering
	StateMuxing
	StateDone
	StateAborted
	StateFailed
	EndOfState
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateTracking:
		return "tracking"
	case StateRendering:
		return "rendering"
	case StateMuxing:
		return "muxing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}

// IsFinal returns true if the job is over.
func (s State) IsFinal() bool {
	switch s {
	case StateDone, StateAborted, StateFailed:
		return true
	}
	return false
}

// IsWorking returns true while a job is in one of its stages.
func (s State) IsWorking() bool {
	return s > StateIdle && s < StateDone
}
