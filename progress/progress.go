// Package progress provides the progress reporting sinks of the pipeline.
//
// The pipeline only talks to the Sink interface and does not know whether
// it reports to a terminal, to a log or to an asynchronous consumer (e.g. a UI).
package progress

const (
	UnitFrames = "frames"
)

// Sink receives progress of a stage.
//
// Init starts a new stage (and implicitly ends the previous one, if it was
// not finished), Update advances it and Finish ends it.
type Sink interface {
	Init(total int64, unit, description string)
	Update(increment int64)
	Finish()
}

// Nop discards all the progress.
type Nop struct{}

var _ Sink = Nop{}

func (Nop) Init(total int64, unit, description string) {}
func (Nop) Update(increment int64)                     {}
func (Nop) Finish()                                    {}

// Multi forwards the progress to all of the sinks.
type Multi []Sink

var _ Sink = Multi(nil)

func (m Multi) Init(total int64, unit, description string) {
	for _, s := range m {
		s.Init(total, unit, description)
	}
}

func (m Multi) Update(increment int64) {
	for _, s := range m {
		s.Update(increment)
	}
}

func (m Multi) Finish() {
	for _, s := range m {
		s.Finish()
	}
}
