// async.go implements the Sink which forwards progress events to a channel.

package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
	"golang.org/x/time/rate"
)

type EventType int

const (
	EventTypeUndefined = EventType(iota)
	EventTypeInit
	EventTypeUpdate
	EventTypeFinish
)

func (t EventType) String() string {
	switch t {
	case EventTypeUndefined:
		return "undefined"
	case EventTypeInit:
		return "init"
	case EventTypeUpdate:
		return "update"
	case EventTypeFinish:
		return "finish"
	default:
		return fmt.Sprintf("unknown_event_type_%d", int(t))
	}
}

// Event is a progress notification delivered by Async.
type Event struct {
	Type        EventType
	Description string
	Unit        string
	Total       int64
	Done        int64
}

// Async delivers the progress as events over a channel, for consumers
// living in another goroutine (e.g. a UI). Updates are coalesced and
// rate-limited; init and finish events are never dropped.
type Async struct {
	ctx     context.Context
	locker  xsync.Mutex
	limiter *rate.Limiter
	events  chan Event
	current Event
	pending bool
}

var _ Sink = (*Async)(nil)

func NewAsync(ctx context.Context, minInterval time.Duration, bufferSize int) *Async {
	return &Async{
		ctx:     ctx,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		events:  make(chan Event, bufferSize),
	}
}

// NewAsyncFunc creates an Async and consumes its events with fn in a
// separate goroutine until ctx is cancelled.
func NewAsyncFunc(ctx context.Context, minInterval time.Duration, fn func(Event)) *Async {
	a := NewAsync(ctx, minInterval, 16)
	observability.Go(ctx, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-a.events:
				fn(ev)
			}
		}
	})
	return a
}

// Events returns the channel the events are delivered to.
func (a *Async) Events() <-chan Event {
	return a.events
}

func (a *Async) Init(total int64, unit, description string) {
	a.locker.Do(a.ctx, func() {
		a.current = Event{
			Type:        EventTypeInit,
			Description: description,
			Unit:        unit,
			Total:       total,
		}
		a.pending = false
		a.send(a.current)
	})
}

func (a *Async) Update(increment int64) {
	a.locker.Do(a.ctx, func() {
		a.current.Done += increment
		a.pending = true
		if !a.limiter.Allow() {
			return
		}
		select {
		case a.events <- a.event(EventTypeUpdate):
			a.pending = false
		default:
		}
	})
}

func (a *Async) Finish() {
	a.locker.Do(a.ctx, func() {
		if a.pending {
			a.send(a.event(EventTypeUpdate))
			a.pending = false
		}
		a.send(a.event(EventTypeFinish))
	})
}

func (a *Async) event(t EventType) Event {
	ev := a.current
	ev.Type = t
	return ev
}

func (a *Async) send(ev Event) {
	select {
	case a.events <- ev:
	case <-a.ctx.Done():
	}
}
