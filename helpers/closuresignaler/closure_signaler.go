// Package closuresignaler signals that a resource was closed.
package closuresignaler

import (
	"context"
	"sync"

	"github.com/xaionaro-go/avredact/logger"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

// Close marks the resource closed; it returns true only for the first call,
// so the caller knows it is the one to release the resource.
func (c *ClosureSignaler) Close(ctx context.Context) bool {
	first := false
	c.closeOnce.Do(func() {
		logger.Tracef(ctx, "closing")
		close(c.c)
		first = true
	})
	return first
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}
