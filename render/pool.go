// pool.go implements the ordered worker pool used for rendering.

package render

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/go-ng/container/heap"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/observability"
	"golang.org/x/sync/errgroup"
)

// EmitFunc receives the rendered frames in increasing index order.
type EmitFunc func(index int, frame *image.RGBA) error

// Pool renders the frames of a batch in parallel.
type Pool struct {
	Workers int
	Render  RenderFunc
}

func NewPool(workers int, render RenderFunc) *Pool {
	return &Pool{
		Workers: max(workers, 1),
		Render:  render,
	}
}

// Run renders the items (which must be sorted by Index) and emits the
// results in the same order, regardless of the order the workers finish
// in. The first error cancels the rest of the batch.
func (p *Pool) Run(
	ctx context.Context,
	items []WorkItem,
	emit EmitFunc,
) (_err error) {
	logger.Tracef(ctx, "Run: %d items", len(items))
	defer func() { logger.Tracef(ctx, "/Run: %v", _err) }()
	if len(items) == 0 {
		return nil
	}
	for idx := 1; idx < len(items); idx++ {
		if items[idx].Index <= items[idx-1].Index {
			return fmt.Errorf("the items are not sorted: index %d follows %d", items[idx].Index, items[idx-1].Index)
		}
	}

	workers := min(p.Workers, len(items))
	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan WorkItem)
	results := make(chan Output, workers)

	g.Go(func() error {
		defer close(tasks)
		for _, item := range items {
			select {
			case tasks <- item:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		g.Go(func() error {
			defer wg.Done()
			for item := range tasks {
				frame, err := p.Render(gctx, item)
				select {
				case results <- Output{Index: item.Index, Frame: frame, Err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	observability.Go(ctx, func(ctx context.Context) {
		wg.Wait()
		close(results)
	})

	g.Go(func() error {
		var pending outputsByIndex
		next := 0
		for out := range results {
			if out.Err != nil {
				return fmt.Errorf("unable to render frame %d: %w", out.Index, out.Err)
			}
			heap.Push(&pending, out)
			for len(pending) > 0 && pending[0].Index == items[next].Index {
				out := heap.Pop(&pending)
				if err := emit(out.Index, out.Frame); err != nil {
					return err
				}
				next++
			}
		}
		if next != len(items) {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("internal error: emitted %d of %d frames", next, len(items))
		}
		return nil
	})
	return g.Wait()
}

// RenderBatch renders the items and returns the frames in the items order.
func (p *Pool) RenderBatch(ctx context.Context, items []WorkItem) ([]*image.RGBA, error) {
	result := make([]*image.RGBA, 0, len(items))
	err := p.Run(ctx, items, func(_ int, frame *image.RGBA) error {
		result = append(result, frame)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// outputsByIndex is a min-heap of outputs.
type outputsByIndex []Output

func (s outputsByIndex) Len() int {
	return len(s)
}

func (s outputsByIndex) Less(i, j int) bool {
	return s[i].Index < s[j].Index
}

func (s outputsByIndex) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s *outputsByIndex) Push(o Output) {
	*s = append(*s, o)
}

func (s *outputsByIndex) Pop() Output {
	old := *s
	n := len(old)
	o := old[n-1]
	*s = old[:n-1]
	return o
}
