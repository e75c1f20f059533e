// replay.go implements the Replay detector.

package detector

import (
	"context"
	"fmt"
	"image"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/xsync"
)

// Replay replays a previously exported detection table instead of running
// a model. Frames are consumed sequentially: every Detect call advances the
// cursor by the size of the batch, and Rewind starts it over.
//
// Tracked marks a table which is already the output of the tracker (an
// export), so the boxes must not be extended once more.
type Replay struct {
	Table   detection.Table
	Tracked bool

	locker xsync.Mutex
	cursor int
}

var (
	_ Detector   = (*Replay)(nil)
	_ Rewinder   = (*Replay)(nil)
	_ Pretracked = (*Replay)(nil)
)

func NewReplay(table detection.Table) *Replay {
	return &Replay{Table: table}
}

// NewReplayFromFile loads the tracked table exported by a previous job.
func NewReplayFromFile(path string) (*Replay, error) {
	table, err := detection.LoadJSONFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load the detections from '%s': %w", path, err)
	}
	r := NewReplay(table)
	r.Tracked = true
	return r, nil
}

func (r *Replay) String() string {
	return fmt.Sprintf("Replay(%d frames)", r.Table.MaxFrame()+1)
}

func (r *Replay) Detect(
	ctx context.Context,
	batch []image.Image,
	_ int,
	confidenceThreshold float64,
) ([][]RawDetection, error) {
	return xsync.DoR2(ctx, &r.locker, func() ([][]RawDetection, error) {
		result := make([][]RawDetection, len(batch))
		for idx := range batch {
			for _, d := range r.Table.Get(r.cursor + idx) {
				if d.Score < confidenceThreshold {
					continue
				}
				result[idx] = append(result[idx], RawDetection{
					XMin:  d.Bounds.XMin,
					YMin:  d.Bounds.YMin,
					XMax:  d.Bounds.XMax,
					YMax:  d.Bounds.YMax,
					Score: d.Score,
					Label: d.Kind.String(),
				})
			}
		}
		r.cursor += len(batch)
		return result, nil
	})
}

// Rewind restarts the replay from the first frame.
func (r *Replay) Rewind(ctx context.Context) {
	r.locker.Do(ctx, func() {
		r.cursor = 0
	})
}

func (r *Replay) IsTracked() bool {
	return r.Tracked
}

func (r *Replay) Close() error {
	return nil
}
