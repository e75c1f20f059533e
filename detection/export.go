// export.go implements the JSON form of a detection Table.

package detection

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xaionaro-go/avredact/geometry"
)

// Record is the persisted form of a Detection.
type Record struct {
	XMin  int      `json:"x_min"`
	YMin  int      `json:"y_min"`
	XMax  int      `json:"x_max"`
	YMax  int      `json:"y_max"`
	Score *float64 `json:"score,omitempty"`
	Class Kind     `json:"class"`
}

// DefaultScore is assumed for records persisted without a score.
const DefaultScore = 1.0

func RecordFromDetection(d Detection) Record {
	score := d.Score
	return Record{
		XMin:  d.Bounds.XMin,
		YMin:  d.Bounds.YMin,
		XMax:  d.Bounds.XMax,
		YMax:  d.Bounds.YMax,
		Score: &score,
		Class: d.Kind,
	}
}

func (r Record) Detection() Detection {
	score := DefaultScore
	if r.Score != nil {
		score = *r.Score
	}
	return New(geometry.NewBounds(r.XMin, r.YMin, r.XMax, r.YMax), score, r.Class)
}

// WriteJSON writes the table keyed by frame index.
func WriteJSON(w io.Writer, t Table) error {
	out := make(map[string][]Record, len(t))
	for _, frame := range t.Frames() {
		records := make([]Record, 0, len(t[frame]))
		for _, d := range t[frame] {
			records = append(records, RecordFromDetection(d))
		}
		out[strconv.Itoa(frame)] = records
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("unable to encode the detections: %w", err)
	}
	return nil
}

// ReadJSON parses a table previously written by WriteJSON.
func ReadJSON(r io.Reader) (Table, error) {
	var in map[string][]Record
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("unable to decode the detections: %w", err)
	}

	t := make(Table, len(in))
	for key, records := range in {
		frame, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid frame index '%s': %w", key, err)
		}
		if frame < 0 {
			return nil, fmt.Errorf("negative frame index %d", frame)
		}
		for _, rec := range records {
			if !rec.Class.Valid() {
				return nil, fmt.Errorf("frame %d: missing detection class", frame)
			}
			t.Add(frame, rec.Detection())
		}
	}
	return t, nil
}

func SaveJSONFile(path string, t Table) (_err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to close '%s': %w", path, err)
		}
	}()
	return WriteJSON(f, t)
}

func LoadJSONFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
