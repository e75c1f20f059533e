// Package avredact redacts faces and license plates in videos.
//
// A job detects the objects in batches of frames, stabilizes the
// detections over time with a two-pass tracker, blurs them frame by
// frame on a worker pool and finally puts the original audio back.
package avredact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Job is a single video to redact.
type Job struct {
	InputPath  string
	OutputPath string
}

func (j Job) String() string {
	return fmt.Sprintf("'%s' -> '%s'", j.InputPath, j.OutputPath)
}

// Validate checks the paths before any frame is processed.
func (j Job) Validate() error {
	var errs []error
	if j.InputPath == "" {
		errs = append(errs, fmt.Errorf("the input path is empty"))
	}
	if j.OutputPath == "" {
		errs = append(errs, fmt.Errorf("the output path is empty"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if stat, err := os.Stat(j.InputPath); err != nil {
		errs = append(errs, fmt.Errorf("unable to access the input: %w", err))
	} else if stat.IsDir() {
		errs = append(errs, fmt.Errorf("the input '%s' is a directory", j.InputPath))
	}
	if stat, err := os.Stat(filepath.Dir(j.OutputPath)); err != nil {
		errs = append(errs, fmt.Errorf("unable to access the output directory: %w", err))
	} else if !stat.IsDir() {
		errs = append(errs, fmt.Errorf("'%s' is not a directory", filepath.Dir(j.OutputPath)))
	}
	if samePath(j.InputPath, j.OutputPath) || samePath(j.InputPath, j.TempPath()) {
		errs = append(errs, fmt.Errorf("the output would overwrite the input '%s'", j.InputPath))
	}
	return errors.Join(errs...)
}

// TempPath is the video-only intermediate file: "<stem>_copy<ext>" next
// to the output.
func (j Job) TempPath() string {
	ext := filepath.Ext(j.OutputPath)
	return strings.TrimSuffix(j.OutputPath, ext) + "_copy" + ext
}

// ExportPath is the detections file: the output path with the extension
// replaced by ".json".
func (j Job) ExportPath() string {
	return strings.TrimSuffix(j.OutputPath, filepath.Ext(j.OutputPath)) + ".json"
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
