// ffmpeg.go implements the Remuxer which runs the ffmpeg binary.

package remux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/xaionaro-go/avredact/logger"
)

const (
	DefaultBinary = "ffmpeg"

	// BinaryEnvVar names the environment variable consulted when ffmpeg
	// is not in PATH.
	BinaryEnvVar = "FFMPEG_BINARY"
)

// FFmpeg runs the ffmpeg command line tool.
type FFmpeg struct {
	// Binary is the path to ffmpeg; empty means Locate.
	Binary string

	// LookPath and Getenv are replaceable for tests.
	LookPath func(string) (string, error)
	Getenv   func(string) string
}

var _ Remuxer = (*FFmpeg)(nil)

func (f *FFmpeg) String() string {
	return fmt.Sprintf("FFmpeg(%s)", f.Binary)
}

// Locate finds the ffmpeg binary: Binary if set, then PATH, then the
// FFMPEG_BINARY environment variable.
func (f *FFmpeg) Locate() (string, error) {
	if f.Binary != "" {
		return f.Binary, nil
	}
	lookPath := f.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	getenv := f.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if path, err := lookPath(DefaultBinary); err == nil {
		return path, nil
	}
	if path := getenv(BinaryEnvVar); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: '%s' is not in PATH and %s is not set", ErrToolNotFound, DefaultBinary, BinaryEnvVar)
}

// Args returns the ffmpeg arguments for Combine.
func Args(videoPath, audioSourcePath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioSourcePath,
		"-c", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outputPath,
	}
}

func (f *FFmpeg) Combine(
	ctx context.Context,
	videoPath string,
	audioSourcePath string,
	outputPath string,
) (_err error) {
	binary, err := f.Locate()
	if err != nil {
		return err
	}
	args := Args(videoPath, audioSourcePath, outputPath)
	logger.Debugf(ctx, "running %s %s", binary, strings.Join(args, " "))
	defer func() { logger.Debugf(ctx, "/Combine: %v", _err) }()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrToolNotFound, err)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
