//go:build !debug_trace
// +build !debug_trace

package logger

import (
	"context"
)

// Tracef is a no-op unless built with the debug_trace tag; per-pixel and
// per-track paths log at this level.
func Tracef(ctx context.Context, format string, args ...any) {}
