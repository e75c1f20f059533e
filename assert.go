// assert.go provides the assertion helper for invariants which must never break.

package avredact

import (
	"context"

	"github.com/xaionaro-go/avredact/logger"
)

func assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panicf(ctx, "assertion failed: %v", extraArgs)
}
