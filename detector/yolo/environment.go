// environment.go manages the process-wide onnxruntime environment.

package yolo

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/xsync"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	environmentLocker xsync.Mutex
	environmentUsers  int
)

// acquireEnvironment initializes the onnxruntime environment on the first
// use; it is shared by all the detectors of the process.
func acquireEnvironment(ctx context.Context, sharedLibraryPath string) error {
	return xsync.DoR1(ctx, &environmentLocker, func() error {
		if environmentUsers == 0 {
			if sharedLibraryPath != "" {
				ort.SetSharedLibraryPath(sharedLibraryPath)
			}
			if err := ort.InitializeEnvironment(); err != nil {
				return fmt.Errorf("unable to initialize the onnxruntime environment: %w", err)
			}
		}
		environmentUsers++
		return nil
	})
}

func releaseEnvironment(ctx context.Context) error {
	return xsync.DoR1(ctx, &environmentLocker, func() error {
		if environmentUsers == 0 {
			return nil
		}
		environmentUsers--
		if environmentUsers > 0 {
			return nil
		}
		return ort.DestroyEnvironment()
	})
}
