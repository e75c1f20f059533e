package main

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avredact/config"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/detector/pigoface"
	"github.com/xaionaro-go/avredact/detector/yolo"
)

type detectorFlags struct {
	Kind           string
	Weights        string
	ONNXRuntimeLib string
	Labels         []string
	Threads        int
	DetectionsJSON string
	CascadeFace    string
	CascadePlate   string
}

func newDetector(
	ctx context.Context,
	flags detectorFlags,
	cfg config.Config,
) (detector.Detector, error) {
	switch flags.Kind {
	case "yolo":
		return asDetector(yolo.New(ctx, yolo.Config{
			ModelPath:         flags.Weights,
			SharedLibraryPath: flags.ONNXRuntimeLib,
			InputSize:         cfg.InferenceSize,
			Labels:            flags.Labels,
			Threads:           flags.Threads,
		}))
	case "pigo":
		pigoCfg := pigoface.DefaultConfig()
		pigoCfg.CascadePath = flags.Weights
		return asDetector(pigoface.New(ctx, pigoCfg))
	case "replay":
		if flags.DetectionsJSON == "" {
			return nil, fmt.Errorf("--detections-json is required for the replay detector")
		}
		return asDetector(detector.NewReplayFromFile(flags.DetectionsJSON))
	case "cascade":
		classifiers := map[detection.Kind]string{}
		if flags.CascadeFace != "" {
			classifiers[detection.KindFace] = flags.CascadeFace
		}
		if flags.CascadePlate != "" {
			classifiers[detection.KindPlate] = flags.CascadePlate
		}
		return newCascadeDetector(ctx, classifiers)
	default:
		return nil, fmt.Errorf("unknown detector '%s', expected one of: yolo, pigo, replay, cascade", flags.Kind)
	}
}

// asDetector keeps a typed nil out of the interface.
func asDetector[T detector.Detector](d T, err error) (detector.Detector, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}
