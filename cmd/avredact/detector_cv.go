//go:build with_cv
// +build with_cv

package main

import (
	"context"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/detector/cascade"
)

func newCascadeDetector(
	ctx context.Context,
	classifiers map[detection.Kind]string,
) (detector.Detector, error) {
	cfg := cascade.DefaultConfig()
	cfg.Classifiers = classifiers
	d, err := cascade.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}
