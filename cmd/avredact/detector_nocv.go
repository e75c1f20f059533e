//go:build !with_cv
// +build !with_cv

package main

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
)

func newCascadeDetector(
	context.Context,
	map[detection.Kind]string,
) (detector.Detector, error) {
	return nil, fmt.Errorf("the cascade detector requires building with the 'with_cv' tag")
}
