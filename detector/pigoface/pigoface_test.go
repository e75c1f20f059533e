package pigoface

import (
	"image"
	"math"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/detector"
)

func TestToRaw(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 50, Col: 40, Scale: 20, Q: 10},
		{Row: 5, Col: 5, Scale: 20, Q: 1},
		{Row: 2, Col: 2, Scale: 10, Q: 50},
	}

	raw := toRaw(dets, 2, image.Rect(0, 0, 100, 100), 5, 0.5)
	require.Equal(t, []detector.RawDetection{
		{XMin: 60, YMin: 80, XMax: 100, YMax: 100, Score: 1 - math.Exp(-2), Label: "face"},
		{XMin: 0, YMin: 0, XMax: 14, YMax: 14, Score: 1 - math.Exp(-10), Label: "face"},
	}, raw)

	for _, r := range raw {
		_, err := r.ToDetection()
		require.NoError(t, err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())
	cfg.CascadePath = "facefinder"
	require.NoError(t, cfg.Validate())
	cfg.ScaleFactor = 1
	require.Error(t, cfg.Validate())
}
