// Package pigoface implements a pure Go face detector based on the pigo
// pixel intensity comparison cascades. It finds faces only.
package pigoface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/logger"
)

type Config struct {
	// CascadePath is the path to the "facefinder" cascade file.
	CascadePath string

	// MinSize and MaxSize limit the face size in pixels of the
	// (possibly downscaled) detection image.
	MinSize int
	MaxSize int

	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64

	// QualityScale maps the cascade quality Q into a [0, 1) score as
	// 1-exp(-Q/QualityScale).
	QualityScale float64
}

func DefaultConfig() Config {
	return Config{
		MinSize:      20,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		QualityScale: 5,
	}
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.CascadePath == "" {
		errs = append(errs, fmt.Errorf("the cascade path is not set"))
	}
	if cfg.MinSize <= 0 || cfg.MaxSize < cfg.MinSize {
		errs = append(errs, fmt.Errorf("invalid face size limits [%d, %d]", cfg.MinSize, cfg.MaxSize))
	}
	if cfg.ShiftFactor <= 0 || cfg.ShiftFactor > 1 {
		errs = append(errs, fmt.Errorf("the shift factor must be within (0, 1], got %f", cfg.ShiftFactor))
	}
	if cfg.ScaleFactor <= 1 {
		errs = append(errs, fmt.Errorf("the scale factor must be greater than 1, got %f", cfg.ScaleFactor))
	}
	if cfg.QualityScale <= 0 {
		errs = append(errs, fmt.Errorf("the quality scale must be positive, got %f", cfg.QualityScale))
	}
	return errors.Join(errs...)
}

type Detector struct {
	Config     Config
	Classifier *pigo.Pigo
}

var _ detector.Detector = (*Detector)(nil)

func New(ctx context.Context, cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read the cascade file '%s': %w", cfg.CascadePath, err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unable to unpack the cascade '%s': %w", cfg.CascadePath, err)
	}
	logger.Debugf(ctx, "loaded the pigo cascade from '%s'", cfg.CascadePath)
	return &Detector{
		Config:     cfg,
		Classifier: classifier,
	}, nil
}

func (d *Detector) String() string {
	return fmt.Sprintf("Pigo(%s)", d.Config.CascadePath)
}

func (d *Detector) Detect(
	ctx context.Context,
	batch []image.Image,
	inferenceSize int,
	confidenceThreshold float64,
) ([][]detector.RawDetection, error) {
	result := make([][]detector.RawDetection, len(batch))
	for idx, img := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result[idx] = d.detectOne(img, inferenceSize, confidenceThreshold)
	}
	return result, nil
}

func (d *Detector) detectOne(
	img image.Image,
	inferenceSize int,
	confidenceThreshold float64,
) []detector.RawDetection {
	src := img.Bounds()
	scale := 1.0
	if longest := max(src.Dx(), src.Dy()); inferenceSize > 0 && longest > inferenceSize {
		img = imaging.Fit(img, inferenceSize, inferenceSize, imaging.Linear)
		scale = float64(longest) / float64(max(img.Bounds().Dx(), img.Bounds().Dy()))
	}
	b := img.Bounds()

	params := pigo.CascadeParams{
		MinSize:     d.Config.MinSize,
		MaxSize:     d.Config.MaxSize,
		ShiftFactor: d.Config.ShiftFactor,
		ScaleFactor: d.Config.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    b.Dx(),
		},
	}
	dets := d.Classifier.RunCascade(params, 0)
	dets = d.Classifier.ClusterDetections(dets, d.Config.IoUThreshold)
	return toRaw(dets, scale, src, d.Config.QualityScale, confidenceThreshold)
}

func toRaw(
	dets []pigo.Detection,
	scale float64,
	src image.Rectangle,
	qualityScale float64,
	confidenceThreshold float64,
) []detector.RawDetection {
	var result []detector.RawDetection
	for _, det := range dets {
		score := 1 - math.Exp(-float64(det.Q)/qualityScale)
		if score < confidenceThreshold {
			continue
		}
		half := float64(det.Scale) / 2
		col, row := float64(det.Col), float64(det.Row)
		result = append(result, detector.RawDetection{
			XMin:  src.Min.X + clamp(int((col-half)*scale), 0, src.Dx()),
			YMin:  src.Min.Y + clamp(int((row-half)*scale), 0, src.Dy()),
			XMax:  src.Min.X + clamp(int((col+half)*scale), 0, src.Dx()),
			YMax:  src.Min.Y + clamp(int((row+half)*scale), 0, src.Dy()),
			Score: score,
			Label: detection.KindFace.String(),
		})
	}
	return result
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func (d *Detector) Close() error {
	return nil
}
