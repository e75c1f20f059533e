// Package config defines the immutable redaction job configuration.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/xaionaro-go/avredact/compositor"
	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/tracker"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	MinROIMultiplier = 0.8
	MaxROIMultiplier = 10
	MaxQuality       = 10
)

// Config is validated once by New; the pipeline never re-validates it.
type Config struct {
	BlurRadius    int
	BlurKind      compositor.BlurKind
	ROIMultiplier float64
	FeatherRadius int

	IncludeFaces  bool
	IncludePlates bool

	ConfidenceThreshold float64

	// InferenceSize is the detector input resolution.
	InferenceSize int

	TrackingDistanceFraction float64
	ForwardMemory            int
	BackwardMemory           int
	TrackSmoothing           float64

	BatchSize int
	Workers   int

	// Quality is within [0, 10], 10 is the best.
	Quality float64

	Mode                compositor.Mode
	FeatherExportedMask bool
	ExportJSON          bool
}

func Default() Config {
	return Config{
		BlurRadius:               9,
		BlurKind:                 compositor.BlurKindBox,
		ROIMultiplier:            1,
		FeatherRadius:            5,
		IncludeFaces:             true,
		IncludePlates:            true,
		ConfidenceThreshold:      0.3,
		InferenceSize:            1280,
		TrackingDistanceFraction: 0.05,
		ForwardMemory:            10,
		BackwardMemory:           10,
		TrackSmoothing:           tracker.DefaultSmoothing,
		BatchSize:                8,
		Workers:                  runtime.NumCPU(),
		Quality:                  10,
		Mode:                     compositor.ModeBlend,
	}
}

type Option func(*Config)

func WithBlur(radius int, kind compositor.BlurKind) Option {
	return func(cfg *Config) {
		cfg.BlurRadius = radius
		cfg.BlurKind = kind
	}
}

func WithFeather(radius int) Option {
	return func(cfg *Config) { cfg.FeatherRadius = radius }
}

func WithROIMultiplier(multiplier float64) Option {
	return func(cfg *Config) { cfg.ROIMultiplier = multiplier }
}

func WithKinds(faces, plates bool) Option {
	return func(cfg *Config) {
		cfg.IncludeFaces = faces
		cfg.IncludePlates = plates
	}
}

func WithDetection(threshold float64, inferenceSize int) Option {
	return func(cfg *Config) {
		cfg.ConfidenceThreshold = threshold
		cfg.InferenceSize = inferenceSize
	}
}

func WithTracking(distanceFraction float64, forwardMemory, backwardMemory int) Option {
	return func(cfg *Config) {
		cfg.TrackingDistanceFraction = distanceFraction
		cfg.ForwardMemory = forwardMemory
		cfg.BackwardMemory = backwardMemory
	}
}

func WithBatching(batchSize, workers int) Option {
	return func(cfg *Config) {
		cfg.BatchSize = batchSize
		cfg.Workers = workers
	}
}

func WithQuality(quality float64) Option {
	return func(cfg *Config) { cfg.Quality = quality }
}

func WithMode(mode compositor.Mode, featherExportedMask bool) Option {
	return func(cfg *Config) {
		cfg.Mode = mode
		cfg.FeatherExportedMask = featherExportedMask
	}
}

func WithExportJSON(export bool) Option {
	return func(cfg *Config) { cfg.ExportJSON = export }
}

// New applies the options on top of Default and validates the result.
func New(opts ...Option) (Config, error) {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports all the invalid fields at once.
func (cfg Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(cfg.BlurRadius >= 0, "blur radius must not be negative, got %d", cfg.BlurRadius)
	check(cfg.BlurKind > compositor.BlurKindUndefined && cfg.BlurKind < compositor.EndOfBlurKind, "invalid blur kind %s", cfg.BlurKind)
	check(cfg.ROIMultiplier >= MinROIMultiplier && cfg.ROIMultiplier <= MaxROIMultiplier,
		"ROI multiplier must be within [%v, %v], got %v", MinROIMultiplier, MaxROIMultiplier, cfg.ROIMultiplier)
	check(cfg.FeatherRadius >= 0, "feather radius must not be negative, got %d", cfg.FeatherRadius)
	check(cfg.IncludeFaces || cfg.IncludePlates, "at least one of faces and plates has to be included")
	check(cfg.ConfidenceThreshold >= 0 && cfg.ConfidenceThreshold <= 1, "confidence threshold must be within [0, 1], got %v", cfg.ConfidenceThreshold)
	check(cfg.InferenceSize > 0, "inference size must be positive, got %d", cfg.InferenceSize)
	check(cfg.TrackingDistanceFraction >= 0 && cfg.TrackingDistanceFraction <= 1,
		"tracking distance fraction must be within [0, 1], got %v", cfg.TrackingDistanceFraction)
	check(cfg.ForwardMemory >= 0, "forward memory must not be negative, got %d", cfg.ForwardMemory)
	check(cfg.BackwardMemory >= 0, "backward memory must not be negative, got %d", cfg.BackwardMemory)
	check(cfg.TrackSmoothing > 0 && cfg.TrackSmoothing <= 1, "track smoothing must be within (0, 1], got %v", cfg.TrackSmoothing)
	check(cfg.BatchSize > 0, "batch size must be positive, got %d", cfg.BatchSize)
	check(cfg.Workers > 0, "worker count must be positive, got %d", cfg.Workers)
	check(cfg.Quality >= 0 && cfg.Quality <= MaxQuality, "quality must be within [0, %d], got %v", MaxQuality, cfg.Quality)
	check(cfg.Mode > compositor.ModeUndefined && cfg.Mode < compositor.EndOfMode, "invalid output mode %s", cfg.Mode)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// KindFilter accepts the kinds enabled by the configuration.
func (cfg Config) KindFilter() detection.KindFilter {
	var kinds []detection.Kind
	if cfg.IncludeFaces {
		kinds = append(kinds, detection.KindFace)
	}
	if cfg.IncludePlates {
		kinds = append(kinds, detection.KindPlate)
	}
	return detection.IncludeKinds(kinds...)
}

func (cfg Config) CompositorOptions() compositor.Options {
	return compositor.Options{
		BlurRadius:          cfg.BlurRadius,
		BlurKind:            cfg.BlurKind,
		FeatherRadius:       cfg.FeatherRadius,
		Mode:                cfg.Mode,
		FeatherExportedMask: cfg.FeatherExportedMask,
	}
}

func (cfg Config) TrackerConfig(frameHeight int) tracker.Config {
	return tracker.Config{
		DistanceFraction: cfg.TrackingDistanceFraction,
		FrameHeight:      frameHeight,
		ForwardMemory:    cfg.ForwardMemory,
		BackwardMemory:   cfg.BackwardMemory,
		Smoothing:        cfg.TrackSmoothing,
	}
}

// RenderWorkers is the size of the render pool: there is no use in more
// workers than CPUs or than frames in a batch.
func (cfg Config) RenderWorkers() int {
	return max(min(cfg.Workers, runtime.NumCPU(), cfg.BatchSize), 1)
}
