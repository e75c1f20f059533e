package tracker

import (
	"errors"
	"fmt"
)

const (
	// ForwardInitializationDelay makes every detection a track immediately.
	ForwardInitializationDelay = 0

	// BackwardInitializationDelay requires one more hit before a backward
	// track is reported, so single detections are not extended backwards.
	BackwardInitializationDelay = 1

	DefaultSmoothing = 0.8
)

// PassConfig configures a single tracking pass.
type PassConfig struct {
	// DistanceThreshold is the maximal Euclidean distance (in pixels) between
	// the corner vectors of a prediction and a detection to associate them.
	DistanceThreshold float64

	// Memory is the amount of consecutive unmatched frames a track survives.
	Memory int

	// InitializationDelay is the amount of extra hits a new track needs
	// before it is reported.
	InitializationDelay int

	// Smoothing is the weight of a new observation in the box estimate;
	// 1 means the estimate equals the last observation.
	Smoothing float64
}

func (cfg PassConfig) Validate() error {
	var errs []error
	if cfg.DistanceThreshold < 0 {
		errs = append(errs, fmt.Errorf("distance threshold must not be negative, got %v", cfg.DistanceThreshold))
	}
	if cfg.Memory < 0 {
		errs = append(errs, fmt.Errorf("memory must not be negative, got %d", cfg.Memory))
	}
	if cfg.InitializationDelay < 0 {
		errs = append(errs, fmt.Errorf("initialization delay must not be negative, got %d", cfg.InitializationDelay))
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("smoothing must be in (0, 1], got %v", cfg.Smoothing))
	}
	return errors.Join(errs...)
}

// Config configures the two-pass tracking.
type Config struct {
	// DistanceFraction is the association threshold as a fraction of the frame height.
	DistanceFraction float64
	FrameHeight      int
	ForwardMemory    int
	BackwardMemory   int
	Smoothing        float64
}

func (cfg Config) DistanceThreshold() float64 {
	return cfg.DistanceFraction * float64(cfg.FrameHeight)
}

func (cfg Config) Forward() PassConfig {
	return PassConfig{
		DistanceThreshold:   cfg.DistanceThreshold(),
		Memory:              cfg.ForwardMemory,
		InitializationDelay: ForwardInitializationDelay,
		Smoothing:           cfg.smoothing(),
	}
}

func (cfg Config) Backward() PassConfig {
	return PassConfig{
		DistanceThreshold:   cfg.DistanceThreshold(),
		Memory:              cfg.BackwardMemory,
		InitializationDelay: BackwardInitializationDelay,
		Smoothing:           cfg.smoothing(),
	}
}

func (cfg Config) smoothing() float64 {
	if cfg.Smoothing == 0 {
		return DefaultSmoothing
	}
	return cfg.Smoothing
}
