// file.go implements the YAML configuration file.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xaionaro-go/avredact/compositor"
	"gopkg.in/yaml.v3"
)

const maxFileSize = 1 << 20

// File is the on-disk configuration. Omitted fields keep their defaults.
// JSON files are accepted too, since JSON is valid YAML.
type File struct {
	BlurRadius    *int     `yaml:"blur_radius,omitempty"`
	BlurKind      *string  `yaml:"blur_kind,omitempty"`
	ROIMultiplier *float64 `yaml:"roi_multiplier,omitempty"`
	FeatherRadius *int     `yaml:"feather_radius,omitempty"`

	IncludeFaces  *bool `yaml:"include_faces,omitempty"`
	IncludePlates *bool `yaml:"include_plates,omitempty"`

	ConfidenceThreshold *float64 `yaml:"confidence_threshold,omitempty"`
	InferenceSize       *int     `yaml:"inference_size,omitempty"`

	TrackingDistanceFraction *float64 `yaml:"tracking_distance_fraction,omitempty"`
	ForwardMemory            *int     `yaml:"forward_memory,omitempty"`
	BackwardMemory           *int     `yaml:"backward_memory,omitempty"`
	TrackSmoothing           *float64 `yaml:"track_smoothing,omitempty"`

	BatchSize *int     `yaml:"batch_size,omitempty"`
	Workers   *int     `yaml:"workers,omitempty"`
	Quality   *float64 `yaml:"quality,omitempty"`

	Mode                *string `yaml:"mode,omitempty"`
	FeatherExportedMask *bool   `yaml:"feather_exported_mask,omitempty"`
	ExportJSON          *bool   `yaml:"export_json,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply overrides the fields of cfg which are set in the file.
func (f File) Apply(cfg *Config) error {
	set(&cfg.BlurRadius, f.BlurRadius)
	set(&cfg.ROIMultiplier, f.ROIMultiplier)
	set(&cfg.FeatherRadius, f.FeatherRadius)
	set(&cfg.IncludeFaces, f.IncludeFaces)
	set(&cfg.IncludePlates, f.IncludePlates)
	set(&cfg.ConfidenceThreshold, f.ConfidenceThreshold)
	set(&cfg.InferenceSize, f.InferenceSize)
	set(&cfg.TrackingDistanceFraction, f.TrackingDistanceFraction)
	set(&cfg.ForwardMemory, f.ForwardMemory)
	set(&cfg.BackwardMemory, f.BackwardMemory)
	set(&cfg.TrackSmoothing, f.TrackSmoothing)
	set(&cfg.BatchSize, f.BatchSize)
	set(&cfg.Workers, f.Workers)
	set(&cfg.Quality, f.Quality)
	set(&cfg.FeatherExportedMask, f.FeatherExportedMask)
	set(&cfg.ExportJSON, f.ExportJSON)

	if f.BlurKind != nil {
		kind, err := compositor.ParseBlurKind(*f.BlurKind)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		cfg.BlurKind = kind
	}
	if f.Mode != nil {
		mode, err := compositor.ParseMode(*f.Mode)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		cfg.Mode = mode
	}
	return nil
}

// LoadFile reads the file and applies it on top of Default.
func LoadFile(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to stat the config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("%w: the config file is too large: %d bytes (max %d)", ErrInvalid, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read the config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("%w: unable to parse '%s': %w", ErrInvalid, cleanPath, err)
	}
	cfg := Default()
	if err := f.Apply(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
