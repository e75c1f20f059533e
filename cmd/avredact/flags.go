// flags.go maps the command line flags onto the configuration.

package main

import (
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avredact/config"
)

// configFlags are the command line overrides of the configuration file:
// only the flags given explicitly are applied.
type configFlags struct {
	file    config.File
	setters map[string]func()
}

func bind[T any](cf *configFlags, name string, value *T, dst **T) {
	cf.setters[name] = func() { *dst = value }
}

func addConfigFlags(fs *pflag.FlagSet) *configFlags {
	def := config.Default()
	cf := &configFlags{setters: map[string]func(){}}

	bind(cf, "blur", fs.Int("blur", def.BlurRadius, "blur kernel radius in pixels"), &cf.file.BlurRadius)
	bind(cf, "blur-kind", fs.String("blur-kind", def.BlurKind.String(), "blur kernel: box, gaussian or cv"), &cf.file.BlurKind)
	bind(cf, "roi", fs.Float64("roi", def.ROIMultiplier, "area multiplier of the detected regions, within [0.8, 10]"), &cf.file.ROIMultiplier)
	bind(cf, "feather", fs.Int("feather", def.FeatherRadius, "mask feathering radius in pixels, 0 disables feathering"), &cf.file.FeatherRadius)
	bind(cf, "faces", fs.Bool("faces", def.IncludeFaces, "redact faces"), &cf.file.IncludeFaces)
	bind(cf, "plates", fs.Bool("plates", def.IncludePlates, "redact license plates"), &cf.file.IncludePlates)
	bind(cf, "threshold", fs.Float64("threshold", def.ConfidenceThreshold, "minimal detection confidence"), &cf.file.ConfidenceThreshold)
	bind(cf, "inference-size", fs.Int("inference-size", def.InferenceSize, "detector input resolution"), &cf.file.InferenceSize)
	bind(cf, "tracking-distance", fs.Float64("tracking-distance", def.TrackingDistanceFraction, "association distance as a fraction of the frame height"), &cf.file.TrackingDistanceFraction)
	bind(cf, "forward-memory", fs.Int("forward-memory", def.ForwardMemory, "frames a track survives without detections, forward pass"), &cf.file.ForwardMemory)
	bind(cf, "backward-memory", fs.Int("backward-memory", def.BackwardMemory, "frames a track survives without detections, backward pass"), &cf.file.BackwardMemory)
	bind(cf, "track-smoothing", fs.Float64("track-smoothing", def.TrackSmoothing, "weight of a new observation in a track, within (0, 1]"), &cf.file.TrackSmoothing)
	bind(cf, "batch", fs.Int("batch", def.BatchSize, "frames per batch"), &cf.file.BatchSize)
	bind(cf, "workers", fs.Int("workers", def.Workers, "render workers"), &cf.file.Workers)
	bind(cf, "quality", fs.Float64("quality", def.Quality, "output quality within [0, 10]"), &cf.file.Quality)
	bind(cf, "mode", fs.String("mode", def.Mode.String(), "output: blend, mask or colored-mask"), &cf.file.Mode)
	bind(cf, "feather-mask", fs.Bool("feather-mask", def.FeatherExportedMask, "feather the exported mask"), &cf.file.FeatherExportedMask)
	bind(cf, "export-json", fs.Bool("export-json", def.ExportJSON, "save the tracked detections next to the output"), &cf.file.ExportJSON)
	return cf
}

// File returns the overrides of the flags set on the command line.
func (cf *configFlags) File(fs *pflag.FlagSet) config.File {
	fs.Visit(func(f *pflag.Flag) {
		if setter, ok := cf.setters[f.Name]; ok {
			setter()
		}
	})
	return cf.file
}

// loadConfig applies the flags on top of the file (if any) on top of the defaults.
func loadConfig(fs *pflag.FlagSet, cf *configFlags, path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if err := cf.File(fs).Apply(&cfg); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
