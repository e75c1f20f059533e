// Package yolo implements a detector running a YOLOv8 ONNX model via
// onnxruntime.
package yolo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/xsync"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	DefaultIoUThreshold = 0.45
	DefaultInputName    = "images"
	DefaultOutputName   = "output0"
)

// DefaultLabels are the class names of the face/plate models.
var DefaultLabels = []string{"face", "plate"}

type Config struct {
	ModelPath string

	// SharedLibraryPath is the path to the onnxruntime library, empty
	// means the onnxruntime_go default.
	SharedLibraryPath string

	// InputSize is the side of the square model input in pixels. It has
	// to be a multiple of 32.
	InputSize int

	// Labels are the class names in the order of the model outputs.
	Labels []string

	IoUThreshold float64
	Threads      int

	InputName  string
	OutputName string
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.ModelPath == "" {
		errs = append(errs, fmt.Errorf("the model path is not set"))
	} else if _, err := os.Stat(cfg.ModelPath); err != nil {
		errs = append(errs, fmt.Errorf("unable to access the model file: %w", err))
	}
	if cfg.InputSize <= 0 || cfg.InputSize%32 != 0 {
		errs = append(errs, fmt.Errorf("the input size must be a positive multiple of 32, got %d", cfg.InputSize))
	}
	if cfg.IoUThreshold < 0 || cfg.IoUThreshold > 1 {
		errs = append(errs, fmt.Errorf("the IoU threshold must be within [0, 1], got %f", cfg.IoUThreshold))
	}
	return errors.Join(errs...)
}

func (cfg Config) withDefaults() Config {
	if len(cfg.Labels) == 0 {
		cfg.Labels = DefaultLabels
	}
	if cfg.IoUThreshold == 0 {
		cfg.IoUThreshold = DefaultIoUThreshold
	}
	if cfg.InputName == "" {
		cfg.InputName = DefaultInputName
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	return cfg
}

// anchorsCount is the amount of predictions of a YOLOv8 head: one per
// cell of the stride 8, 16 and 32 grids.
func anchorsCount(inputSize int) int {
	var result int
	for _, stride := range []int{8, 16, 32} {
		cells := inputSize / stride
		result += cells * cells
	}
	return result
}

// Detector runs the model on a single image at a time: the session is
// built for a batch of one and is guarded by the locker.
type Detector struct {
	Config Config

	locker  xsync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	anchors int
}

var _ detector.Detector = (*Detector)(nil)

func New(ctx context.Context, cfg Config) (_ret *Detector, _err error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "loading the YOLO model from '%s' (input %d)", cfg.ModelPath, cfg.InputSize)

	if err := acquireEnvironment(ctx, cfg.SharedLibraryPath); err != nil {
		return nil, err
	}
	d := &Detector{
		Config:  cfg,
		anchors: anchorsCount(cfg.InputSize),
	}
	defer func() {
		if _err != nil {
			d.destroy()
			releaseEnvironment(ctx)
		}
	}()

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("unable to create the session options: %w", err)
	}
	defer options.Destroy()
	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			return nil, fmt.Errorf("unable to set the amount of threads: %w", err)
		}
	}

	d.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(cfg.InputSize), int64(cfg.InputSize)))
	if err != nil {
		return nil, fmt.Errorf("unable to create the input tensor: %w", err)
	}
	d.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+len(cfg.Labels)), int64(d.anchors)))
	if err != nil {
		return nil, fmt.Errorf("unable to create the output tensor: %w", err)
	}

	d.session, err = ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{d.input},
		[]ort.ArbitraryTensor{d.output},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create the session for '%s': %w", cfg.ModelPath, err)
	}
	return d, nil
}

func (d *Detector) String() string {
	return fmt.Sprintf("YOLO(%s@%d)", d.Config.ModelPath, d.Config.InputSize)
}

func (d *Detector) Detect(
	ctx context.Context,
	batch []image.Image,
	inferenceSize int,
	confidenceThreshold float64,
) ([][]detector.RawDetection, error) {
	if inferenceSize != 0 && inferenceSize != d.Config.InputSize {
		return nil, fmt.Errorf("the model was loaded for the inference size %d, but %d was requested", d.Config.InputSize, inferenceSize)
	}
	return xsync.DoR2(ctx, &d.locker, func() ([][]detector.RawDetection, error) {
		result := make([][]detector.RawDetection, len(batch))
		for idx, img := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			dets, err := d.detectOne(img, confidenceThreshold)
			if err != nil {
				return nil, fmt.Errorf("image #%d: %w", idx, err)
			}
			result[idx] = dets
		}
		return result, nil
	})
}

func (d *Detector) detectOne(
	img image.Image,
	confidenceThreshold float64,
) ([]detector.RawDetection, error) {
	if d.session == nil {
		return nil, fmt.Errorf("the detector is closed")
	}
	input, lb := newLetterbox(img, d.Config.InputSize)
	fillCHW(d.input.GetData(), input)
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}
	cands := decodeOutput(
		d.output.GetData(),
		d.anchors,
		len(d.Config.Labels),
		confidenceThreshold,
		lb,
		img.Bounds(),
	)
	cands = nonMaxSuppression(cands, d.Config.IoUThreshold)
	return toRaw(cands, d.Config.Labels, img.Bounds().Min), nil
}

func (d *Detector) destroy() {
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.input != nil {
		d.input.Destroy()
		d.input = nil
	}
	if d.output != nil {
		d.output.Destroy()
		d.output = nil
	}
}

func (d *Detector) Close() error {
	ctx := context.TODO()
	return xsync.DoR1(ctx, &d.locker, func() error {
		if d.session == nil {
			return nil
		}
		d.destroy()
		return releaseEnvironment(ctx)
	})
}
