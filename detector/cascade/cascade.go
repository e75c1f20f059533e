//go:build with_cv
// +build with_cv

// Package cascade implements a detector based on the OpenCV Haar cascade
// classifiers, one classifier per detection kind.
package cascade

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/xaionaro-go/avredact/detection"
	"github.com/xaionaro-go/avredact/detector"
	"github.com/xaionaro-go/avredact/logger"
	"github.com/xaionaro-go/xsync"
	"gocv.io/x/gocv"
)

type Config struct {
	// Classifiers maps the kind to the path of its cascade XML.
	Classifiers map[detection.Kind]string

	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

func DefaultConfig() Config {
	return Config{
		ScaleFactor:  1.1,
		MinNeighbors: 3,
		MinSize:      16,
	}
}

type classifier struct {
	Kind       detection.Kind
	Classifier gocv.CascadeClassifier
}

// Detector reports every cascade hit with the score 1: Haar cascades
// provide no confidence.
type Detector struct {
	Config Config

	locker      xsync.Mutex
	classifiers []classifier
}

var _ detector.Detector = (*Detector)(nil)

func New(ctx context.Context, cfg Config) (_ret *Detector, _err error) {
	if len(cfg.Classifiers) == 0 {
		return nil, fmt.Errorf("no classifiers configured")
	}
	d := &Detector{Config: cfg}
	defer func() {
		if _err != nil {
			d.Close()
		}
	}()

	kinds := make([]detection.Kind, 0, len(cfg.Classifiers))
	for kind := range cfg.Classifiers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("invalid kind %d", int(kind))
		}
		path := cfg.Classifiers[kind]
		c := gocv.NewCascadeClassifier()
		if !c.Load(path) {
			c.Close()
			return nil, fmt.Errorf("unable to load the %s classifier XML '%s'", kind, path)
		}
		logger.Debugf(ctx, "loaded the %s classifier from '%s'", kind, path)
		d.classifiers = append(d.classifiers, classifier{Kind: kind, Classifier: c})
	}
	return d, nil
}

func (d *Detector) String() string {
	var kinds []string
	for _, c := range d.classifiers {
		kinds = append(kinds, c.Kind.String())
	}
	return fmt.Sprintf("HaarCascade(%s)", strings.Join(kinds, ","))
}

func (d *Detector) Detect(
	ctx context.Context,
	batch []image.Image,
	_ int,
	_ float64,
) ([][]detector.RawDetection, error) {
	return xsync.DoR2(ctx, &d.locker, func() ([][]detector.RawDetection, error) {
		result := make([][]detector.RawDetection, len(batch))
		for idx, img := range batch {
			dets, err := d.detectOne(img)
			if err != nil {
				return nil, fmt.Errorf("image #%d: %w", idx, err)
			}
			result[idx] = dets
		}
		return result, nil
	})
}

func (d *Detector) detectOne(img image.Image) ([]detector.RawDetection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("unable to convert the image: %w", err)
	}
	defer mat.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	origin := img.Bounds().Min
	minSize := image.Pt(d.Config.MinSize, d.Config.MinSize)
	var result []detector.RawDetection
	for _, c := range d.classifiers {
		rects := c.Classifier.DetectMultiScaleWithParams(
			gray,
			d.Config.ScaleFactor,
			d.Config.MinNeighbors,
			0,
			minSize,
			image.Point{},
		)
		for _, r := range rects {
			r = r.Add(origin)
			result = append(result, detector.RawDetection{
				XMin:  r.Min.X,
				YMin:  r.Min.Y,
				XMax:  r.Max.X,
				YMax:  r.Max.Y,
				Score: 1,
				Label: c.Kind.String(),
			})
		}
	}
	return result, nil
}

func (d *Detector) Close() error {
	for _, c := range d.classifiers {
		c.Classifier.Close()
	}
	d.classifiers = nil
	return nil
}
