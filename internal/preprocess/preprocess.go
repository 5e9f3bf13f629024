// Package preprocess normalizes decoded photographs into the grayscale
// buffers the line detector consumes: lens correction, downscale, grayscale,
// edge-preserving smoothing, and local contrast normalization, in that order.
package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/timdobras/Realtr-sub000/internal/pixel"
)

// Params controls the preprocessing stages.
type Params struct {
	// TargetLongEdge fixes the working scale; every downstream pixel-distance
	// threshold assumes this size. Images already smaller are left unchanged.
	TargetLongEdge int

	BilateralSpatialSigma float64
	BilateralRangeSigma   float64

	EqualizeTiles     int
	EqualizeClipLimit float64
}

// DefaultParams returns the tuning used by the production pipeline.
func DefaultParams() Params {
	return Params{
		TargetLongEdge:        800,
		BilateralSpatialSigma: 2.0,
		BilateralRangeSigma:   25.0, // keeps wall/frame edges, smooths texture
		EqualizeTiles:         8,
		EqualizeClipLimit:     2.5,
	}
}

// LensCoefficient maps a lens focal length to a barrel-distortion k1
// coefficient. Wide-angle lenses common in interior photography get stronger
// correction; unknown focal length (0) means no correction.
func LensCoefficient(focalLengthMm float64) float64 {
	switch {
	case focalLengthMm <= 0:
		return 0
	case focalLengthMm <= 14:
		return -0.12
	case focalLengthMm <= 18:
		return -0.08
	case focalLengthMm <= 24:
		return -0.04
	default:
		return 0
	}
}

// Run executes the preprocessing pipeline. Individual stage failures degrade
// gracefully (the stage is skipped) rather than aborting; only an unusable
// input image is an error.
func Run(img image.Image, focalLengthMm float64, p Params, backend pixel.Backend) (*pixel.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("nil input image")
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("empty input image %dx%d", bounds.Dx(), bounds.Dy())
	}

	// 1. Lens correction, before any rescaling so k1 matches the captured
	// geometry.
	if k1 := LensCoefficient(focalLengthMm); k1 != 0 {
		corrected, err := backend.Undistort(imaging.Clone(img), k1)
		if err != nil {
			logrus.WithError(err).Warn("lens correction failed, continuing without it")
		} else {
			img = corrected
		}
	}

	// 2. Downscale the longest edge to the working size.
	img = Downscale(img, p.TargetLongEdge)

	// 3. Grayscale.
	gray := pixel.FromImage(img)

	// 4. Edge-preserving smoothing.
	if smoothed, err := backend.Bilateral(gray, p.BilateralSpatialSigma, p.BilateralRangeSigma); err != nil {
		logrus.WithError(err).Warn("bilateral smoothing failed, continuing unsmoothed")
	} else {
		gray = smoothed
	}

	// 5. Local contrast normalization.
	if equalized, err := backend.Equalize(gray, p.EqualizeTiles, p.EqualizeClipLimit); err != nil {
		logrus.WithError(err).Warn("contrast normalization failed, continuing without it")
	} else {
		gray = equalized
	}

	return gray, nil
}

// Downscale limits the longest edge to target using Lanczos filtering.
// Images at or below the target are returned unchanged.
func Downscale(img image.Image, target int) image.Image {
	bounds := img.Bounds()
	if target <= 0 || (bounds.Dx() <= target && bounds.Dy() <= target) {
		return img
	}
	return imaging.Fit(img, target, target, imaging.Lanczos)
}
