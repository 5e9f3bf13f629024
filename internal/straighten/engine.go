// Package straighten runs the batch pipeline: preprocess, detect lines,
// estimate tilt, rectify, and stage corrected copies for review.
package straighten

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timdobras/Realtr-sub000/internal/config"
	"github.com/timdobras/Realtr-sub000/internal/imageio"
	"github.com/timdobras/Realtr-sub000/internal/lines"
	"github.com/timdobras/Realtr-sub000/internal/pixel"
	"github.com/timdobras/Realtr-sub000/internal/preprocess"
	"github.com/timdobras/Realtr-sub000/internal/rectify"
	"github.com/timdobras/Realtr-sub000/internal/staging"
	"github.com/timdobras/Realtr-sub000/internal/tilt"
)

// CorrectionResult is the per-image outcome of a batch run. Images the
// pipeline could not process come back with NeedsCorrection false and an
// empty StagedPath; they never abort the batch.
type CorrectionResult struct {
	Filename        string  `json:"filename"`
	OriginalPath    string  `json:"original_path"`
	StagedPath      string  `json:"staged_path,omitempty"`
	RotationDegrees float64 `json:"rotation_degrees"`
	Confidence      float64 `json:"confidence"`
	NeedsCorrection bool    `json:"needs_correction"`
	LinesDetected   int     `json:"lines_detected"`
	Decision        string  `json:"decision"`
	Reason          string  `json:"reason,omitempty"`
	Preview         string  `json:"preview,omitempty"`
}

// AcceptedCorrection pairs an original image path with its staged corrected
// copy for finalization.
type AcceptedCorrection struct {
	OriginalPath string `json:"original_path"`
	StagedPath   string `json:"staged_path"`
}

// Engine processes property photo directories.
type Engine struct {
	backend    pixel.Backend
	area       staging.Area
	workers    int
	preview    int
	quality    int
	seed       int64
	preprocess preprocess.Params
	detector   lines.DetectorParams
	classifier lines.ClassifierParams
	tilt       tilt.Params
}

// NewEngine builds an engine from the application config with default
// pipeline tuning.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		backend:    pixel.Select(),
		area:       staging.Area{Root: cfg.RootDir},
		workers:    cfg.Workers,
		preview:    cfg.PreviewWidth,
		quality:    cfg.JPEGQuality,
		seed:       time.Now().UnixNano(),
		preprocess: preprocess.DefaultParams(),
		detector:   lines.DefaultDetectorParams(),
		classifier: lines.DefaultClassifierParams(),
		tilt:       tilt.DefaultParams(),
	}
}

// SetSeed fixes the random source used for angle sampling, making batch
// results reproducible.
func (e *Engine) SetSeed(seed int64) { e.seed = seed }

// AnalyzeAndCorrect processes every supported image in a property's
// directory, staging a corrected copy for each accepted image. The staging
// area for the property is cleared before the run. Results come back in
// lexicographic filename order.
func (e *Engine) AnalyzeAndCorrect(ctx context.Context, propertyID string) ([]CorrectionResult, error) {
	if err := e.area.Clear(propertyID); err != nil {
		return nil, err
	}
	stagingDir, err := e.area.Dir(propertyID)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(e.area.Root, propertyID)
	paths, err := imageio.ListImages(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	results := make([]CorrectionResult, len(paths))
	pool := newPool(e.workers)
	for i, path := range paths {
		name := filepath.Base(path)
		pool.submit(func() {
			if ctx.Err() != nil {
				results[i] = failedResult(dir, name, ctx.Err())
				return
			}
			results[i] = e.processOne(dir, stagingDir, name, e.seed+int64(i))
		})
	}
	pool.wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// processOne runs the full pipeline for a single image. Any failure is
// folded into the result; the worst outcome for an image is no correction.
func (e *Engine) processOne(dir, stagingDir, name string, seed int64) CorrectionResult {
	path := filepath.Join(dir, name)
	log := logrus.WithField("image", name)

	original, err := imageio.Load(path)
	if err != nil {
		log.WithError(err).Warn("could not load image")
		return failedResult(dir, name, err)
	}

	focal := imageio.FocalLengthMm(path)
	processed, err := preprocess.Run(original, focal, e.preprocess, e.backend)
	if err != nil {
		log.WithError(err).Warn("preprocessing failed")
		return failedResult(dir, name, err)
	}

	segments := lines.Detect(processed, e.detector)
	classified := lines.Classify(segments, processed.Width, processed.Height, e.classifier)

	rng := rand.New(rand.NewSource(seed))
	analysis := tilt.Analyze(classified, processed.Width, processed.Height, e.tilt, rng)

	result := CorrectionResult{
		Filename:        name,
		OriginalPath:    path,
		RotationDegrees: analysis.SuggestedRotationDegrees,
		Confidence:      analysis.Confidence,
		NeedsCorrection: analysis.NeedsCorrection,
		LinesDetected:   analysis.LinesDetected,
		Decision:        analysis.Decision.String(),
		Reason:          analysis.Reason,
	}
	if !analysis.NeedsCorrection {
		log.WithFields(logrus.Fields{
			"decision": result.Decision,
			"reason":   result.Reason,
		}).Debug("no correction staged")
		return result
	}

	corrected := rectify.Apply(original, analysis)
	stagedPath := filepath.Join(stagingDir, name)
	if err := imageio.Save(corrected, stagedPath, e.quality); err != nil {
		log.WithError(err).Warn("could not stage corrected image")
		return failedResult(dir, name, err)
	}
	result.StagedPath = stagedPath

	if e.preview > 0 {
		preview, err := rectify.Preview(corrected, e.preview, e.quality)
		if err != nil {
			log.WithError(err).Warn("could not encode preview")
		} else {
			result.Preview = preview
		}
	}

	log.WithFields(logrus.Fields{
		"rotation":   fmt.Sprintf("%.2f", result.RotationDegrees),
		"confidence": fmt.Sprintf("%.2f", result.Confidence),
	}).Info("staged corrected image")
	return result
}

func failedResult(dir, name string, err error) CorrectionResult {
	return CorrectionResult{
		Filename:     name,
		OriginalPath: filepath.Join(dir, name),
		Decision:     "failed",
		Reason:       err.Error(),
	}
}

// AcceptCorrections finalizes reviewed images by copying each staged file
// over its original and removing the staged copy. It returns the number of
// successful promotions plus a message per failure.
func (e *Engine) AcceptCorrections(accepted []AcceptedCorrection) (int, []string) {
	successCount := 0
	var errors []string
	for _, a := range accepted {
		if err := staging.Replace(a.StagedPath, a.OriginalPath); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		successCount++
	}
	return successCount, errors
}

// CleanupStaging removes the staging directory for one property.
func (e *Engine) CleanupStaging(propertyID string) error {
	return e.area.Clear(propertyID)
}

// CleanupAllStaging removes staging directories for every property.
func (e *Engine) CleanupAllStaging() error {
	return e.area.ClearAll()
}
