package tilt

import (
	"math/rand"

	"github.com/timdobras/Realtr-sub000/internal/lines"
)

// PerspectiveAnalysis is the authoritative per-image decision record.
// NeedsCorrection is true only for an Accepted decision; whenever it is
// false, SuggestedRotationDegrees is zero.
type PerspectiveAnalysis struct {
	VanishingPoint           *VPEstimate `json:"vanishing_point,omitempty"`
	SuggestedRotationDegrees float64     `json:"suggested_rotation_degrees"`
	Confidence               float64     `json:"confidence"`
	NeedsCorrection          bool        `json:"needs_correction"`
	LinesDetected            int         `json:"lines_detected"`

	Decision Decision `json:"-"`
	Reason   string   `json:"reason,omitempty"`

	// Per-orientation RANSAC results, kept for diagnostics.
	Vertical   Result `json:"vertical"`
	Horizontal Result `json:"horizontal"`
}

// Analyze runs the full estimation chain over one image's classified lines:
// per-orientation RANSAC, vanishing-point cross-validation, and the quality
// gate. The suggested rotation is the negated measured tilt, so applying it
// straightens the image.
func Analyze(classified []lines.Classified, imageWidth, imageHeight int, p Params, rng *rand.Rand) PerspectiveAnalysis {
	vertical, horizontal := lines.Split(classified)

	estimator := NewEstimator(p, rng)
	vResult := estimator.Estimate(vertical)
	hResult := estimator.Estimate(horizontal)

	angle, confidence, vp := Validate(vResult, vertical, horizontal, imageWidth, imageHeight, p)

	decision, reason := Gate(len(vertical), angle, confidence, vResult, p)

	analysis := PerspectiveAnalysis{
		VanishingPoint: vp,
		Confidence:     confidence,
		LinesDetected:  len(classified),
		Decision:       decision,
		Reason:         reason,
		Vertical:       vResult,
		Horizontal:     hResult,
	}
	if decision == Accepted {
		analysis.NeedsCorrection = true
		analysis.SuggestedRotationDegrees = -angle
	}
	return analysis
}
