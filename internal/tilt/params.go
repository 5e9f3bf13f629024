// Package tilt estimates camera roll from classified line segments: a
// weighted RANSAC angle estimate, an independent vanishing-point cross-check,
// and a staged quality gate that prefers skipping a correction over guessing.
package tilt

// Params holds the estimation and gating thresholds.
// These are tuned for interior photographs at the 800px working scale.
type Params struct {
	// RANSAC
	Iterations         int     // hypothesis draws per orientation group
	InlierThresholdDeg float64 // angular distance for inlier support

	// Vanishing-point cross-check
	VPBandwidthFrac  float64 // mean-shift kernel bandwidth as fraction of image width
	VPMaxIterations  int
	VPConfidenceCap  float64 // geometric triangulation is noisier than line fits
	VPFarFrac        float64 // how far outside the frame an intersection must fall

	// Quality gate, checked in order
	MinInliers        int
	MinConfidence     float64
	MaxAngleStdDevDeg float64
	MinRotationDeg    float64 // below: already straight
	MaxRotationDeg    float64 // above: too large to auto-correct safely
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		Iterations:         64,
		InlierThresholdDeg: 2.0,

		VPBandwidthFrac: 0.2,
		VPMaxIterations: 20,
		VPConfidenceCap: 0.6,
		VPFarFrac:       0.5, // at least half an image dimension beyond the frame

		MinInliers:        3,
		MinConfidence:     0.55,
		MaxAngleStdDevDeg: 1.5,
		MinRotationDeg:    0.5,
		MaxRotationDeg:    12.0,
	}
}

// Reconciliation constants for the vanishing-point cross-check. Empirically
// tuned; changing them changes accept/reject behavior on borderline images.
const (
	verticalAgreementDeg   = 1.5
	horizontalAgreementDeg = 2.0

	verticalBoostWeight   = 0.15
	horizontalBoostWeight = 0.08
	mutualAgreementBoost  = 0.10

	// A disagreeing VP overrides only when its confidence clears this
	// fraction of the line-based confidence.
	vpOverrideFraction = 0.8

	blendKeepRansac = 0.7
	blendTowardVP   = 0.3

	overridePenalty = 0.85
	minorPenalty    = 0.95

	// Final confidence never reaches full certainty.
	confidenceCeiling = 0.90
)
