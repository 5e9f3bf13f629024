package tilt

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/timdobras/Realtr-sub000/internal/lines"
)

// Result is the per-orientation output of the RANSAC angle estimate.
type Result struct {
	AngleDegrees       float64
	Confidence         float64 // winning weighted support / total weight, in [0,1]
	InlierCount        int
	AngleStdDevDegrees float64 // weighted, over the winning inliers
}

// Estimator runs weighted RANSAC over one orientation group at a time.
// The random source is injected so tests and reruns are reproducible.
type Estimator struct {
	params Params
	rng    *rand.Rand
}

// NewEstimator creates an estimator. A nil rng gets a time-seeded source.
func NewEstimator(params Params, rng *rand.Rand) *Estimator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Estimator{params: params, rng: rng}
}

// Estimate finds the dominant tilt angle of a classified line group.
//
// Each iteration picks one line uniformly at random as the hypothesis angle
// and accumulates the weighted support of all lines within the inlier
// threshold; the hypothesis with maximum support wins. The final angle is the
// weight-refined mean of the winning inliers, not the raw hypothesis.
func (e *Estimator) Estimate(group []lines.Classified) Result {
	switch len(group) {
	case 0:
		return Result{}
	case 1:
		// Degenerate but deterministic.
		return Result{
			AngleDegrees: group[0].TiltDegrees,
			Confidence:   1,
			InlierCount:  1,
		}
	}

	var totalWeight float64
	for _, c := range group {
		totalWeight += c.Weight
	}

	var bestSupport float64
	var bestInliers []int
	for iter := 0; iter < e.params.Iterations; iter++ {
		hypothesis := group[e.rng.Intn(len(group))].TiltDegrees

		var support float64
		var inliers []int
		for i, c := range group {
			if abs(c.TiltDegrees-hypothesis) <= e.params.InlierThresholdDeg {
				support += c.Weight
				inliers = append(inliers, i)
			}
		}
		if support > bestSupport {
			bestSupport = support
			bestInliers = inliers
		}
	}

	if len(bestInliers) == 0 {
		return Result{}
	}

	angles := make([]float64, len(bestInliers))
	weights := make([]float64, len(bestInliers))
	for i, idx := range bestInliers {
		angles[i] = group[idx].TiltDegrees
		weights[i] = group[idx].Weight
	}

	refined := stat.Mean(angles, weights)
	stddev := 0.0
	if len(bestInliers) > 1 {
		stddev = stat.StdDev(angles, weights)
	}

	confidence := 0.0
	if totalWeight > 0 {
		confidence = bestSupport / totalWeight
	}

	return Result{
		AngleDegrees:       refined,
		Confidence:         confidence,
		InlierCount:        len(bestInliers),
		AngleStdDevDegrees: stddev,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
