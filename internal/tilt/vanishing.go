package tilt

import (
	"math"

	"github.com/timdobras/Realtr-sub000/internal/lines"
	"github.com/timdobras/Realtr-sub000/pkg/geometry"
)

// VPEstimate is an independent geometric estimate of the camera roll from a
// vanishing point. The position may lie far outside the image bounds; a
// near-infinite vanishing point is expected for near-parallel structure.
type VPEstimate struct {
	Position            geometry.Point2D `json:"position"`
	TiltAngleDegrees    float64          `json:"tilt_angle_degrees"`
	Confidence          float64          `json:"confidence"` // capped below line-based confidence
	SupportingPairCount int              `json:"supporting_pair_count"`
}

// estimateVerticalVP triangulates the vertical vanishing point from all
// pairwise intersections of the vertical group, keeps only candidates far
// above or far below the frame, and condenses them with weighted mean-shift.
func estimateVerticalVP(group []lines.Classified, imageWidth, imageHeight int, p Params) (VPEstimate, bool) {
	w, h := float64(imageWidth), float64(imageHeight)

	points, weights := pairIntersections(group, func(pt geometry.Point2D) bool {
		return pt.Y < -p.VPFarFrac*h || pt.Y > (1+p.VPFarFrac)*h
	})
	if len(points) == 0 {
		return VPEstimate{}, false
	}

	bandwidth := p.VPBandwidthFrac * w
	cluster, inFrac := meanShift(points, weights, bandwidth, p.VPMaxIterations)

	// Horizontal offset of the far vertical VP from the image center, over
	// the absolute cluster height, implies the roll angle.
	offsetX := cluster.X - w/2
	tilt := math.Atan(offsetX/math.Abs(cluster.Y)) * 180 / math.Pi

	return VPEstimate{
		Position:            cluster,
		TiltAngleDegrees:    tilt,
		Confidence:          vpConfidence(inFrac, len(points), p),
		SupportingPairCount: len(points),
	}, true
}

// estimateHorizontalVP is the axes-swapped analogue over the horizontal group:
// candidates far left or far right of the frame, vertical offset implying the
// roll.
func estimateHorizontalVP(group []lines.Classified, imageWidth, imageHeight int, p Params) (VPEstimate, bool) {
	w, h := float64(imageWidth), float64(imageHeight)

	points, weights := pairIntersections(group, func(pt geometry.Point2D) bool {
		return pt.X < -p.VPFarFrac*w || pt.X > (1+p.VPFarFrac)*w
	})
	if len(points) == 0 {
		return VPEstimate{}, false
	}

	bandwidth := p.VPBandwidthFrac * h
	cluster, inFrac := meanShift(points, weights, bandwidth, p.VPMaxIterations)

	offsetY := cluster.Y - h/2
	tilt := math.Atan(offsetY/math.Abs(cluster.X)) * 180 / math.Pi

	return VPEstimate{
		Position:            cluster,
		TiltAngleDegrees:    tilt,
		Confidence:          vpConfidence(inFrac, len(points), p),
		SupportingPairCount: len(points),
	}, true
}

// pairIntersections intersects every pair of group members as infinite lines
// and keeps the intersections accepted by the position filter. The pair
// weight is the product of the member weights, so long structural pairs
// dominate the cluster the same way they dominate the RANSAC support.
func pairIntersections(group []lines.Classified, keep func(geometry.Point2D) bool) ([]geometry.Point2D, []float64) {
	var points []geometry.Point2D
	var weights []float64

	for i := 0; i < len(group); i++ {
		li := group[i].Line()
		for j := i + 1; j < len(group); j++ {
			pt, ok := li.Intersection(group[j].Line())
			if !ok || !keep(pt) {
				continue
			}
			points = append(points, pt)
			weights = append(weights, group[i].Weight*group[j].Weight)
		}
	}
	return points, weights
}

// meanShift condenses weighted points with a Gaussian kernel, starting at the
// weighted centroid. Returns the converged mode and the weight fraction
// within one bandwidth of it.
func meanShift(points []geometry.Point2D, weights []float64, bandwidth float64, maxIterations int) (geometry.Point2D, float64) {
	center := geometry.WeightedCentroid(points, weights)
	if bandwidth <= 0 {
		return center, 1
	}

	twoBw2 := 2 * bandwidth * bandwidth
	for iter := 0; iter < maxIterations; iter++ {
		var sumX, sumY, sumW float64
		for i, pt := range points {
			d := pt.Distance(center)
			k := weights[i] * math.Exp(-d*d/twoBw2)
			sumX += pt.X * k
			sumY += pt.Y * k
			sumW += k
		}
		if sumW == 0 {
			break
		}
		next := geometry.Point2D{X: sumX / sumW, Y: sumY / sumW}
		if next.Distance(center) < bandwidth*1e-3 {
			center = next
			break
		}
		center = next
	}

	var inWeight, totalWeight float64
	for i, pt := range points {
		totalWeight += weights[i]
		if pt.Distance(center) <= bandwidth {
			inWeight += weights[i]
		}
	}
	inFrac := 0.0
	if totalWeight > 0 {
		inFrac = inWeight / totalWeight
	}
	return center, inFrac
}

// vpConfidence scores a vanishing-point estimate from cluster tightness and
// the number of supporting pairs, capped well below line-based confidence.
func vpConfidence(inFrac float64, pairCount int, p Params) float64 {
	support := math.Min(1, float64(pairCount)/6.0)
	conf := p.VPConfidenceCap * inFrac * support
	if conf > p.VPConfidenceCap {
		conf = p.VPConfidenceCap
	}
	return conf
}

// Validate cross-checks the RANSAC angle against the vanishing-point
// estimates and returns the adjusted angle, the adjusted confidence, and the
// vertical vanishing point when one was found.
func Validate(r Result, vertical, horizontal []lines.Classified, imageWidth, imageHeight int, p Params) (float64, float64, *VPEstimate) {
	angle := r.AngleDegrees
	confidence := r.Confidence

	vvp, vOK := estimateVerticalVP(vertical, imageWidth, imageHeight, p)
	hvp, hOK := estimateHorizontalVP(horizontal, imageWidth, imageHeight, p)

	if vOK {
		switch {
		case abs(vvp.TiltAngleDegrees-angle) <= verticalAgreementDeg:
			confidence += verticalBoostWeight * vvp.Confidence
		case vvp.Confidence > vpOverrideFraction*confidence:
			// The geometric estimate is credible and disagrees; pull the
			// angle toward it and trust the whole result less.
			angle = blendKeepRansac*angle + blendTowardVP*vvp.TiltAngleDegrees
			confidence *= overridePenalty
		default:
			confidence *= minorPenalty
		}
	}

	if hOK {
		// The horizontal group is a secondary cue: looser agreement band,
		// smaller boost, penalty only on disagreement.
		if abs(hvp.TiltAngleDegrees-angle) <= horizontalAgreementDeg {
			confidence += horizontalBoostWeight * hvp.Confidence
		} else {
			confidence *= minorPenalty
		}
	}

	if vOK && hOK && abs(vvp.TiltAngleDegrees-hvp.TiltAngleDegrees) <= verticalAgreementDeg {
		confidence += mutualAgreementBoost
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > confidenceCeiling {
		confidence = confidenceCeiling
	}

	if !vOK {
		return angle, confidence, nil
	}
	return angle, confidence, &vvp
}
