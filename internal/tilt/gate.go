package tilt

import "fmt"

// Decision is the quality-gate outcome for one image.
type Decision int

const (
	// NoCorrectionNeeded covers every rejection: no evidence, too little
	// evidence, low confidence, or ambiguous detection.
	NoCorrectionNeeded Decision = iota

	// AlreadyStraight is a valid detection with negligible correction.
	AlreadyStraight

	// NeedsManualReview means the rotation is too large to auto-correct
	// safely.
	NeedsManualReview

	// Accepted carries a rotation the rectifier should apply.
	Accepted
)

func (d Decision) String() string {
	switch d {
	case AlreadyStraight:
		return "already straight"
	case NeedsManualReview:
		return "needs manual review"
	case Accepted:
		return "accepted"
	default:
		return "no correction needed"
	}
}

// Gate evaluates the validated estimate. Checks run in strict order and the
// first failing check wins.
func Gate(verticalLineCount int, angleDegrees, confidence float64, r Result, p Params) (Decision, string) {
	if verticalLineCount == 0 {
		return NoCorrectionNeeded, "no vertical lines detected"
	}
	if r.InlierCount < p.MinInliers {
		return NoCorrectionNeeded, fmt.Sprintf("only %d inliers (need %d)", r.InlierCount, p.MinInliers)
	}
	if confidence < p.MinConfidence {
		return NoCorrectionNeeded, fmt.Sprintf("confidence %.2f below %.2f", confidence, p.MinConfidence)
	}
	if r.AngleStdDevDegrees > p.MaxAngleStdDevDeg {
		return NoCorrectionNeeded, fmt.Sprintf("angle spread %.2f° above %.2f° (ambiguous)", r.AngleStdDevDegrees, p.MaxAngleStdDevDeg)
	}
	if abs(angleDegrees) < p.MinRotationDeg {
		return AlreadyStraight, fmt.Sprintf("tilt %.2f° below %.2f°", angleDegrees, p.MinRotationDeg)
	}
	if abs(angleDegrees) > p.MaxRotationDeg {
		return NeedsManualReview, fmt.Sprintf("tilt %.2f° above %.2f°", angleDegrees, p.MaxRotationDeg)
	}
	return Accepted, fmt.Sprintf("tilt %.2f° at confidence %.2f", angleDegrees, confidence)
}
