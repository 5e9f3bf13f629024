// Package lines provides line-segment detection and classification over
// preprocessed grayscale buffers.
package lines

import (
	"math"

	"github.com/timdobras/Realtr-sub000/pkg/geometry"
)

// Segment is an immutable detected line segment. P1 is always the upper
// endpoint (smaller y, ties broken by smaller x); the direction used for the
// angle always runs P1 -> P2, so the angle sign does not depend on the order
// the detector reported the endpoints in.
type Segment struct {
	P1, P2 geometry.Point2D

	// Length in pixels of the processed image.
	Length float64

	// AngleFromVertical is the signed deviation from the vertical axis in
	// degrees, in (-90, 90].
	AngleFromVertical float64
}

// NewSegment builds a normalized segment from raw detector endpoints.
func NewSegment(x1, y1, x2, y2 float64) Segment {
	p1 := geometry.Point2D{X: x1, Y: y1}
	p2 := geometry.Point2D{X: x2, Y: y2}
	if p2.Y < p1.Y || (p2.Y == p1.Y && p2.X < p1.X) {
		p1, p2 = p2, p1
	}

	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	return Segment{
		P1:                p1,
		P2:                p2,
		Length:            math.Hypot(dx, dy),
		AngleFromVertical: math.Atan2(dx, dy) * 180 / math.Pi,
	}
}

// Midpoint returns the segment midpoint.
func (s Segment) Midpoint() geometry.Point2D {
	return geometry.Point2D{X: (s.P1.X + s.P2.X) / 2, Y: (s.P1.Y + s.P2.Y) / 2}
}

// Line returns the infinite line through the segment.
func (s Segment) Line() geometry.Line {
	return geometry.LineThrough(s.P1, s.P2)
}
