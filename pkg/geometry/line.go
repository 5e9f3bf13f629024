package geometry

import "math"

// Line represents an infinite 2D line in implicit form a*x + b*y + c = 0,
// with (a, b) normalized to unit length.
type Line struct {
	A, B, C float64
}

// LineThrough returns the infinite line passing through two points.
// Coincident points yield a degenerate zero line that intersects nothing.
func LineThrough(p, q Point2D) Line {
	a := q.Y - p.Y
	b := p.X - q.X
	c := q.X*p.Y - p.X*q.Y

	norm := math.Hypot(a, b)
	if norm == 0 {
		return Line{}
	}
	return Line{A: a / norm, B: b / norm, C: c / norm}
}

// Intersection returns the intersection point of two lines.
// Parallel or degenerate lines have no intersection.
func (l Line) Intersection(m Line) (Point2D, bool) {
	det := l.A*m.B - m.A*l.B
	if math.Abs(det) < 1e-12 {
		return Point2D{}, false
	}
	return Point2D{
		X: (l.B*m.C - m.B*l.C) / det,
		Y: (m.A*l.C - l.A*m.C) / det,
	}, true
}
