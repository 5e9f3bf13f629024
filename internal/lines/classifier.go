package lines

import (
	"math"

	"github.com/timdobras/Realtr-sub000/pkg/geometry"
)

// Orientation tags a segment as part of the vertical or horizontal structure.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// PositionRole describes where a segment sits in the frame. Long central
// segments are the most trustworthy evidence of building structure; segments
// hugging the image border are often frames, doorways, or cropped clutter.
type PositionRole int

const (
	RoleInterior PositionRole = iota
	RoleStructural
	RoleBorder
)

func (r PositionRole) String() string {
	switch r {
	case RoleStructural:
		return "structural"
	case RoleBorder:
		return "border"
	default:
		return "interior"
	}
}

// Classified owns a Segment and adds the orientation tag, spatial role, the
// weight every downstream weighted computation uses, and the segment's tilt
// folded into a single roll convention. Created once per detection pass and
// never mutated.
type Classified struct {
	Segment

	Orientation Orientation
	Role        PositionRole

	// Weight scales with length squared so one long wall edge can outweigh
	// many short noisy segments, scaled by a role factor.
	Weight float64

	// TiltDegrees is the image-roll angle implied by this segment. For
	// vertical segments it equals AngleFromVertical; horizontal segments are
	// folded onto the same convention so both groups are comparable.
	TiltDegrees float64
}

// ClassifierParams controls orientation tolerances and role assignment.
type ClassifierParams struct {
	VerticalToleranceDeg   float64
	HorizontalToleranceDeg float64

	// BorderMarginFrac is the distance from an image edge, as a fraction of
	// the smaller image dimension, inside which a segment midpoint is tagged
	// Border.
	BorderMarginFrac float64

	// StructuralLengthFrac is the minimum length, as a fraction of image
	// height, for the Structural role.
	StructuralLengthFrac float64
}

// DefaultClassifierParams returns the production classification tuning.
func DefaultClassifierParams() ClassifierParams {
	return ClassifierParams{
		VerticalToleranceDeg:   20,
		HorizontalToleranceDeg: 15,
		BorderMarginFrac:       0.08,
		StructuralLengthFrac:   0.35,
	}
}

// Role weight factors. Structural segments dominate, border segments are
// distrusted but not discarded.
const (
	structuralFactor = 1.5
	interiorFactor   = 1.0
	borderFactor     = 0.5
)

// Classify tags each segment with orientation, spatial role, weight, and
// folded tilt. Segments that are neither near-vertical nor near-horizontal
// carry no roll evidence and are dropped.
func Classify(segments []Segment, imageWidth, imageHeight int, p ClassifierParams) []Classified {
	w, h := float64(imageWidth), float64(imageHeight)
	margin := p.BorderMarginFrac * math.Min(w, h)
	interior := geometry.Rect{X: margin, Y: margin, Width: w - 2*margin, Height: h - 2*margin}

	classified := make([]Classified, 0, len(segments))
	for _, seg := range segments {
		abs := math.Abs(seg.AngleFromVertical)

		var orient Orientation
		var tilt float64
		switch {
		case abs <= p.VerticalToleranceDeg:
			orient = Vertical
			tilt = seg.AngleFromVertical
		case 90-abs <= p.HorizontalToleranceDeg:
			orient = Horizontal
			if seg.AngleFromVertical > 0 {
				tilt = seg.AngleFromVertical - 90
			} else {
				tilt = seg.AngleFromVertical + 90
			}
		default:
			continue
		}

		mid := seg.Midpoint()

		role := RoleInterior
		factor := interiorFactor
		switch {
		case !interior.Contains(mid):
			role = RoleBorder
			factor = borderFactor
		case seg.Length >= p.StructuralLengthFrac*h:
			role = RoleStructural
			factor = structuralFactor
		}

		classified = append(classified, Classified{
			Segment:     seg,
			Orientation: orient,
			Role:        role,
			Weight:      seg.Length * seg.Length * factor,
			TiltDegrees: tilt,
		})
	}
	return classified
}

// Split separates classified lines into the vertical and horizontal groups.
func Split(classified []Classified) (vertical, horizontal []Classified) {
	for _, c := range classified {
		if c.Orientation == Vertical {
			vertical = append(vertical, c)
		} else {
			horizontal = append(horizontal, c)
		}
	}
	return vertical, horizontal
}
