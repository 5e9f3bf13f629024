package lines

import (
	lsd "github.com/raff/lsd-go"

	"github.com/timdobras/Realtr-sub000/internal/pixel"
)

// DetectorParams controls segment detection and the spatial pre-filters.
type DetectorParams struct {
	// CenterBandFrac is the width fraction of the central horizontal band
	// segments must fall in. Segments nearer the left/right borders are
	// discarded.
	CenterBandFrac float64

	// MinLengthFrac is the minimum segment length as a fraction of the image
	// height.
	MinLengthFrac float64
}

// DefaultDetectorParams returns the production detection tuning.
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		CenterBandFrac: 0.5,
		MinLengthFrac:  0.08,
	}
}

// Detect runs the LSD line-segment detector over the buffer and returns the
// normalized segments that survive the center-band and minimum-length filters.
func Detect(g *pixel.Gray, p DetectorParams) []Segment {
	if g == nil || g.Width == 0 || g.Height == 0 {
		return nil
	}

	raw, n := lsd.LSD(g.Plane(), g.Width, g.Height)

	w := float64(g.Width)
	bandHalf := p.CenterBandFrac * w / 2
	bandLo := w/2 - bandHalf
	bandHi := w/2 + bandHalf
	minLength := p.MinLengthFrac * float64(g.Height)

	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		// Each detection is a 7-tuple: x1 y1 x2 y2 width precision -log10(NFA).
		t := raw[i*7:]
		seg := NewSegment(t[0], t[1], t[2], t[3])

		if seg.Length < minLength {
			continue
		}
		if mx := seg.Midpoint().X; mx < bandLo || mx > bandHi {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}
