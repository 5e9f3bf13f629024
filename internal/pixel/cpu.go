package pixel

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// cpuBackend is the baseline pure-Go implementation. It is always available
// and parallelizes internally over row bands, so it needs no cross-image
// locking.
type cpuBackend struct{}

func newCPUBackend() *cpuBackend {
	return &cpuBackend{}
}

func (cpuBackend) Name() string { return "cpu" }

func (cpuBackend) Undistort(src *image.NRGBA, k1 float64) (*image.NRGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source image")
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty source image %dx%d", w, h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if k1 == 0 {
		copy(dst.Pix, src.Pix)
		return dst, nil
	}

	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	// Radius is normalized by the half-diagonal so k1 is size-independent.
	norm := 1.0 / math.Hypot(cx, cy)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				dx := (float64(x) - cx) * norm
				dy := (float64(y) - cy) * norm
				scale := 1 + k1*(dx*dx+dy*dy)

				sx := cx + (float64(x)-cx)*scale
				sy := cy + (float64(y)-cy)*scale

				c := bilinearNRGBA(src, sx, sy)
				off := y*dst.Stride + x*4
				dst.Pix[off] = c.R
				dst.Pix[off+1] = c.G
				dst.Pix[off+2] = c.B
				dst.Pix[off+3] = c.A
			}
		}
	})
	return dst, nil
}

func (cpuBackend) Bilateral(src *Gray, spatialSigma, rangeSigma float64) (*Gray, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if spatialSigma <= 0 || rangeSigma <= 0 {
		return nil, fmt.Errorf("invalid bilateral sigmas %f/%f", spatialSigma, rangeSigma)
	}

	radius := int(2*spatialSigma + 0.5)
	if radius < 1 {
		radius = 1
	}

	// Precomputed spatial kernel and intensity-difference lookup.
	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*size+(dx+radius)] = math.Exp(-d2 / (2 * spatialSigma * spatialSigma))
		}
	}
	var rangeLUT [256]float64
	for d := 0; d < 256; d++ {
		rangeLUT[d] = math.Exp(-float64(d*d) / (2 * rangeSigma * rangeSigma))
	}

	w, h := src.Width, src.Height
	dst := NewGray(w, h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				center := src.Pix[y*w+x]
				var sum, weight float64
				for dy := -radius; dy <= radius; dy++ {
					for dx := -radius; dx <= radius; dx++ {
						v := src.At(x+dx, y+dy)
						diff := int(v) - int(center)
						if diff < 0 {
							diff = -diff
						}
						wgt := spatial[(dy+radius)*size+(dx+radius)] * rangeLUT[diff]
						sum += wgt * float64(v)
						weight += wgt
					}
				}
				dst.Pix[y*w+x] = uint8(sum/weight + 0.5)
			}
		}
	})
	return dst, nil
}

func (cpuBackend) Equalize(src *Gray, tiles int, clipLimit float64) (*Gray, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if tiles < 1 {
		return nil, fmt.Errorf("invalid tile count %d", tiles)
	}
	w, h := src.Width, src.Height
	if tiles > w || tiles > h {
		tiles = min(w, h)
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// Per-tile clipped-histogram equalization mappings.
	maps := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			maps[ty*tiles+tx] = equalizeTile(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := NewGray(w, h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			// Position relative to tile centers, for bilinear blending of
			// the four surrounding tile mappings.
			fy := (float64(y)-float64(tileH)/2 + 0.5) / float64(tileH)
			ty0 := int(math.Floor(fy))
			wy := fy - float64(ty0)
			ty1 := ty0 + 1
			ty0 = clampTile(ty0, tiles)
			ty1 = clampTile(ty1, tiles)

			for x := 0; x < w; x++ {
				fx := (float64(x)-float64(tileW)/2 + 0.5) / float64(tileW)
				tx0 := int(math.Floor(fx))
				wx := fx - float64(tx0)
				tx1 := tx0 + 1
				tx0 = clampTile(tx0, tiles)
				tx1 = clampTile(tx1, tiles)

				v := src.Pix[y*w+x]
				v00 := float64(maps[ty0*tiles+tx0][v])
				v10 := float64(maps[ty0*tiles+tx1][v])
				v01 := float64(maps[ty1*tiles+tx0][v])
				v11 := float64(maps[ty1*tiles+tx1][v])

				top := v00*(1-wx) + v10*wx
				bot := v01*(1-wx) + v11*wx
				dst.Pix[y*w+x] = uint8(top*(1-wy) + bot*wy + 0.5)
			}
		}
	})
	return dst, nil
}

// equalizeTile builds the clipped-histogram equalization mapping for one tile.
func equalizeTile(src *Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	count := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.Pix[y*src.Width+x]]++
			count++
		}
	}

	var mapping [256]uint8
	if count == 0 {
		for i := range mapping {
			mapping[i] = uint8(i)
		}
		return mapping
	}

	// Clip and redistribute the excess uniformly.
	clip := int(clipLimit * float64(count) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i, v := range hist {
		if v > clip {
			excess += v - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	rem := excess % 256
	for i := range hist {
		hist[i] += share
		if i < rem {
			hist[i]++
		}
	}

	cdf := 0
	for i, v := range hist {
		cdf += v
		mapping[i] = uint8((cdf*255 + count/2) / count)
	}
	return mapping
}

func clampTile(t, tiles int) int {
	if t < 0 {
		return 0
	}
	if t >= tiles {
		return tiles - 1
	}
	return t
}
