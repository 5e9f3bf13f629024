// Package pixel provides owned grayscale pixel buffers and the dual
// accelerated/CPU filter backend used by the preprocessing pipeline.
package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// Gray is an owned, contiguous 8-bit grayscale buffer indexed by (x, y).
// The stride is always Width; rows are packed.
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGray allocates a zeroed grayscale buffer.
func NewGray(width, height int) *Gray {
	return &Gray{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromImage converts any image to a grayscale buffer using Rec. 601 luma.
func FromImage(img image.Image) *Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := NewGray(w, h)

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			copy(g.Pix[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return g
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gr, b, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(b)
			g.Pix[i] = uint8(lum / 257.0)
			i++
		}
	}
	return g
}

// At returns the pixel value at (x, y). Out-of-bounds coordinates are clamped.
func (g *Gray) At(x, y int) uint8 {
	if x < 0 {
		x = 0
	} else if x >= g.Width {
		x = g.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.Height {
		y = g.Height - 1
	}
	return g.Pix[y*g.Width+x]
}

// Set writes the pixel value at (x, y). Out-of-bounds writes are ignored.
func (g *Gray) Set(x, y int, v uint8) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return
	}
	g.Pix[y*g.Width+x] = v
}

// Clone returns a deep copy of the buffer.
func (g *Gray) Clone() *Gray {
	out := NewGray(g.Width, g.Height)
	copy(out.Pix, g.Pix)
	return out
}

// ToImage converts the buffer to a standard library grayscale image.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+g.Width], g.Pix[y*g.Width:(y+1)*g.Width])
	}
	return img
}

// Plane returns the buffer as a row-major float64 plane (index = x + y*Width),
// the layout the line-segment detector consumes.
func (g *Gray) Plane() []float64 {
	plane := make([]float64, len(g.Pix))
	for i, v := range g.Pix {
		plane[i] = float64(v)
	}
	return plane
}

// Validate checks buffer consistency.
func (g *Gray) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid buffer dimensions %dx%d", g.Width, g.Height)
	}
	if len(g.Pix) != g.Width*g.Height {
		return fmt.Errorf("buffer length %d does not match %dx%d", len(g.Pix), g.Width, g.Height)
	}
	return nil
}

// bilinearNRGBA samples an NRGBA image at fractional coordinates, clamping
// at the borders.
func bilinearNRGBA(img *image.NRGBA, x, y float64) color.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	clamp := func(v, hi int) int {
		if v < 0 {
			return 0
		}
		if v >= hi {
			return hi - 1
		}
		return v
	}

	x0, y0 := int(x), int(y)
	fx, fy := x-float64(x0), y-float64(y0)

	px := func(xi, yi int) (float64, float64, float64, float64) {
		xi, yi = clamp(xi, w), clamp(yi, h)
		off := yi*img.Stride + xi*4
		return float64(img.Pix[off]), float64(img.Pix[off+1]), float64(img.Pix[off+2]), float64(img.Pix[off+3])
	}

	r00, g00, b00, a00 := px(x0, y0)
	r10, g10, b10, a10 := px(x0+1, y0)
	r01, g01, b01, a01 := px(x0, y0+1)
	r11, g11, b11, a11 := px(x0+1, y0+1)

	mix := func(v00, v10, v01, v11 float64) uint8 {
		top := v00*(1-fx) + v10*fx
		bot := v01*(1-fx) + v11*fx
		return uint8(top*(1-fy) + bot*fy + 0.5)
	}

	return color.NRGBA{
		R: mix(r00, r10, r01, r11),
		G: mix(g00, g10, g01, g11),
		B: mix(b00, b10, b01, b11),
		A: mix(a00, a10, a01, a11),
	}
}
