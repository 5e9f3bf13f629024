// Package rectify applies the accepted rotation to an image and crops away
// the black borders the rotation introduces, with a guard against excessive
// content loss.
package rectify

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/timdobras/Realtr-sub000/internal/tilt"
	"github.com/timdobras/Realtr-sub000/pkg/geometry"
)

// minCropAreaFrac aborts the auto-crop when the detected content box is
// suspiciously small; the uncropped rotated image is returned instead.
const minCropAreaFrac = 0.70

// cropMargin insets the detected content box to exclude the soft
// interpolated border left by the warp.
const cropMargin = 2

// Apply straightens the image according to the analysis. When no correction
// is needed the input is returned unchanged. A non-invertible transform is a
// geometry error and also returns the input unchanged.
func Apply(img image.Image, analysis tilt.PerspectiveAnalysis) image.Image {
	if !analysis.NeedsCorrection || analysis.SuggestedRotationDegrees == 0 {
		return img
	}

	src := imaging.Clone(img)
	rotated, ok := rotate(src, -analysis.SuggestedRotationDegrees)
	if !ok {
		logrus.Warn("rotation transform not invertible, skipping correction")
		return img
	}

	return autoCrop(rotated)
}

// rotate warps the image about its center by the given angle using backward
// mapping with bilinear sampling. The destination buffer never aliases the
// source; pixels mapping outside the source stay transparent black.
func rotate(src *image.NRGBA, degrees float64) (*image.NRGBA, bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	center := geometry.Point2D{X: float64(w-1) / 2, Y: float64(h-1) / 2}

	forward := geometry.RotationAbout(degrees*math.Pi/180, center)
	backward, ok := forward.Inverse()
	if !ok {
		return nil, false
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				srcPt := backward.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
				if srcPt.X < 0 || srcPt.X > float64(w-1) || srcPt.Y < 0 || srcPt.Y > float64(h-1) {
					continue
				}
				c := sampleBilinear(src, srcPt.X, srcPt.Y)
				off := y*dst.Stride + x*4
				dst.Pix[off] = c[0]
				dst.Pix[off+1] = c[1]
				dst.Pix[off+2] = c[2]
				dst.Pix[off+3] = c[3]
			}
		}
	})
	return dst, true
}

func sampleBilinear(img *image.NRGBA, x, y float64) [4]uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	var out [4]uint8
	for c := 0; c < 4; c++ {
		v00 := float64(img.Pix[y0*img.Stride+x0*4+c])
		v10 := float64(img.Pix[y0*img.Stride+x1*4+c])
		v01 := float64(img.Pix[y1*img.Stride+x0*4+c])
		v11 := float64(img.Pix[y1*img.Stride+x1*4+c])
		top := v00*(1-fx) + v10*fx
		bot := v01*(1-fx) + v11*fx
		out[c] = uint8(top*(1-fy) + bot*fy + 0.5)
	}
	return out
}

// autoCrop finds the bounding box of content pixels (sufficiently opaque and
// not near-pure-black), insets it by a small margin, and crops. If the crop
// would lose more than the allowed share of the image, the uncropped input is
// returned.
func autoCrop(img *image.NRGBA) image.Image {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	minX, minY := w, h
	maxX, maxY := -1, -1
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			if a < 200 {
				continue
			}
			if r <= 8 && g <= 8 && b <= 8 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		// No content found at all; geometry went wrong somewhere upstream.
		return img
	}

	minX += cropMargin
	minY += cropMargin
	maxX -= cropMargin
	maxY -= cropMargin
	if minX >= maxX || minY >= maxY {
		return img
	}

	box := geometry.RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
	if float64(box.Area()) < minCropAreaFrac*float64(w*h) {
		logrus.WithField("area_frac", float64(box.Area())/float64(w*h)).
			Debug("auto-crop box too small, keeping full rotated image")
		return img
	}

	return imaging.Crop(img, image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height))
}
