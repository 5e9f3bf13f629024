//go:build opencv

package pixel

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// opencvBackend accelerates the filter primitives through OpenCV. It is only
// compiled in when the "opencv" build tag is set; selection still probes it at
// runtime and every operation reports failures instead of aborting, so the
// caller can fall back to the CPU path.
type opencvBackend struct{}

func newAcceleratedBackend() (Backend, error) {
	b := &opencvBackend{}
	// Probe with a tiny buffer; device or library problems surface here once.
	probe := NewGray(8, 8)
	if _, err := b.Bilateral(probe, 1.5, 20); err != nil {
		return nil, fmt.Errorf("opencv probe failed: %w", err)
	}
	return b, nil
}

func (opencvBackend) Name() string { return "opencv" }

// recoverOp converts OpenCV panics into errors so a device failure degrades
// instead of crashing the batch.
func recoverOp(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("opencv operation panicked: %v", r)
	}
}

func (opencvBackend) Undistort(src *image.NRGBA, k1 float64) (out *image.NRGBA, err error) {
	defer recoverOp(&err)
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

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, packNRGBA(src))
	if err != nil {
		return nil, fmt.Errorf("convert image to mat: %w", err)
	}
	defer mat.Close()

	mapX := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer mapX.Close()
	mapY := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer mapY.Close()

	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	norm := 1.0 / math.Hypot(cx, cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) - cx) * norm
			dy := (float64(y) - cy) * norm
			scale := 1 + k1*(dx*dx+dy*dy)
			mapX.SetFloatAt(y, x, float32(cx+(float64(x)-cx)*scale))
			mapY.SetFloatAt(y, x, float32(cy+(float64(y)-cy)*scale))
		}
	}

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.Remap(mat, &warped, &mapX, &mapY, gocv.InterpolationLinear, gocv.BorderReplicate, color.RGBA{})

	data := warped.ToBytes()
	if len(data) != len(dst.Pix) {
		return nil, fmt.Errorf("unexpected remap output size %d", len(data))
	}
	copy(dst.Pix, data)
	return dst, nil
}

func (opencvBackend) Bilateral(src *Gray, spatialSigma, rangeSigma float64) (out *Gray, err error) {
	defer recoverOp(&err)
	if err := src.Validate(); err != nil {
		return nil, err
	}

	mat, err := gocv.NewMatFromBytes(src.Height, src.Width, gocv.MatTypeCV8U, src.Pix)
	if err != nil {
		return nil, fmt.Errorf("convert buffer to mat: %w", err)
	}
	defer mat.Close()

	filtered := gocv.NewMat()
	defer filtered.Close()
	diameter := int(4*spatialSigma + 1)
	gocv.BilateralFilter(mat, &filtered, diameter, rangeSigma, spatialSigma)

	return grayFromMat(filtered, src.Width, src.Height)
}

func (opencvBackend) Equalize(src *Gray, tiles int, clipLimit float64) (out *Gray, err error) {
	defer recoverOp(&err)
	if err := src.Validate(); err != nil {
		return nil, err
	}

	mat, err := gocv.NewMatFromBytes(src.Height, src.Width, gocv.MatTypeCV8U, src.Pix)
	if err != nil {
		return nil, fmt.Errorf("convert buffer to mat: %w", err)
	}
	defer mat.Close()

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Pt(tiles, tiles))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(mat, &equalized)

	return grayFromMat(equalized, src.Width, src.Height)
}

func grayFromMat(mat gocv.Mat, w, h int) (*Gray, error) {
	data := mat.ToBytes()
	if len(data) != w*h {
		return nil, fmt.Errorf("unexpected mat size %d for %dx%d", len(data), w, h)
	}
	g := NewGray(w, h)
	copy(g.Pix, data)
	return g, nil
}

// packNRGBA returns the pixel data with any row padding removed.
func packNRGBA(img *image.NRGBA) []uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 {
		return img.Pix
	}
	packed := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		copy(packed[y*w*4:(y+1)*w*4], img.Pix[y*img.Stride:y*img.Stride+w*4])
	}
	return packed
}
