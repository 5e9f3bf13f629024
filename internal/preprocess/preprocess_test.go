package preprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timdobras/Realtr-sub000/internal/pixel"
)

func TestDownscale_ExactHalf(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1600, 1200))
	out := Downscale(img, 800)
	assert.Equal(t, 800, out.Bounds().Dx())
	assert.Equal(t, 600, out.Bounds().Dy())
}

func TestDownscale_SmallerUnchanged(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 640, 480))
	out := Downscale(img, 800)
	assert.Same(t, image.Image(img), out)
}

func TestDownscale_PortraitOrientation(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1200, 1600))
	out := Downscale(img, 800)
	assert.Equal(t, 600, out.Bounds().Dx())
	assert.Equal(t, 800, out.Bounds().Dy())
}

func TestLensCoefficient_Bands(t *testing.T) {
	assert.Equal(t, 0.0, LensCoefficient(0))
	assert.Equal(t, -0.12, LensCoefficient(12))
	assert.Equal(t, -0.12, LensCoefficient(14))
	assert.Equal(t, -0.08, LensCoefficient(16))
	assert.Equal(t, -0.04, LensCoefficient(24))
	assert.Equal(t, 0.0, LensCoefficient(35))
}

func TestRun_ProducesWorkingScaleBuffer(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1600, 1200))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 130, 130, 130, 255
	}

	gray, err := Run(img, 16, DefaultParams(), pixel.Select())
	require.NoError(t, err)
	assert.Equal(t, 800, gray.Width)
	assert.Equal(t, 600, gray.Height)
}

func TestRun_NilImage(t *testing.T) {
	_, err := Run(nil, 0, DefaultParams(), pixel.Select())
	assert.Error(t, err)
}
