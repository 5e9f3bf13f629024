package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.JPG"))
	assert.True(t, IsSupported("b.webp"))
	assert.False(t, IsSupported("c.txt"))
	assert.False(t, IsSupported("noext"))
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	writePNG(t, path, 12, 8)

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	out := filepath.Join(dir, "out.jpg")
	require.NoError(t, Save(img, out, 90))
	saved, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), saved.Bounds())
}

func TestSaveLoadWebP(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 14))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 180
		img.Pix[i+1] = 120
		img.Pix[i+3] = 255
	}

	path := filepath.Join(dir, "out.webp")
	require.NoError(t, Save(img, path, 90))

	saved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, saved.Bounds().Dx())
	assert.Equal(t, 14, saved.Bounds().Dy())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jpg"))
	assert.Error(t, err)
}

func TestListImages_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 4)
	writePNG(t, filepath.Join(dir, "a.png"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	paths, err := ListImages(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a.png"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), paths[1])
}

func TestFocalLengthMm_NoExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.png")
	writePNG(t, path, 4, 4)
	assert.Zero(t, FocalLengthMm(path))
	assert.Zero(t, FocalLengthMm(filepath.Join(dir, "missing.jpg")))
}
