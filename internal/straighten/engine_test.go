package straighten

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timdobras/Realtr-sub000/internal/config"
	"github.com/timdobras/Realtr-sub000/internal/imageio"
	"github.com/timdobras/Realtr-sub000/internal/staging"
)

// tiltedRoom paints dark vertical structure lines leaning by the given angle
// on a light background, mimicking door frames in an interior photo.
func tiltedRoom(w, h int, degrees float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	bg := color.NRGBA{235, 235, 235, 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	slope := math.Tan(degrees * math.Pi / 180)
	bar := color.NRGBA{40, 40, 40, 255}
	for _, cx := range []int{240, 320, 400, 480, 560} {
		for y := 60; y < h-60; y++ {
			x0 := float64(cx) + (float64(y)-float64(h)/2)*slope
			for x := int(x0) - 5; x <= int(x0)+5; x++ {
				if x >= 0 && x < w {
					img.SetNRGBA(x, y, bar)
				}
			}
		}
	}
	return img
}

func flatImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{128, 128, 128, 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func newTestEngine(root string) *Engine {
	e := NewEngine(config.Config{
		RootDir:      root,
		Workers:      2,
		PreviewWidth: 120,
		JPEGQuality:  90,
	})
	e.SetSeed(7)
	return e
}

func TestAnalyzeAndCorrect_TiltedImageGetsStaged(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "room.png"), tiltedRoom(800, 600, 4))

	e := newTestEngine(root)
	results, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "room.png", r.Filename)
	assert.True(t, r.NeedsCorrection, "reason: %s", r.Reason)
	assert.Equal(t, "accepted", r.Decision)
	assert.InDelta(t, -4, r.RotationDegrees, 0.8)
	assert.GreaterOrEqual(t, r.Confidence, 0.55)
	assert.LessOrEqual(t, r.Confidence, 0.90)
	assert.Greater(t, r.LinesDetected, 0)
	assert.NotEmpty(t, r.Preview)

	require.NotEmpty(t, r.StagedPath)
	_, statErr := os.Stat(r.StagedPath)
	assert.NoError(t, statErr)
}

func TestAnalyzeAndCorrect_WebPInput(t *testing.T) {
	root := t.TempDir()
	orig := filepath.Join(root, "prop1", "room.webp")
	require.NoError(t, os.MkdirAll(filepath.Dir(orig), 0o755))
	require.NoError(t, imageio.Save(tiltedRoom(800, 600, 4), orig, 95))

	e := newTestEngine(root)
	results, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.True(t, r.NeedsCorrection, "decision %s: %s", r.Decision, r.Reason)
	require.NotEmpty(t, r.StagedPath)

	// The staged copy must decode as an image again.
	staged, err := imageio.Load(r.StagedPath)
	require.NoError(t, err)
	assert.Positive(t, staged.Bounds().Dx())
}

func TestAnalyzeAndCorrect_FlatImageNoCorrection(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "flat.png"), flatImage(400, 300))

	e := newTestEngine(root)
	results, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.False(t, r.NeedsCorrection)
	assert.Empty(t, r.StagedPath)
	assert.Zero(t, r.RotationDegrees)

	// Nothing should have been staged.
	entries, err := os.ReadDir(filepath.Join(root, "prop1", staging.DirName))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeAndCorrect_LexicographicOrderAndIsolation(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "b.png"), flatImage(200, 150))
	writePNG(t, filepath.Join(root, "prop1", "a.png"), flatImage(200, 150))
	// A corrupt file must not abort the batch.
	require.NoError(t, os.WriteFile(filepath.Join(root, "prop1", "c.jpg"), []byte("not an image"), 0o644))

	e := newTestEngine(root)
	results, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.png", results[0].Filename)
	assert.Equal(t, "b.png", results[1].Filename)
	assert.Equal(t, "c.jpg", results[2].Filename)

	assert.Equal(t, "failed", results[2].Decision)
	assert.False(t, results[2].NeedsCorrection)
	assert.Empty(t, results[2].StagedPath)
	assert.NotEmpty(t, results[2].Reason)
}

func TestAnalyzeAndCorrect_ClearsPreviousStaging(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "flat.png"), flatImage(200, 150))
	stale := filepath.Join(root, "prop1", staging.DirName, "stale.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	e := newTestEngine(root)
	_, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcceptCorrections_PromotesAndCleansUp(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "room.png"), tiltedRoom(800, 600, 5))

	e := newTestEngine(root)
	results, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].StagedPath)

	before, err := os.ReadFile(results[0].OriginalPath)
	require.NoError(t, err)

	n, errs := e.AcceptCorrections([]AcceptedCorrection{{
		OriginalPath: results[0].OriginalPath,
		StagedPath:   results[0].StagedPath,
	}})
	assert.Equal(t, 1, n)
	assert.Empty(t, errs)

	after, err := os.ReadFile(results[0].OriginalPath)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, statErr := os.Stat(results[0].StagedPath)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, e.CleanupStaging("prop1"))
	_, statErr = os.Stat(filepath.Join(root, "prop1", staging.DirName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcceptCorrections_PartialFailure(t *testing.T) {
	root := t.TempDir()
	staged := filepath.Join(root, "prop1", staging.DirName, "a.png")
	writePNG(t, staged, flatImage(10, 10))

	n, errs := NewEngine(config.Config{RootDir: root, Workers: 1}).AcceptCorrections([]AcceptedCorrection{
		{OriginalPath: filepath.Join(root, "prop1", "a.png"), StagedPath: staged},
		{OriginalPath: filepath.Join(root, "prop1", "b.png"), StagedPath: filepath.Join(root, "missing.png")},
	})
	assert.Equal(t, 1, n)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "missing.png")
}

func TestCorrectedImageIsStraight(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "room.png"), tiltedRoom(800, 600, 6))

	e := newTestEngine(root)
	results, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	require.True(t, results[0].NeedsCorrection)

	n, errs := e.AcceptCorrections([]AcceptedCorrection{{
		OriginalPath: results[0].OriginalPath,
		StagedPath:   results[0].StagedPath,
	}})
	require.Equal(t, 1, n)
	require.Empty(t, errs)

	// Re-analyzing the promoted image must find little or no residual tilt.
	again, err := e.AnalyzeAndCorrect(context.Background(), "prop1")
	require.NoError(t, err)
	assert.Less(t, math.Abs(again[0].RotationDegrees), 1.5)
}

func TestAnalyzeAndCorrect_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "prop1", "flat.png"), flatImage(100, 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(root)
	_, err := e.AnalyzeAndCorrect(ctx, "prop1")
	assert.ErrorIs(t, err, context.Canceled)
}
