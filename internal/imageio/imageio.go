// Package imageio provides image decode/encode and EXIF metadata access for
// the straightening pipeline.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// supportedExtensions lists the raster formats the batch scanner accepts.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
}

// IsSupported reports whether the file extension is a known raster format.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load decodes an image file. WebP is decoded explicitly; the remaining
// formats go through the registered stdlib/x-image decoders.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		img, err := webp.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode webp %s: %w", filepath.Base(path), err)
		}
		return img, nil
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Save encodes an image to path, with the format chosen by extension. WebP
// is encoded explicitly at the JPEG quality setting; the remaining formats go
// through imaging.
func Save(img image.Image, path string, jpegQuality int) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("save %s: %w", filepath.Base(path), err)
		}
		if err := webp.Encode(f, img, &webp.Options{Quality: float32(jpegQuality)}); err != nil {
			f.Close()
			return fmt.Errorf("encode webp %s: %w", filepath.Base(path), err)
		}
		return f.Close()
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ListImages returns the supported image files directly inside dir, ordered
// lexicographically by filename so batch results are deterministic.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// FocalLengthMm extracts the lens focal length from EXIF metadata.
// Files without EXIF data (or without the tag) report 0 with no error.
func FocalLengthMm(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	meta, err := exif.Decode(f)
	if err != nil {
		return 0
	}
	tag, err := meta.Get(exif.FocalLength)
	if err != nil {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
