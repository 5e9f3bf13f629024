package rectify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// Preview encodes a scaled-down JPEG of the image as a base64 string for
// review UIs. Width caps the preview's long edge; quality is the JPEG
// quality in [1,100].
func Preview(img image.Image, width, quality int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("preview width must be positive, got %d", width)
	}
	scaled := imaging.Fit(img, width, width, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encoding preview: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
