// Package imaging normalizes proof-of-presence snapshots attached to face
// registration and clock events. Images are optional everywhere: callers skip
// this package entirely when no snapshot was captured.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// JPEGQuality is the fixed re-encoding quality for stored snapshots.
const JPEGQuality = 85

// Compress decodes an image, scales it down so its largest dimension does not
// exceed maxSize while keeping the aspect ratio, and re-encodes it as JPEG at
// a fixed quality. Images already within bounds are still re-encoded so that
// stored payloads have a uniform format and predictable footprint.
func Compress(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxSize || height > maxSize {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = int(float64(height) * float64(maxSize) / float64(width))
		} else {
			newHeight = maxSize
			newWidth = int(float64(width) * float64(maxSize) / float64(height))
		}
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}

		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeDataURL extracts raw image bytes from a base64 data URL of the form
// "data:image/jpeg;base64,...". Plain base64 payloads without the data URL
// prefix are accepted too, since older capture clients sent those.
func DecodeDataURL(s string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		_, b64, found := strings.Cut(rest, ";base64,")
		if !found {
			return nil, fmt.Errorf("unsupported data URL encoding")
		}
		s = b64
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image payload: %w", err)
	}
	return data, nil
}

// EncodeDataURL wraps JPEG bytes in a data URL for JSON responses.
func EncodeDataURL(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
