package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	binarizeThreshold = 128
	maxOCRWidth       = 2500
)

// Binarize decodes an image, converts it to grayscale and thresholds every
// pixel to black or white. Very wide images are scaled down first. The
// result is PNG encoded.
func Binarize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxOCRWidth {
		h = h * maxOCRWidth / w
		w = maxOCRWidth
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if w == bounds.Dx() {
		draw.Draw(gray, gray.Bounds(), src, bounds.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), src, bounds, draw.Src, nil)
	}

	for i, v := range gray.Pix {
		if v > binarizeThreshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
