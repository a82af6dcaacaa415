package invoice

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"

	_ "image/png"
)

const (
	maxImageDim = 2000
	jpegQuality = 85
)

// optimizeImage re-encodes an uploaded image as JPEG, scaled to fit inside
// maxImageDim on both axes. Images are never enlarged, and non-image types
// pass through untouched. The returned error signals that the original bytes
// came back unchanged.
func optimizeImage(mimeType string, data []byte) ([]byte, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageDim || h > maxImageDim {
		outW, outH := w, h
		if outW > maxImageDim {
			outH = outH * maxImageDim / outW
			outW = maxImageDim
		}
		if outH > maxImageDim {
			outW = outW * maxImageDim / outH
			outH = maxImageDim
		}
		dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return data, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
