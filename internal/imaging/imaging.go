// Package imaging provides the crop/resize/compress operations the OCR
// pipeline applies before recognition.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/png" // register PNG decoding

	"golang.org/x/image/draw"

	"github.com/clipshelf/clipshelf/internal/selection"
)

// Decode decodes a JPEG or PNG image from raw bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// CropToArea crops img to the selection area. The area is expressed against
// the capture's native size; when the decoded image differs (some pipelines
// re-encode at a different resolution) the area is rescaled to match before
// cropping.
func CropToArea(img image.Image, area selection.Area) (image.Image, error) {
	if area.IsEmpty() {
		return nil, fmt.Errorf("crop: selection area is empty")
	}

	bounds := img.Bounds()
	scaleX, scaleY := 1.0, 1.0
	if area.ImageWidth > 0 {
		scaleX = float64(bounds.Dx()) / area.ImageWidth
	}
	if area.ImageHeight > 0 {
		scaleY = float64(bounds.Dy()) / area.ImageHeight
	}

	rect := image.Rect(
		bounds.Min.X+int(math.Round(area.X*scaleX)),
		bounds.Min.Y+int(math.Round(area.Y*scaleY)),
		bounds.Min.X+int(math.Round((area.X+area.Width)*scaleX)),
		bounds.Min.Y+int(math.Round((area.Y+area.Height)*scaleY)),
	).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop: selection outside image bounds")
	}

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)
	return cropped, nil
}

// ScaleToWidth scales img down so its width does not exceed maxWidth,
// preserving aspect ratio. Images already narrow enough are returned
// unchanged.
func ScaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return img
	}
	ratio := float64(maxWidth) / float64(bounds.Dx())
	height := int(math.Round(float64(bounds.Dy()) * ratio))
	if height < 1 {
		height = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return scaled
}

// EncodeJPEG re-encodes img as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Prepare runs the full preprocessing step: optional crop to the selection
// area, scale to a bounded width, JPEG re-encode.
func Prepare(data []byte, area *selection.Area, maxWidth, quality int) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if area != nil && !area.IsEmpty() {
		img, err = CropToArea(img, *area)
		if err != nil {
			return nil, err
		}
	}
	img = ScaleToWidth(img, maxWidth)
	return EncodeJPEG(img, quality)
}
