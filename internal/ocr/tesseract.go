package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text with a local Tesseract installation via
// gosseract.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs the Tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs OCR on the input image. Line confidences come from
// Tesseract's per-line bounding boxes, scaled to [0,1].
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	result := Result{Text: strings.TrimSpace(text)}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		for _, box := range boxes {
			line := strings.TrimSpace(box.Word)
			if line == "" {
				continue
			}
			result.Lines = append(result.Lines, Line{
				Text:       line,
				Confidence: box.Confidence / 100.0,
			})
		}
	}

	return result, nil
}
