// Package ocr recognizes text in captured images. An Engine is the
// provider contract; the Adapter layers preprocessing, confidence
// aggregation and the never-throws failure policy on top.
package ocr

import "context"

// Input is a single image submitted for recognition.
type Input struct {
	// Image is the encoded (JPEG/PNG) payload.
	Image []byte
	// Languages holds trained-data hints (e.g., "eng", "jpn").
	Languages []string
}

// Line is one recognized text line with its confidence in [0,1].
type Line struct {
	Text       string
	Confidence float64
}

// Result is the engine output for one input.
type Result struct {
	Text string
	// Lines carries per-line confidences when the engine exposes them;
	// empty otherwise.
	Lines []Line
}

// Engine is the provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
