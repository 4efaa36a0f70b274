package ocr

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/clipshelf/clipshelf/internal/imaging"
	"github.com/clipshelf/clipshelf/internal/selection"
)

const (
	// DefaultMaxWidth bounds the image width fed to recognition; larger
	// captures are scaled down first for speed.
	DefaultMaxWidth = 1280
	// DefaultJPEGQuality is the re-encode quality after preprocessing.
	DefaultJPEGQuality = 85
)

// ExtractResult is what callers see. Err is a concise reason string; the
// adapter itself never fails, so the capture screen always has something to
// render.
type ExtractResult struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	Err        string   `json:"error,omitempty"`
}

// Adapter crops and scales a capture, runs the engine and aggregates a
// confidence score. When the primary engine fails and a fallback is
// configured, the fallback's output is used and logged as such. There is no
// automatic retry; callers re-invoke on a manual retry action.
type Adapter struct {
	engine    Engine
	fallback  Engine
	languages []string
	maxWidth  int
	quality   int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithFallback sets a secondary engine used when the primary errors.
func WithFallback(engine Engine) Option {
	return func(a *Adapter) { a.fallback = engine }
}

// WithLanguages sets the trained-data hints passed to the engine.
func WithLanguages(langs ...string) Option {
	return func(a *Adapter) { a.languages = append([]string(nil), langs...) }
}

// WithMaxWidth bounds the preprocessed image width.
func WithMaxWidth(w int) Option {
	return func(a *Adapter) {
		if w > 0 {
			a.maxWidth = w
		}
	}
}

// WithJPEGQuality sets the re-encode quality.
func WithJPEGQuality(q int) Option {
	return func(a *Adapter) {
		if q >= 1 && q <= 100 {
			a.quality = q
		}
	}
}

// NewAdapter creates an adapter around the given primary engine.
func NewAdapter(engine Engine, opts ...Option) *Adapter {
	a := &Adapter{
		engine:   engine,
		maxWidth: DefaultMaxWidth,
		quality:  DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExtractText preprocesses the capture (crop to the selection area when
// present, then scale/compress) and recognizes it. Every failure is
// converted to an ExtractResult with a non-empty Err; there is no error
// return.
func (a *Adapter) ExtractText(ctx context.Context, data []byte, area *selection.Area) ExtractResult {
	prepared, err := imaging.Prepare(data, area, a.maxWidth, a.quality)
	if err != nil {
		log.Printf("OCR: preprocessing failed: %v", err)
		return ExtractResult{Err: fmt.Sprintf("preprocess: %v", err)}
	}

	input := Input{Image: prepared, Languages: a.languages}

	result, err := a.engine.Recognize(ctx, input)
	if err != nil {
		log.Printf("OCR: engine %s failed: %v", a.engine.Name(), err)
		if a.fallback == nil {
			return ExtractResult{Err: fmt.Sprintf("recognize: %v", err)}
		}
		log.Printf("OCR: falling back to %s engine; output is placeholder text, not a real recognition", a.fallback.Name())
		result, err = a.fallback.Recognize(ctx, input)
		if err != nil {
			log.Printf("OCR: fallback engine %s failed: %v", a.fallback.Name(), err)
			return ExtractResult{Err: fmt.Sprintf("recognize: %v", err)}
		}
	}

	return ExtractResult{Text: result.Text, Confidence: meanConfidence(result.Lines)}
}

// ExtractTextFromFile reads the capture at path and extracts text from it.
func (a *Adapter) ExtractTextFromFile(ctx context.Context, path string, area *selection.Area) ExtractResult {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("OCR: failed to read image %s: %v", path, err)
		return ExtractResult{Err: fmt.Sprintf("read image: %v", err)}
	}
	return a.ExtractText(ctx, data, area)
}

// meanConfidence averages per-line confidences; nil when the engine exposed
// none.
func meanConfidence(lines []Line) *float64 {
	if len(lines) == 0 {
		return nil
	}
	var sum float64
	for _, line := range lines {
		sum += line.Confidence
	}
	mean := sum / float64(len(lines))
	return &mean
}
