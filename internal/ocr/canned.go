package ocr

import (
	"context"
	"sync/atomic"
)

// cannedConfidence marks canned output so it can never be mistaken for a
// genuine low-confidence recognition.
const cannedConfidence = 0.5

var cannedPhrases = []string{
	"It was the best of times, it was the worst of times.",
	"All happy families are alike; each unhappy family is unhappy in its own way.",
	"The sky above the port was the color of television, tuned to a dead channel.",
}

// CannedEngine returns a fixed rotation of placeholder passages. It exists
// to keep the capture flow usable and testable on machines without a real
// recognition dependency; the adapter logs loudly whenever it is used.
type CannedEngine struct {
	next atomic.Uint64
}

// NewCannedEngine constructs the placeholder engine.
func NewCannedEngine() *CannedEngine {
	return &CannedEngine{}
}

func (e *CannedEngine) Name() string { return "canned" }

func (e *CannedEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	phrase := cannedPhrases[e.next.Add(1)%uint64(len(cannedPhrases))]
	return Result{
		Text:  phrase,
		Lines: []Line{{Text: phrase, Confidence: cannedConfidence}},
	}, nil
}
