// Package selection converts a drag gesture over a displayed image into a
// rectangle in the source image's native pixel space.
package selection

import (
	"fmt"
	"math"
)

// State of the selector.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateSelected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateSelected:
		return "selected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Rect is an axis-aligned rectangle in displayed (layout) coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Area is the confirmed selection in the source image's native pixel
// space. Produced once per capture session and consumed once by the OCR
// adapter.
type Area struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ImageWidth  float64 `json:"imageWidth"`
	ImageHeight float64 `json:"imageHeight"`
}

// IsEmpty reports whether the area has non-positive dimensions.
func (a Area) IsEmpty() bool { return a.Width <= 0 || a.Height <= 0 }

// Selector tracks one drag gesture: idle → selecting (Begin) → selected
// (End). Pointer positions outside the displayed bounds are clamped, not
// rejected.
type Selector struct {
	displayedW float64
	displayedH float64
	nativeW    float64
	nativeH    float64

	state          State
	startX, startY float64
	endX, endY     float64
}

// NewSelector creates a selector for an image displayed at (displayedW,
// displayedH) whose native size is (nativeW, nativeH). All dimensions must
// be positive.
func NewSelector(displayedW, displayedH, nativeW, nativeH float64) (*Selector, error) {
	if displayedW <= 0 || displayedH <= 0 || nativeW <= 0 || nativeH <= 0 {
		return nil, fmt.Errorf("selection: image dimensions must be positive (displayed %gx%g, native %gx%g)",
			displayedW, displayedH, nativeW, nativeH)
	}
	return &Selector{
		displayedW: displayedW,
		displayedH: displayedH,
		nativeW:    nativeW,
		nativeH:    nativeH,
	}, nil
}

// State returns the current state.
func (s *Selector) State() State { return s.state }

func (s *Selector) clamp(x, y float64) (float64, float64) {
	return math.Min(math.Max(x, 0), s.displayedW), math.Min(math.Max(y, 0), s.displayedH)
}

// Begin starts a drag at the given displayed coordinates.
func (s *Selector) Begin(x, y float64) {
	x, y = s.clamp(x, y)
	s.state = StateSelecting
	s.startX, s.startY = x, y
	s.endX, s.endY = x, y
}

// Update moves the drag endpoint. Ignored unless a drag is in progress.
func (s *Selector) Update(x, y float64) {
	if s.state != StateSelecting {
		return
	}
	s.endX, s.endY = s.clamp(x, y)
}

// End finishes the drag at the given displayed coordinates.
func (s *Selector) End(x, y float64) {
	if s.state != StateSelecting {
		return
	}
	s.endX, s.endY = s.clamp(x, y)
	s.state = StateSelected
}

// SelectAll selects the full displayed bounds without a drag.
func (s *Selector) SelectAll() {
	s.startX, s.startY = 0, 0
	s.endX, s.endY = s.displayedW, s.displayedH
	s.state = StateSelected
}

// Clear returns the selector to idle, discarding any selection.
func (s *Selector) Clear() {
	s.state = StateIdle
	s.startX, s.startY = 0, 0
	s.endX, s.endY = 0, 0
}

// Bounds returns the current rectangle in displayed coordinates, with
// corners normalized so width and height are non-negative regardless of
// drag direction.
func (s *Selector) Bounds() Rect {
	x1, x2 := math.Min(s.startX, s.endX), math.Max(s.startX, s.endX)
	y1, y2 := math.Min(s.startY, s.endY), math.Max(s.startY, s.endY)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// CanConfirm reports whether a non-degenerate selection exists.
func (s *Selector) CanConfirm() bool {
	if s.state != StateSelected {
		return false
	}
	b := s.Bounds()
	return b.Width > 0 && b.Height > 0
}

// Confirm scales the normalized rectangle into native pixel space,
// independently per axis. A zero-area rectangle is not confirmable: the
// call is a no-op returning ok=false, never an error.
func (s *Selector) Confirm() (Area, bool) {
	if !s.CanConfirm() {
		return Area{}, false
	}
	b := s.Bounds()
	scaleX := s.nativeW / s.displayedW
	scaleY := s.nativeH / s.displayedH
	return Area{
		X:           b.X * scaleX,
		Y:           b.Y * scaleY,
		Width:       b.Width * scaleX,
		Height:      b.Height * scaleY,
		ImageWidth:  s.nativeW,
		ImageHeight: s.nativeH,
	}, true
}
