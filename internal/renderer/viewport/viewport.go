// Package viewport tracks which screen rows of an editor are visible.
//
// One buffer line is one screen row; there is no soft wrap. Horizontal
// scrolling is not modelled.
package viewport

import "sync"

// Viewport represents the visible portion of the buffer.
type Viewport struct {
	mu sync.RWMutex

	// First visible line
	topLine uint32

	// Height in rows
	height int

	// Scroll margin (keep revealed rows this far from the edges)
	margin int

	// Number of screen lines in the buffer
	lineCount uint32
}

// NewViewport creates a viewport with the given height.
// Height is clamped to a minimum of 1.
func NewViewport(height int) *Viewport {
	if height < 1 {
		height = 1
	}
	return &Viewport{
		height:    height,
		margin:    DefaultMargin,
		lineCount: 1,
	}
}

// Height returns the viewport height.
func (v *Viewport) Height() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.height
}

// Resize updates the viewport height.
func (v *Viewport) Resize(height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if height < 1 {
		height = 1
	}
	v.height = height
}

// TopLine returns the first visible line.
func (v *Viewport) TopLine() uint32 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.topLine
}

// BottomLine returns the last visible line.
func (v *Viewport) BottomLine() uint32 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bottomLine()
}

func (v *Viewport) bottomLine() uint32 {
	bottom := v.topLine + uint32(v.height) - 1
	if v.lineCount > 0 && bottom > v.lineCount-1 {
		bottom = max(v.lineCount-1, v.topLine)
	}
	return bottom
}

// LineCount returns the number of screen lines.
func (v *Viewport) LineCount() uint32 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lineCount
}

// SetLineCount records the buffer's line count, pulling the top line
// back when the buffer shrank below it.
func (v *Viewport) SetLineCount(n uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n == 0 {
		n = 1
	}
	v.lineCount = n
	if v.topLine >= n {
		v.topLine = n - 1
	}
}

// VisibleLineRange returns the first and last visible lines.
func (v *Viewport) VisibleLineRange() (start, end uint32) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.topLine, v.bottomLine()
}

// IsLineVisible returns true if the line is within the viewport.
func (v *Viewport) IsLineVisible(line uint32) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return line >= v.topLine && line <= v.bottomLine()
}

// ScrollTo places line at the top, clamped to the last line.
func (v *Viewport) ScrollTo(line uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.clampTop(int64(line))
}

// ScrollBy scrolls by a delta number of lines.
func (v *Viewport) ScrollBy(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.clampTop(int64(v.topLine) + int64(delta))
}

func (v *Viewport) clampTop(top int64) uint32 {
	if top < 0 {
		return 0
	}
	if top >= int64(v.lineCount) {
		return v.lineCount - 1
	}
	return uint32(top)
}

// ScrollToReveal scrolls minimally so that line is visible with the
// effective scroll margin around it.
// Returns true if scrolling occurred.
func (v *Viewport) ScrollToReveal(line uint32) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	margin := int64(v.effectiveMargin())
	target := int64(v.topLine)

	switch {
	case int64(line) < int64(v.topLine)+margin:
		target = int64(line) - margin
	case int64(line) > int64(v.topLine)+int64(v.height)-1-margin:
		target = int64(line) - int64(v.height) + 1 + margin
	}

	top := v.clampTop(target)
	if top == v.topLine {
		return false
	}
	v.topLine = top
	return true
}

// CenterOn centers the viewport on the given line.
func (v *Viewport) CenterOn(line uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.clampTop(int64(line) - int64(v.height/2))
}
