package cursor

import (
	"fmt"

	"github.com/dshills/autoprefix/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// Selection is a selected range with a direction.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// NewCursorSelection creates an empty selection at offset.
func NewCursorSelection(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// NewRangeSelection creates a forward selection over r.
func NewRangeSelection(r Range) Selection {
	return Selection{Anchor: r.Start, Head: r.End}
}

// IsEmpty returns true if nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Range returns the selection as an ordered byte range.
func (s Selection) Range() Range {
	if s.Head < s.Anchor {
		return Range{Start: s.Head, End: s.Anchor}
	}
	return Range{Start: s.Anchor, End: s.Head}
}

// Start returns the lower bound.
func (s Selection) Start() ByteOffset { return s.Range().Start }

// End returns the upper bound.
func (s Selection) End() ByteOffset { return s.Range().End }

// IsBackward returns true if the head precedes the anchor.
func (s Selection) IsBackward() bool {
	return s.Head < s.Anchor
}

// Extend moves the head, keeping the anchor.
func (s Selection) Extend(offset ByteOffset) Selection {
	return Selection{Anchor: s.Anchor, Head: offset}
}

// Collapse returns an empty selection at the head.
func (s Selection) Collapse() Selection {
	return NewCursorSelection(s.Head)
}

// Touches reports whether the selections overlap or share a boundary.
func (s Selection) Touches(other Selection) bool {
	a, b := s.Range(), other.Range()
	return a.Start <= b.End && b.Start <= a.End
}

// Merge returns the union of two selections, keeping s's direction.
func (s Selection) Merge(other Selection) Selection {
	a, b := s.Range(), other.Range()
	r := Range{Start: min(a.Start, b.Start), End: max(a.End, b.End)}
	if s.IsBackward() {
		return Selection{Anchor: r.End, Head: r.Start}
	}
	return NewRangeSelection(r)
}

// Clamp keeps both ends within [0, maxOffset].
func (s Selection) Clamp(maxOffset ByteOffset) Selection {
	clamp := func(o ByteOffset) ByteOffset {
		return max(0, min(o, maxOffset))
	}
	return Selection{Anchor: clamp(s.Anchor), Head: clamp(s.Head)}
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Cursor(%d)", s.Head)
	}
	return fmt.Sprintf("Selection(%d->%d)", s.Anchor, s.Head)
}
