package cursor

import "github.com/dshills/autoprefix/internal/engine/buffer"

// TransformOffset updates an offset after a change.
//
// Transformation rules:
//   - Change entirely before offset: shift by the change's delta
//   - Change starts at or after offset: unchanged
//   - Change spans offset: move to the end of the new text
func TransformOffset(offset ByteOffset, c buffer.Change) ByteOffset {
	if c.Range.End <= offset {
		return offset + c.Delta()
	}
	if c.Range.Start >= offset {
		return offset
	}
	return c.NewRange.End
}

// TransformSelection updates a selection after a change.
func TransformSelection(sel Selection, c buffer.Change) Selection {
	return Selection{
		Anchor: TransformOffset(sel.Anchor, c),
		Head:   TransformOffset(sel.Head, c),
	}
}

// TransformCursorSet updates all selections after a change.
func TransformCursorSet(cs *CursorSet, c buffer.Change) {
	for i := range cs.selections {
		cs.selections[i] = TransformSelection(cs.selections[i], c)
	}
	cs.normalize()
}
