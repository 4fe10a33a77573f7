// Package cursor provides cursor and selection management for an editor.
//
// Selections use an anchor/head model:
//   - Anchor: The position where the selection started
//   - Head: The cursor position
//
// When Anchor == Head, the selection is just a cursor. A selection may
// extend forward (head > anchor) or backward (head < anchor).
//
// CursorSet holds the editor's selections, keeps them sorted and merged,
// and transforms them through buffer changes:
//
//	cs := cursor.NewCursorSetAt(10)
//	cs.Add(cursor.NewSelection(40, 52))
//	cursor.TransformCursorSet(cs, change)
//
// Selection is an immutable value type. CursorSet is not thread-safe and
// should be protected by its owner.
package cursor
