package autoprefixer

import (
	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/engine/buffer"
)

// Snapshot is the cursor and scroll state restored after a rewrite.
type Snapshot struct {
	CursorPosition  buffer.Point
	FirstVisibleRow int
	ScrollMargin    int
}

// TakeSnapshot records the state of e.
func TakeSnapshot(e *editor.TextEditor) Snapshot {
	return Snapshot{
		CursorPosition:  e.CursorBufferPosition(),
		FirstVisibleRow: e.FirstVisibleScreenRow(),
		ScrollMargin:    e.VerticalScrollMargin(),
	}
}

// ScrollTarget is the row scrolled to after the rewrite.
func (s Snapshot) ScrollTarget() int {
	return s.FirstVisibleRow + s.ScrollMargin
}

// Apply writes output into e. A selection-scoped invocation replaces the
// range selected when it started; otherwise only the differing hunks of
// the document are rewritten. The cursor is then put back, clamped by the
// editor, and the view is scrolled back when the target row still exists.
func Apply(e *editor.TextEditor, inv *Invocation, output string, snap Snapshot) error {
	if inv.SelectionScoped() {
		if _, err := e.SetTextInBufferRange(inv.Range, output); err != nil {
			return err
		}
	} else if err := e.SetTextViaDiff(output); err != nil {
		return err
	}

	e.SetCursorBufferPosition(snap.CursorPosition)
	if target := snap.ScrollTarget(); e.ScreenLineCount() > target {
		e.ScrollToScreenPosition(buffer.Point{Line: uint32(target)})
	}
	return nil
}
