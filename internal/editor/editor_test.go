package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/autoprefix/internal/engine/buffer"
)

func pt(line, col uint32) buffer.Point {
	return buffer.Point{Line: line, Column: col}
}

func TestNewEditorDefaults(t *testing.T) {
	e := New("a{}\n")

	if e.Grammar() != ScopePlain {
		t.Errorf("expected %q, got %q", ScopePlain, e.Grammar())
	}
	if e.ScreenLineCount() != 2 {
		t.Errorf("expected 2 screen lines, got %d", e.ScreenLineCount())
	}
	if e.CursorBufferPosition() != pt(0, 0) {
		t.Errorf("expected cursor at (0:0), got %s", e.CursorBufferPosition())
	}
	if e.IsModified() {
		t.Error("new editor should not be modified")
	}
	if e.ID() == "" {
		t.Error("editor should have an id")
	}
}

func TestEditorGrammarFromPath(t *testing.T) {
	e := New("", WithPath("/tmp/x.scss"))
	if e.Grammar() != ScopeSCSS {
		t.Errorf("expected %q, got %q", ScopeSCSS, e.Grammar())
	}

	e = New("", WithPath("/tmp/x.scss"), WithGrammar(ScopeCSS))
	if e.Grammar() != ScopeCSS {
		t.Errorf("explicit grammar should win, got %q", e.Grammar())
	}
}

func TestEditorSelection(t *testing.T) {
	e := New("a {\n  color: red;\n}\n")
	e.SetSelectedBufferRange(buffer.PointRange{Start: pt(1, 2), End: pt(1, 13)})

	if got := e.SelectedText(); got != "color: red;" {
		t.Errorf("expected %q, got %q", "color: red;", got)
	}
	r := e.SelectedBufferRange()
	if r.Start != pt(1, 2) || r.End != pt(1, 13) {
		t.Errorf("unexpected range %s", r)
	}
	if e.CursorBufferPosition() != pt(1, 13) {
		t.Errorf("cursor should be at selection head, got %s", e.CursorBufferPosition())
	}
}

func TestEditorSelectionClipped(t *testing.T) {
	e := New("ab\ncd")
	e.SetSelectedBufferRange(buffer.PointRange{Start: pt(0, 1), End: pt(9, 9)})

	if got := e.SelectedText(); got != "b\ncd" {
		t.Errorf("expected %q, got %q", "b\ncd", got)
	}
}

func TestEditorSetTextInBufferRange(t *testing.T) {
	e := New("x\na{display:flex}\ny\n")
	sel := buffer.PointRange{Start: pt(1, 0), End: pt(1, 16)}

	got, err := e.SetTextInBufferRange(sel, "a{display:-webkit-box;display:flex}")
	if err != nil {
		t.Fatal(err)
	}
	if e.Text() != "x\na{display:-webkit-box;display:flex}\ny\n" {
		t.Errorf("unexpected text %q", e.Text())
	}
	if got.End != pt(1, 35) {
		t.Errorf("unexpected new range %s", got)
	}
}

func TestEditorSetTextViaDiffUndoesInOneStep(t *testing.T) {
	old := "a {\n  display: flex;\n}\n\nb {\n  user-select: none;\n}\n"
	updated := "a {\n  display: -webkit-box;\n  display: flex;\n}\n\nb {\n  -webkit-user-select: none;\n  user-select: none;\n}\n"
	e := New(old)

	if err := e.SetTextViaDiff(updated); err != nil {
		t.Fatal(err)
	}
	if e.Text() != updated {
		t.Fatalf("unexpected text %q", e.Text())
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != old {
		t.Errorf("expected one undo to restore the original, got %q", e.Text())
	}
	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != updated {
		t.Errorf("expected redo to reapply, got %q", e.Text())
	}
}

func TestEditorSetCursorBufferPositionClips(t *testing.T) {
	e := New("abc\nde")
	e.SetSelectedBufferRange(buffer.PointRange{Start: pt(0, 0), End: pt(1, 1)})

	e.SetCursorBufferPosition(pt(7, 40))
	if got := e.CursorBufferPosition(); got != pt(1, 2) {
		t.Errorf("expected (1:2), got %s", got)
	}
	if e.SelectedText() != "" {
		t.Error("setting the cursor should clear the selection")
	}
}

func TestEditorCursorFollowsEdits(t *testing.T) {
	e := New("a{}\nb{}\n")
	e.SetCursorBufferPosition(pt(1, 2))

	e.Buffer().Insert(0, "/* head */\n")
	if got := e.CursorBufferPosition(); got != pt(2, 2) {
		t.Errorf("expected (2:2), got %s", got)
	}
}

func TestEditorScrolling(t *testing.T) {
	text := strings.Repeat("a{}\n", 100)
	e := New(text, WithViewportHeight(20), WithScrollMargin(2))

	if e.VerticalScrollMargin() != 2 {
		t.Errorf("expected margin 2, got %d", e.VerticalScrollMargin())
	}

	e.SetFirstVisibleScreenRow(30)
	if e.FirstVisibleScreenRow() != 30 {
		t.Fatalf("expected first row 30, got %d", e.FirstVisibleScreenRow())
	}
	if e.LastVisibleScreenRow() != 49 {
		t.Errorf("expected last row 49, got %d", e.LastVisibleScreenRow())
	}

	e.SetCursorBufferPosition(pt(90, 0))
	if e.FirstVisibleScreenRow() == 30 {
		t.Error("moving the cursor out of view should scroll")
	}

	e.ScrollToScreenPosition(pt(32, 0))
	if e.FirstVisibleScreenRow() != 30 {
		t.Errorf("expected first row 30, got %d", e.FirstVisibleScreenRow())
	}
}

func TestEditorMarginLimitedByHeight(t *testing.T) {
	e := New("", WithViewportHeight(3), WithScrollMargin(5))
	if e.VerticalScrollMargin() != 1 {
		t.Errorf("expected margin 1, got %d", e.VerticalScrollMargin())
	}
}

func TestEditorSaveRunsWillSaveHandlersFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.css")
	if err := os.WriteFile(path, []byte("a{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if e.Grammar() != ScopeCSS {
		t.Errorf("expected %q, got %q", ScopeCSS, e.Grammar())
	}

	var order []string
	e.OnWillSave(func(ev *WillSaveEvent) error {
		order = append(order, "first")
		return ev.Editor.SetText("b{}")
	})
	e.OnWillSave(func(*WillSaveEvent) error {
		order = append(order, "second")
		return errors.New("ignored")
	})
	e.OnDidSave(func(*TextEditor) { order = append(order, "saved") })

	if err := e.Save(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "b{}" {
		t.Errorf("expected handler output on disk, got %q", data)
	}
	if strings.Join(order, ",") != "first,second,saved" {
		t.Errorf("unexpected order %v", order)
	}
	if e.IsModified() {
		t.Error("editor should not be modified after save")
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode not preserved: %v", info.Mode().Perm())
	}
}

func TestEditorSaveWithoutPath(t *testing.T) {
	e := New("a{}")
	if err := e.Save(context.Background()); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
}

func TestEditorDisposeWillSave(t *testing.T) {
	dir := t.TempDir()
	e := New("a{}", WithPath(filepath.Join(dir, "a.css")))

	calls := 0
	d := e.OnWillSave(func(*WillSaveEvent) error {
		calls++
		return nil
	})
	d.Dispose()

	if err := e.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("disposed handler ran %d times", calls)
	}
}

func TestEditorDestroy(t *testing.T) {
	e := New("a{}")
	destroyed := false
	e.OnDidDestroy(func(*TextEditor) { destroyed = true })

	e.Destroy()
	e.Destroy()

	if !destroyed || !e.IsDestroyed() {
		t.Error("destroy handler should run")
	}
	if err := e.SetText("x"); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
}
