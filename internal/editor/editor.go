package editor

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/engine/buffer"
	"github.com/dshills/autoprefix/internal/engine/cursor"
	"github.com/dshills/autoprefix/internal/engine/history"
	"github.com/dshills/autoprefix/internal/event"
	"github.com/dshills/autoprefix/internal/renderer/viewport"
)

// DefaultViewportHeight is the number of visible rows of a new editor.
const DefaultViewportHeight = 40

// TextEditor is an editor over one buffer.
// All methods are safe for concurrent use.
type TextEditor struct {
	id  string
	log *zap.Logger

	buf     *buffer.Buffer
	view    *viewport.Viewport
	history *history.History

	historyLimit int

	mu        sync.Mutex
	cursors   *cursor.CursorSet
	grammar   string
	path      string
	savedText string

	destroyed atomic.Bool
	stopBuf   func()

	willSave   event.Emitter[*WillSaveEvent]
	didSave    event.Emitter[*TextEditor]
	didChange  event.Emitter[buffer.Change]
	didDestroy event.Emitter[*TextEditor]
}

// New creates an editor holding text.
func New(text string, opts ...Option) *TextEditor {
	e := &TextEditor{
		id:        uuid.NewString(),
		log:       zap.NewNop(),
		buf:       buffer.NewBufferFromString(text, buffer.WithDetectedLineEnding(text)),
		view:      viewport.NewViewport(DefaultViewportHeight),
		cursors:   cursor.NewCursorSetAt(0),
		savedText: text,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.grammar == "" {
		e.grammar = DetectGrammar(e.path)
	}
	e.history = history.NewHistory(e.buf, e.historyLimit)
	e.view.SetLineCount(e.buf.LineCount())
	e.stopBuf = e.buf.OnDidChange(e.bufferChanged)
	e.log = e.log.With(zap.String("editor", e.id))

	return e
}

// Open reads path and returns an editor over its content.
func Open(path string, opts ...Option) (*TextEditor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return New(string(data), append([]Option{WithPath(abs)}, opts...)...), nil
}

func (e *TextEditor) bufferChanged(c buffer.Change) {
	e.mu.Lock()
	cursor.TransformCursorSet(e.cursors, c)
	e.mu.Unlock()

	e.view.SetLineCount(e.buf.LineCount())
	if err := e.didChange.Emit(c); err != nil {
		e.log.Warn("change handler failed", zap.Error(err))
	}
}

// ID returns the editor's unique identifier.
func (e *TextEditor) ID() string { return e.id }

// Buffer returns the underlying buffer.
func (e *TextEditor) Buffer() *buffer.Buffer { return e.buf }

// Path returns the file path, or "" for an unsaved editor.
func (e *TextEditor) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Title returns the base name of the path, or "untitled".
func (e *TextEditor) Title() string {
	if p := e.Path(); p != "" {
		return filepath.Base(p)
	}
	return "untitled"
}

// Grammar returns the grammar scope name.
func (e *TextEditor) Grammar() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grammar
}

// SetGrammar overrides the grammar scope.
func (e *TextEditor) SetGrammar(scope string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grammar = scope
}

// Text returns the full buffer text.
func (e *TextEditor) Text() string {
	return e.buf.Text()
}

// SetText replaces the whole text in one change.
func (e *TextEditor) SetText(text string) error {
	if e.destroyed.Load() {
		return ErrDestroyed
	}
	_, err := e.buf.SetText(text)
	return err
}

// IsModified reports whether the text differs from the last saved text.
func (e *TextEditor) IsModified() bool {
	e.mu.Lock()
	saved := e.savedText
	e.mu.Unlock()
	return e.buf.Text() != saved
}

// SelectedBufferRange returns the range of the last selection.
func (e *TextEditor) SelectedBufferRange() buffer.PointRange {
	e.mu.Lock()
	r := e.cursors.Last().Range()
	e.mu.Unlock()
	return e.buf.PointRangeOf(r)
}

// SelectedText returns the text of the last selection, "" when empty.
func (e *TextEditor) SelectedText() string {
	e.mu.Lock()
	r := e.cursors.Last().Range()
	e.mu.Unlock()
	return e.buf.TextRange(r.Start, r.End)
}

// SetSelectedBufferRange replaces all selections with r, clipped.
func (e *TextEditor) SetSelectedBufferRange(r buffer.PointRange) {
	br := e.buf.RangeOf(r)
	e.mu.Lock()
	e.cursors.Set(cursor.NewRangeSelection(br))
	e.mu.Unlock()
}

// AddSelection adds another selection.
func (e *TextEditor) AddSelection(r buffer.PointRange) {
	br := e.buf.RangeOf(r)
	e.mu.Lock()
	e.cursors.Add(cursor.NewRangeSelection(br))
	e.mu.Unlock()
}

// SelectionCount returns the number of selections.
func (e *TextEditor) SelectionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursors.Count()
}

// SetTextInBufferRange replaces the text in r, clipped, and returns the
// range of the inserted text.
func (e *TextEditor) SetTextInBufferRange(r buffer.PointRange, text string) (buffer.PointRange, error) {
	if e.destroyed.Load() {
		return buffer.PointRange{}, ErrDestroyed
	}
	br := e.buf.RangeOf(r)
	res, err := e.buf.ApplyEdit(buffer.NewEdit(br, text))
	if err != nil {
		return buffer.PointRange{}, err
	}
	return e.buf.PointRangeOf(res.NewRange), nil
}

// SetTextViaDiff rewrites the text by applying only the differing hunks,
// as one undo step.
func (e *TextEditor) SetTextViaDiff(text string) error {
	if e.destroyed.Load() {
		return ErrDestroyed
	}
	return e.history.Transaction("set text via diff", func() error {
		_, err := e.buf.SetTextViaDiff(text)
		return err
	})
}

// Transact groups every change fn makes into one undo step.
func (e *TextEditor) Transact(name string, fn func() error) error {
	return e.history.Transaction(name, fn)
}

// Undo reverts the last undo step.
func (e *TextEditor) Undo() error {
	_, err := e.history.Undo()
	return err
}

// Redo reapplies the last undone step.
func (e *TextEditor) Redo() error {
	_, err := e.history.Redo()
	return err
}

// CursorBufferPosition returns the head of the last selection.
func (e *TextEditor) CursorBufferPosition() buffer.Point {
	e.mu.Lock()
	head := e.cursors.Last().Head
	e.mu.Unlock()
	return e.buf.OffsetToPoint(head)
}

// SetCursorBufferPosition collapses the selections to a single cursor at
// p, clipped to the buffer, and scrolls it into view.
func (e *TextEditor) SetCursorBufferPosition(p buffer.Point) {
	clipped := e.buf.ClipPoint(p)
	off := e.buf.PointToOffset(clipped)

	e.mu.Lock()
	e.cursors.Set(cursor.NewCursorSelection(off))
	e.mu.Unlock()

	e.view.ScrollToReveal(clipped.Line)
}

// ScreenLineCount returns the number of screen lines; one per buffer line.
func (e *TextEditor) ScreenLineCount() int {
	return int(e.buf.LineCount())
}

// FirstVisibleScreenRow returns the topmost visible row.
func (e *TextEditor) FirstVisibleScreenRow() int {
	return int(e.view.TopLine())
}

// SetFirstVisibleScreenRow scrolls so that row is at the top.
func (e *TextEditor) SetFirstVisibleScreenRow(row int) {
	e.view.ScrollTo(uint32(max(row, 0)))
}

// LastVisibleScreenRow returns the bottommost visible row.
func (e *TextEditor) LastVisibleScreenRow() int {
	return int(e.view.BottomLine())
}

// VerticalScrollMargin returns the scroll margin in rows, limited by the
// viewport height.
func (e *TextEditor) VerticalScrollMargin() int {
	return e.view.EffectiveMargin()
}

// ScrollToScreenPosition scrolls minimally so that p is visible with the
// scroll margin around it.
func (e *TextEditor) ScrollToScreenPosition(p buffer.Point) {
	e.view.ScrollToReveal(p.Line)
}

// Viewport returns the editor's viewport.
func (e *TextEditor) Viewport() *viewport.Viewport { return e.view }

// OnDidChange registers fn for every buffer change.
func (e *TextEditor) OnDidChange(fn func(buffer.Change)) event.Disposable {
	return e.didChange.Listen(fn)
}

// OnDidDestroy registers fn to run when the editor is destroyed.
func (e *TextEditor) OnDidDestroy(fn func(*TextEditor)) event.Disposable {
	return e.didDestroy.Listen(fn)
}

// IsDestroyed reports whether Destroy was called.
func (e *TextEditor) IsDestroyed() bool {
	return e.destroyed.Load()
}

// Destroy releases the editor. Handlers registered on it are dropped.
func (e *TextEditor) Destroy() {
	if e.destroyed.Swap(true) {
		return
	}
	e.stopBuf()
	e.history.Close()

	if err := e.didDestroy.Emit(e); err != nil {
		e.log.Warn("destroy handler failed", zap.Error(err))
	}
	e.willSave.Clear()
	e.didSave.Clear()
	e.didChange.Clear()
	e.didDestroy.Clear()
}
