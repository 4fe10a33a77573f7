package buffer

import (
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// ChangeListener is called once per applied change, after the buffer lock
// has been released.
type ChangeListener func(Change)

type listenerEntry struct {
	id uint64
	fn ChangeListener
}

// Buffer holds the text of one document.
// Content is stored verbatim: line endings are never rewritten, so the
// bytes read back are exactly the bytes written.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
	lineEnding LineEnding

	markers      map[uint64]*Marker
	nextMarkerID uint64

	listenerMu     sync.Mutex
	listeners      []listenerEntry
	nextListenerID uint64
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		lineStarts: []ByteOffset{0},
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
		markers:    make(map[uint64]*Marker),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a new buffer with the given content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.text = s
	b.lineStarts = indexLines(s)
	return b
}

// NewBufferFromReader creates a new buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// indexLines returns the byte offset of the start of every line.
// Lines are terminated by '\n'; a preceding '\r' belongs to the line ending.
func indexLines(s string) []ByteOffset {
	starts := make([]ByteOffset, 1, strings.Count(s, "\n")+1)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return starts
}

// Text returns the entire buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns text in the given byte range.
// The range is clamped to the buffer.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end = b.clampOffset(start), b.clampOffset(end)
	if start > end {
		return ""
	}
	return b.text[start:end]
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// IsEmpty returns true if the buffer has no content.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// LineCount returns the number of lines in the buffer.
// An empty buffer, and a buffer without a trailing newline, still count
// their last line.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(len(b.lineStarts))
}

// LastPoint returns the position just past the last byte of the buffer.
func (b *Buffer) LastPoint() Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetToPoint(ByteOffset(len(b.text)))
}

// LineText returns the text of a line without its line ending.
// Returns "" for lines past the end of the buffer.
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(line) >= len(b.lineStarts) {
		return ""
	}
	return b.text[b.lineStarts[line]:b.lineEnd(line)]
}

// LineLen returns the byte length of a line without its line ending.
func (b *Buffer) LineLen(line uint32) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(line) >= len(b.lineStarts) {
		return 0
	}
	return int(b.lineEnd(line) - b.lineStarts[line])
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	return b.lineStarts[line]
}

// LineEndOffset returns the byte offset of the end of a line,
// excluding its line ending.
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	return b.lineEnd(line)
}

// lineEnd must be called with the lock held and a valid line.
func (b *Buffer) lineEnd(line uint32) ByteOffset {
	if int(line)+1 >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	end := b.lineStarts[line+1] - 1
	if end > b.lineStarts[line] && b.text[end-1] == '\r' {
		end--
	}
	return end
}

// OffsetToPoint converts a byte offset to a line/column point.
// Offsets outside the buffer are clamped.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetToPoint(b.clampOffset(offset))
}

func (b *Buffer) offsetToPoint(offset ByteOffset) Point {
	line := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Point{Line: uint32(line), Column: uint32(offset - b.lineStarts[line])}
}

// PointToOffset converts a line/column point to a byte offset.
// The point is clipped first, see ClipPoint.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p := b.clipPoint(point)
	return b.lineStarts[p.Line] + ByteOffset(p.Column)
}

// ClipPoint returns the nearest valid position to point.
// A line past the end clips to the end of the buffer; a column past the
// end of its line clips to the end of that line.
func (b *Buffer) ClipPoint(point Point) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clipPoint(point)
}

func (b *Buffer) clipPoint(point Point) Point {
	if int(point.Line) >= len(b.lineStarts) {
		return b.offsetToPoint(ByteOffset(len(b.text)))
	}
	lineLen := uint32(b.lineEnd(point.Line) - b.lineStarts[point.Line])
	if point.Column > lineLen {
		point.Column = lineLen
	}
	return point
}

// PointRangeOf converts a byte range into a point range.
func (b *Buffer) PointRangeOf(r Range) PointRange {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return PointRange{
		Start: b.offsetToPoint(b.clampOffset(r.Start)),
		End:   b.offsetToPoint(b.clampOffset(r.End)),
	}
}

// RangeOf converts a point range into a clipped, normalized byte range.
func (b *Buffer) RangeOf(r PointRange) Range {
	r = r.Normalize()
	return Range{Start: b.PointToOffset(r.Start), End: b.PointToOffset(r.End)}
}

func (b *Buffer) clampOffset(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if offset > ByteOffset(len(b.text)) {
		return ByteOffset(len(b.text))
	}
	return offset
}

// Insert inserts text at the given offset.
// Returns the end offset of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	result, err := b.ApplyEdit(NewInsert(offset, text))
	if err != nil {
		return 0, err
	}
	return result.NewRange.End, nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	_, err := b.ApplyEdit(NewDelete(start, end))
	return err
}

// Replace replaces text in the given range with new text.
// Returns the end offset of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	result, err := b.ApplyEdit(NewEdit(Range{Start: start, End: end}, text))
	if err != nil {
		return 0, err
	}
	return result.NewRange.End, nil
}

// SetText replaces the whole content as a single change.
func (b *Buffer) SetText(text string) (Change, error) {
	b.mu.Lock()
	c := b.applyLocked(NewEdit(Range{Start: 0, End: ByteOffset(len(b.text))}, text))
	b.revisionID = NewRevisionID()
	b.mu.Unlock()

	b.notify([]Change{c})
	return c, nil
}

// ApplyEdit applies a single edit operation.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	b.mu.Lock()
	if err := b.validateRange(edit.Range); err != nil {
		b.mu.Unlock()
		return EditResult{}, err
	}
	c := b.applyLocked(edit)
	b.revisionID = NewRevisionID()
	b.mu.Unlock()

	b.notify([]Change{c})
	return EditResult{
		OldRange: c.Range,
		NewRange: c.NewRange,
		OldText:  c.OldText,
		Delta:    edit.Delta(),
	}, nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be sorted in reverse order (highest offset first) so that
// applying one never shifts the offsets of the ones still pending.
// Returns the applied changes in the order they were applied.
func (b *Buffer) ApplyEdits(edits []Edit) ([]Change, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	b.mu.Lock()
	for i, edit := range edits {
		if err := b.validateRange(edit.Range); err != nil {
			b.mu.Unlock()
			return nil, err
		}
		if i > 0 && edit.Range.End > edits[i-1].Range.Start {
			b.mu.Unlock()
			return nil, ErrEditsOverlap
		}
	}

	changes := make([]Change, 0, len(edits))
	for _, edit := range edits {
		if edit.IsNoOp() {
			continue
		}
		changes = append(changes, b.applyLocked(edit))
	}
	if len(changes) > 0 {
		b.revisionID = NewRevisionID()
	}
	b.mu.Unlock()

	b.notify(changes)
	return changes, nil
}

// SetTextViaDiff replaces the content with text by applying only the
// differing hunks, so markers on unchanged lines keep their positions.
// Returns the applied changes; nil when the text is already identical.
func (b *Buffer) SetTextViaDiff(text string) ([]Change, error) {
	b.mu.RLock()
	old := b.text
	b.mu.RUnlock()

	if old == text {
		return nil, nil
	}

	edits := DiffEdits(old, text)
	reverseEdits(edits)

	b.mu.Lock()
	if b.text != old {
		// Lost a race with another writer; the hunks no longer line up.
		b.mu.Unlock()
		return b.SetTextViaDiff(text)
	}
	changes := make([]Change, 0, len(edits))
	for _, edit := range edits {
		changes = append(changes, b.applyLocked(edit))
	}
	b.revisionID = NewRevisionID()
	b.mu.Unlock()

	b.notify(changes)
	return changes, nil
}

func (b *Buffer) validateRange(r Range) error {
	if !r.IsValid() {
		return ErrRangeInvalid
	}
	if r.Start < 0 || r.End > ByteOffset(len(b.text)) {
		return ErrOffsetOutOfRange
	}
	return nil
}

// applyLocked must be called with the write lock held and a validated edit.
func (b *Buffer) applyLocked(edit Edit) Change {
	oldText := b.text[edit.Range.Start:edit.Range.End]
	b.text = b.text[:edit.Range.Start] + edit.NewText + b.text[edit.Range.End:]
	b.lineStarts = indexLines(b.text)

	c := Change{
		Type:     changeTypeOf(edit),
		Range:    edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: edit.Range.Start + ByteOffset(len(edit.NewText))},
		OldText:  oldText,
		NewText:  edit.NewText,
	}
	for _, m := range b.markers {
		m.transform(c)
	}
	return c
}

// OnDidChange registers a listener for applied changes.
// The returned function unregisters it.
func (b *Buffer) OnDidChange(fn ChangeListener) (cancel func()) {
	b.listenerMu.Lock()
	b.nextListenerID++
	id := b.nextListenerID
	b.listeners = append(b.listeners, listenerEntry{id: id, fn: fn})
	b.listenerMu.Unlock()

	return func() {
		b.listenerMu.Lock()
		defer b.listenerMu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *Buffer) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	b.listenerMu.Lock()
	listeners := make([]listenerEntry, len(b.listeners))
	copy(listeners, b.listeners)
	b.listenerMu.Unlock()

	for _, c := range changes {
		for _, l := range listeners {
			l.fn(c)
		}
	}
}

// RevisionID returns the current revision identifier.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// SetLineEnding sets the line ending style used for newly typed lines.
// Existing content is left untouched.
func (b *Buffer) SetLineEnding(le LineEnding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lineEnding = le
}
