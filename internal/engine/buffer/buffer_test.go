package buffer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
	if p := b.LastPoint(); !p.IsZero() {
		t.Errorf("expected last point (0:0), got %s", p)
	}
}

func TestNewBufferFromStringMultiline(t *testing.T) {
	b := NewBufferFromString("a {\n  color: red;\r\n}")

	if b.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d", b.LineCount())
	}
	want := []string{"a {", "  color: red;", "}"}
	for i, w := range want {
		if got := b.LineText(uint32(i)); got != w {
			t.Errorf("line %d: expected %q, got %q", i, w, got)
		}
	}
	if b.LineLen(1) != len("  color: red;") {
		t.Errorf("line ending counted in line length: %d", b.LineLen(1))
	}
}

func TestBufferTrailingNewlineAddsLine(t *testing.T) {
	b := NewBufferFromString("a{}\n")
	if b.LineCount() != 2 {
		t.Errorf("expected 2 lines, got %d", b.LineCount())
	}
	if got := b.LastPoint(); got != (Point{Line: 1, Column: 0}) {
		t.Errorf("expected (1:0), got %s", got)
	}
}

func TestBufferPointConversion(t *testing.T) {
	b := NewBufferFromString("ab\ncde\n\nf")

	tests := []struct {
		offset ByteOffset
		point  Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{6, Point{1, 3}},
		{7, Point{2, 0}},
		{8, Point{3, 0}},
		{9, Point{3, 1}},
	}

	for _, tt := range tests {
		if got := b.OffsetToPoint(tt.offset); got != tt.point {
			t.Errorf("OffsetToPoint(%d): expected %s, got %s", tt.offset, tt.point, got)
		}
		if got := b.PointToOffset(tt.point); got != tt.offset {
			t.Errorf("PointToOffset(%s): expected %d, got %d", tt.point, tt.offset, got)
		}
	}
}

func TestBufferClipPoint(t *testing.T) {
	b := NewBufferFromString("abc\nde")

	tests := []struct {
		name string
		in   Point
		want Point
	}{
		{"inside", Point{0, 2}, Point{0, 2}},
		{"column past line end", Point{0, 40}, Point{0, 3}},
		{"line past buffer end", Point{9, 1}, Point{1, 2}},
		{"last line", Point{1, 5}, Point{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.ClipPoint(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBufferOffsetClamped(t *testing.T) {
	b := NewBufferFromString("abc")
	if got := b.OffsetToPoint(-5); !got.IsZero() {
		t.Errorf("expected (0:0), got %s", got)
	}
	if got := b.OffsetToPoint(99); got != (Point{0, 3}) {
		t.Errorf("expected (0:3), got %s", got)
	}
	if got := b.TextRange(1, 99); got != "bc" {
		t.Errorf("expected %q, got %q", "bc", got)
	}
}

func TestBufferInsertDeleteReplace(t *testing.T) {
	b := NewBufferFromString("a { color: red }")

	if _, err := b.Insert(4, "margin: 0; "); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "a { margin: 0; color: red }" {
		t.Errorf("after insert: %q", got)
	}

	if err := b.Delete(4, 15); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "a { color: red }" {
		t.Errorf("after delete: %q", got)
	}

	end, err := b.Replace(11, 14, "blue")
	if err != nil {
		t.Fatal(err)
	}
	if end != 15 {
		t.Errorf("expected end 15, got %d", end)
	}
	if got := b.Text(); got != "a { color: blue }" {
		t.Errorf("after replace: %q", got)
	}
}

func TestBufferEditErrors(t *testing.T) {
	b := NewBufferFromString("abc")

	if _, err := b.Insert(10, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if err := b.Delete(2, 1); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
	_, err := b.ApplyEdits([]Edit{NewInsert(0, "x"), NewInsert(2, "y")})
	if !errors.Is(err, ErrEditsOverlap) {
		t.Errorf("expected ErrEditsOverlap, got %v", err)
	}
	if b.Text() != "abc" {
		t.Errorf("failed edits must not modify the buffer, got %q", b.Text())
	}
}

func TestBufferApplyEditsReverseOrder(t *testing.T) {
	b := NewBufferFromString("one two three")
	edits := []Edit{
		NewEdit(Range{Start: 8, End: 13}, "3"),
		NewEdit(Range{Start: 4, End: 7}, "2"),
		NewEdit(Range{Start: 0, End: 3}, "1"),
	}

	changes, err := b.ApplyEdits(edits)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 3 {
		t.Errorf("expected 3 changes, got %d", len(changes))
	}
	if got := b.Text(); got != "1 2 3" {
		t.Errorf("expected %q, got %q", "1 2 3", got)
	}
}

func TestBufferRevisionChanges(t *testing.T) {
	b := NewBufferFromString("abc")
	rev := b.RevisionID()

	b.Insert(0, "x")
	if b.RevisionID() == rev {
		t.Error("revision should change after edit")
	}

	rev = b.RevisionID()
	b.SetTextViaDiff(b.Text())
	if b.RevisionID() != rev {
		t.Error("identical SetTextViaDiff should not create a revision")
	}
}

func TestSetTextViaDiffTouchesOnlyChangedLines(t *testing.T) {
	old := "a {\n  display: flex;\n}\nb {\n  color: red;\n}\n"
	updated := "a {\n  display: -webkit-box;\n  display: flex;\n}\nb {\n  color: red;\n}\n"
	b := NewBufferFromString(old)

	untouched := strings.Index(old, "b {")
	m := b.MarkRange(Range{Start: ByteOffset(untouched), End: ByteOffset(len(old))})

	changes, err := b.SetTextViaDiff(updated)
	if err != nil {
		t.Fatal(err)
	}
	if b.Text() != updated {
		t.Fatalf("expected %q, got %q", updated, b.Text())
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}
	if changes[0].OldText != "" {
		t.Errorf("expected pure insertion, replaced %q", changes[0].OldText)
	}
	if !m.IsValid() {
		t.Error("marker on unchanged text was invalidated")
	}
	if m.Text() != "b {\n  color: red;\n}\n" {
		t.Errorf("marker drifted: %q", m.Text())
	}
}

func TestSetTextViaDiffIdentical(t *testing.T) {
	b := NewBufferFromString("a{}")
	calls := 0
	b.OnDidChange(func(Change) { calls++ })

	changes, err := b.SetTextViaDiff("a{}")
	if err != nil {
		t.Fatal(err)
	}
	if changes != nil || calls != 0 {
		t.Errorf("expected no changes, got %d changes and %d notifications", len(changes), calls)
	}
}

func TestDiffEditsReproduceTarget(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
	}{
		{"append", "a\nb\n", "a\nb\nc\n"},
		{"prepend", "b\n", "a\nb\n"},
		{"delete middle", "a\nb\nc\n", "a\nc\n"},
		{"no trailing newline", "a\nb", "a\nbb"},
		{"to empty", "a\nb\n", ""},
		{"from empty", "", "x\ny"},
		{"multibyte", "a { content: \"é\" }", "a { content: \"è\" }"},
		{"crlf", "a {\r\n  color: red;\r\n}\r\n", "a {\r\n  -webkit-x: 1;\r\n  color: red;\r\n}\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edits := DiffEdits(tt.old, tt.new)
			b := NewBufferFromString(tt.old)
			SortEditsReverse(edits)
			if _, err := b.ApplyEdits(edits); err != nil {
				t.Fatal(err)
			}
			if got := b.Text(); got != tt.new {
				t.Errorf("expected %q, got %q", tt.new, got)
			}
		})
	}
}

func numbered(format string, from, to int) string {
	var sb strings.Builder
	for i := from; i < to; i++ {
		fmt.Fprintf(&sb, format, i)
	}
	return sb.String()
}

func TestSetTextViaDiffLongDocuments(t *testing.T) {
	rules := numbered("b%d{color:red}\n", 1, 40)
	tests := []struct {
		name     string
		old, new string
		// keep is text of old that must survive under a marker.
		keep string
	}{
		{
			name: "prefix first rule",
			old:  "a{display:flex}\n" + rules,
			new:  "a{display:-ms-flexbox;display:flex}\n" + rules,
			keep: rules,
		},
		{
			name: "prefix last rule",
			old:  rules + "z{display:flex}\n",
			new:  rules + "z{display:-ms-flexbox;display:flex}\n",
			keep: rules,
		},
		{
			name: "repeated lines",
			old:  strings.Repeat("}\n", 12) + "a{display:flex}\n" + strings.Repeat("}\n", 12),
			new:  strings.Repeat("}\n", 12) + "a{display:-ms-flexbox;display:flex}\n" + strings.Repeat("}\n", 12),
			keep: strings.Repeat("}\n", 12),
		},
		{
			name: "shrink",
			old:  numbered("line %d\n", 0, 50),
			new:  "short\n",
		},
		{
			name: "shrink keeps head",
			old:  numbered("line %d\n", 0, 50),
			new:  numbered("line %d\n", 0, 10),
			keep: numbered("line %d\n", 0, 10),
		},
		{
			name: "grow",
			old:  numbered("line %d\n", 0, 10),
			new:  numbered("line %d\n", 0, 10) + numbered("added %d\n", 0, 40),
			keep: numbered("line %d\n", 0, 10),
		},
		{
			name: "many distinct lines rewritten",
			old:  numbered("x%d\n", 0, 300),
			new:  numbered("x%d\n", 0, 150) + "mid\n" + numbered("x%d\n", 150, 300),
			keep: numbered("x%d\n", 150, 300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferFromString(tt.old)
			var m *Marker
			if tt.keep != "" {
				start := strings.Index(tt.old, tt.keep)
				m = b.MarkRange(Range{Start: ByteOffset(start), End: ByteOffset(start + len(tt.keep))})
			}

			if _, err := b.SetTextViaDiff(tt.new); err != nil {
				t.Fatal(err)
			}
			if got := b.Text(); got != tt.new {
				t.Fatalf("text = %q, want %q", got, tt.new)
			}
			if m != nil && (!m.IsValid() || m.Text() != tt.keep) {
				t.Errorf("marker = %q (valid %v), want %q", m.Text(), m.IsValid(), tt.keep)
			}
		})
	}
}

func TestLineDiffWholeLines(t *testing.T) {
	old := numbered("line %d\n", 0, 12)
	updated := strings.Replace(old, "line 10\n", "line 10\nline 10b\n", 1)

	var rebuiltOld, rebuiltNew strings.Builder
	for _, d := range LineDiff(old, updated) {
		if !strings.HasSuffix(d.Text, "\n") {
			t.Errorf("hunk %q does not end a line", d.Text)
		}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			rebuiltOld.WriteString(d.Text)
		case diffmatchpatch.DiffInsert:
			rebuiltNew.WriteString(d.Text)
		default:
			rebuiltOld.WriteString(d.Text)
			rebuiltNew.WriteString(d.Text)
		}
	}
	if rebuiltOld.String() != old || rebuiltNew.String() != updated {
		t.Errorf("hunks do not rebuild the inputs")
	}
}

func TestMarkerBoundaries(t *testing.T) {
	b := NewBufferFromString("0123456789")
	m := b.MarkRange(Range{Start: 3, End: 6})

	b.Insert(3, "ab")
	if got := m.Range(); got != (Range{Start: 5, End: 8}) {
		t.Errorf("insert at start: expected [5:8), got %s", got)
	}
	b.Insert(8, "cd")
	if got := m.Range(); got != (Range{Start: 5, End: 8}) {
		t.Errorf("insert at end: expected [5:8), got %s", got)
	}
	if !m.IsValid() {
		t.Error("boundary inserts should not invalidate")
	}

	b.Insert(6, "X")
	if m.IsValid() {
		t.Error("interior insert should invalidate")
	}
	if got := m.Text(); got != "3X45" {
		t.Errorf("expected %q, got %q", "3X45", got)
	}

	m.Destroy()
	if b.MarkerCount() != 0 {
		t.Errorf("expected no markers, got %d", b.MarkerCount())
	}
}

func TestMarkerCollapsesWhenCovered(t *testing.T) {
	b := NewBufferFromString("abcdef")
	m := b.MarkRange(Range{Start: 2, End: 4})

	b.Replace(1, 5, "XY")
	r := m.Range()
	if r.Start != r.End || r.Start != 3 {
		t.Errorf("expected collapsed marker at 3, got %s", r)
	}
}

func TestChangeInvert(t *testing.T) {
	b := NewBufferFromString("color: red")
	var got []Change
	b.OnDidChange(func(c Change) { got = append(got, c) })

	b.Replace(7, 10, "blue")
	if len(got) != 1 {
		t.Fatalf("expected 1 change, got %d", len(got))
	}

	inv := got[0].Invert()
	if _, err := b.ApplyEdit(inv.ToEdit()); err != nil {
		t.Fatal(err)
	}
	if b.Text() != "color: red" {
		t.Errorf("expected inverted change to restore text, got %q", b.Text())
	}
}

func TestOnDidChangeCancel(t *testing.T) {
	b := NewBuffer()
	calls := 0
	cancel := b.OnDidChange(func(Change) { calls++ })

	b.Insert(0, "a")
	cancel()
	b.Insert(0, "b")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text string
		want LineEnding
	}{
		{"", LineEndingLF},
		{"a\nb\n", LineEndingLF},
		{"a\r\nb\r\n", LineEndingCRLF},
		{"a\rb\r", LineEndingCR},
		{"a\r\nb\n", LineEndingCRLF},
	}
	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.want {
			t.Errorf("DetectLineEnding(%q): expected %s, got %s", tt.text, tt.want, got)
		}
	}
}

func TestBufferConcurrentAccess(t *testing.T) {
	b := NewBufferFromString("a{}\n")
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Insert(0, "/**/")
		}()
		go func() {
			defer wg.Done()
			_ = b.Text()
			_ = b.LineCount()
		}()
	}
	wg.Wait()

	if !strings.HasSuffix(b.Text(), "a{}\n") {
		t.Errorf("unexpected text %q", b.Text())
	}
}
