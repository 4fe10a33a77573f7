package buffer

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffEdits computes the edits that turn oldText into newText.
// The diff runs line by line; each changed hunk is then narrowed to the
// bytes that actually differ. Edits are returned in ascending order and
// never overlap.
func DiffEdits(oldText, newText string) []Edit {
	if oldText == newText {
		return nil
	}

	diffs := LineDiff(oldText, newText)

	var (
		edits []Edit
		pos   ByteOffset
		cur   *Edit
	)
	flush := func() {
		if cur == nil {
			return
		}
		if e, ok := narrowEdit(oldText, *cur); ok {
			edits = append(edits, e)
		}
		cur = nil
	}

	for _, d := range diffs {
		n := ByteOffset(len(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += n
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &Edit{Range: Range{Start: pos, End: pos}}
			}
			cur.Range.End += n
			pos += n
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &Edit{Range: Range{Start: pos, End: pos}}
			}
			cur.NewText += d.Text
		}
	}
	flush()

	return edits
}

// maxLineRunes bounds the number of distinct lines LineDiff can encode:
// one rune each, starting at 1 and skipping the surrogate block.
const maxLineRunes = utf8.MaxRune - (0xE000 - 0xD800)

// LineDiff diffs a and b by whole lines. Every distinct line is encoded as
// a single rune before diffing, so no hunk ever splits a line. Inputs with
// more distinct lines than runes are reported as one replacement.
func LineDiff(a, b string) []diffmatchpatch.Diff {
	if a == b {
		if a == "" {
			return nil
		}
		return []diffmatchpatch.Diff{{Type: diffmatchpatch.DiffEqual, Text: a}}
	}

	t := lineTable{index: make(map[string]rune)}
	ra, okA := t.encode(a)
	rb, okB := t.encode(b)
	if !okA || !okB {
		var diffs []diffmatchpatch.Diff
		if a != "" {
			diffs = append(diffs, diffmatchpatch.Diff{Type: diffmatchpatch.DiffDelete, Text: a})
		}
		if b != "" {
			diffs = append(diffs, diffmatchpatch.Diff{Type: diffmatchpatch.DiffInsert, Text: b})
		}
		return diffs
	}

	diffs := diffmatchpatch.New().DiffMainRunes(ra, rb, false)
	for i := range diffs {
		diffs[i].Text = t.decode(diffs[i].Text)
	}
	return diffs
}

type lineTable struct {
	lines []string
	index map[string]rune
}

// lineRune maps a line number to its rune, stepping over surrogates.
func lineRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0xE000 - 0xD800
	}
	return r
}

func runeLine(r rune) int {
	if r >= 0xE000 {
		r -= 0xE000 - 0xD800
	}
	return int(r) - 1
}

func (t *lineTable) encode(text string) ([]rune, bool) {
	var out []rune
	for len(text) > 0 {
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line = text[:i+1]
		}
		text = text[len(line):]

		r, ok := t.index[line]
		if !ok {
			if len(t.lines) >= maxLineRunes {
				return nil, false
			}
			r = lineRune(len(t.lines))
			t.lines = append(t.lines, line)
			t.index[line] = r
		}
		out = append(out, r)
	}
	return out, true
}

func (t *lineTable) decode(text string) string {
	var sb strings.Builder
	for _, r := range text {
		sb.WriteString(t.lines[runeLine(r)])
	}
	return sb.String()
}

// narrowEdit trims the prefix and suffix the replaced and replacement text
// share, stopping on rune boundaries. Reports false if nothing is left.
func narrowEdit(text string, e Edit) (Edit, bool) {
	old := text[e.Range.Start:e.Range.End]
	repl := e.NewText

	prefix := 0
	for prefix < len(old) && prefix < len(repl) && old[prefix] == repl[prefix] {
		prefix++
	}
	for prefix > 0 && prefix < len(old) && !utf8.RuneStart(old[prefix]) {
		prefix--
	}
	for prefix > 0 && prefix < len(repl) && !utf8.RuneStart(repl[prefix]) {
		prefix--
	}

	suffix := 0
	for suffix < len(old)-prefix && suffix < len(repl)-prefix &&
		old[len(old)-1-suffix] == repl[len(repl)-1-suffix] {
		suffix++
	}
	for suffix > 0 && !(utf8.RuneStart(old[len(old)-suffix]) && utf8.RuneStart(repl[len(repl)-suffix])) {
		suffix--
	}

	e.Range.Start += ByteOffset(prefix)
	e.Range.End -= ByteOffset(suffix)
	e.NewText = repl[prefix : len(repl)-suffix]
	if e.IsNoOp() {
		return e, false
	}
	return e, true
}
