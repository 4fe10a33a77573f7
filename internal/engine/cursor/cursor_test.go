package cursor

import (
	"testing"

	"github.com/dshills/autoprefix/internal/engine/buffer"
)

func change(start, end ByteOffset, text string) buffer.Change {
	return buffer.Change{
		Range:    buffer.Range{Start: start, End: end},
		NewRange: buffer.Range{Start: start, End: start + ByteOffset(len(text))},
		NewText:  text,
	}
}

func TestSelectionRange(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want Range
	}{
		{"forward", NewSelection(2, 8), Range{Start: 2, End: 8}},
		{"backward", NewSelection(8, 2), Range{Start: 2, End: 8}},
		{"cursor", NewCursorSelection(5), Range{Start: 5, End: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.Range(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSelectionMergeKeepsDirection(t *testing.T) {
	got := NewSelection(10, 4).Merge(NewSelection(8, 14))
	if got != (Selection{Anchor: 14, Head: 4}) {
		t.Errorf("expected backward 14->4, got %s", got)
	}
}

func TestSelectionClamp(t *testing.T) {
	got := NewSelection(-3, 50).Clamp(20)
	if got != (Selection{Anchor: 0, Head: 20}) {
		t.Errorf("expected 0->20, got %s", got)
	}
}

func TestTransformOffset(t *testing.T) {
	tests := []struct {
		name   string
		offset ByteOffset
		c      buffer.Change
		want   ByteOffset
	}{
		{"insert before", 10, change(2, 2, "abc"), 13},
		{"insert at", 10, change(10, 10, "abc"), 13},
		{"insert after", 10, change(12, 12, "abc"), 10},
		{"delete before", 10, change(2, 5, ""), 7},
		{"delete spanning", 10, change(8, 12, ""), 8},
		{"replace spanning", 10, change(8, 12, "xy"), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransformOffset(tt.offset, tt.c); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCursorSetMergesOverlaps(t *testing.T) {
	cs := NewCursorSet(NewSelection(0, 5))
	cs.Add(NewSelection(3, 9))
	cs.Add(NewCursorSelection(20))
	cs.Add(NewCursorSelection(20))

	if cs.Count() != 2 {
		t.Fatalf("expected 2 selections, got %d: %v", cs.Count(), cs.All())
	}
	if got := cs.All()[0].Range(); got != (Range{Start: 0, End: 9}) {
		t.Errorf("expected merged [0:9), got %s", got)
	}
	if got := cs.Last(); got != NewCursorSelection(20) {
		t.Errorf("expected last cursor at 20, got %s", got)
	}
}

func TestCursorSetLastSurvivesSorting(t *testing.T) {
	cs := NewCursorSetAt(30)
	cs.Add(NewCursorSelection(5))

	if got := cs.Last(); got.Head != 5 {
		t.Errorf("expected last head 5, got %d", got.Head)
	}
	if got := cs.All()[0].Head; got != 5 {
		t.Errorf("expected sorted order, first head %d", got)
	}
}

func TestTransformCursorSet(t *testing.T) {
	cs := NewCursorSet(NewSelection(4, 8))
	cs.Add(NewCursorSelection(20))

	TransformCursorSet(cs, change(0, 0, "--"))

	all := cs.All()
	if all[0] != NewSelection(6, 10) {
		t.Errorf("expected 6->10, got %s", all[0])
	}
	if all[1] != NewCursorSelection(22) {
		t.Errorf("expected cursor at 22, got %s", all[1])
	}
}

func TestCursorSetClone(t *testing.T) {
	cs := NewCursorSetAt(3)
	clone := cs.Clone()
	clone.Set(NewCursorSelection(9))

	if cs.Last().Head != 3 {
		t.Error("clone should not share state")
	}
}
