package cursor

import "sort"

// CursorSet manages an editor's selections.
// Selections are kept sorted by position and non-overlapping. The most
// recently added selection is the "last" one, which single-selection
// commands act on.
type CursorSet struct {
	selections []Selection
	last       int
}

// NewCursorSet creates a cursor set with a single selection.
func NewCursorSet(initial Selection) *CursorSet {
	return &CursorSet{selections: []Selection{initial}}
}

// NewCursorSetAt creates a cursor set with a single cursor at offset.
func NewCursorSetAt(offset ByteOffset) *CursorSet {
	return NewCursorSet(NewCursorSelection(offset))
}

// Last returns the most recently added selection.
func (cs *CursorSet) Last() Selection {
	return cs.selections[cs.last]
}

// All returns a copy of all selections in position order.
func (cs *CursorSet) All() []Selection {
	out := make([]Selection, len(cs.selections))
	copy(out, cs.selections)
	return out
}

// Count returns the number of selections.
func (cs *CursorSet) Count() int {
	return len(cs.selections)
}

// Set replaces every selection with sel.
func (cs *CursorSet) Set(sel Selection) {
	cs.selections = []Selection{sel}
	cs.last = 0
}

// Add adds a selection and makes it the last one.
func (cs *CursorSet) Add(sel Selection) {
	cs.selections = append(cs.selections, sel)
	cs.last = len(cs.selections) - 1
	cs.normalize()
}

// HasSelection reports whether any selection is non-empty.
func (cs *CursorSet) HasSelection() bool {
	for _, s := range cs.selections {
		if !s.IsEmpty() {
			return true
		}
	}
	return false
}

// Clamp keeps every selection within [0, maxOffset].
func (cs *CursorSet) Clamp(maxOffset ByteOffset) {
	for i := range cs.selections {
		cs.selections[i] = cs.selections[i].Clamp(maxOffset)
	}
	cs.normalize()
}

// Clone returns an independent copy.
func (cs *CursorSet) Clone() *CursorSet {
	return &CursorSet{selections: cs.All(), last: cs.last}
}

// normalize sorts and merges touching non-empty selections, tracking
// which entry is still the last one.
func (cs *CursorSet) normalize() {
	type entry struct {
		sel  Selection
		last bool
	}
	entries := make([]entry, len(cs.selections))
	for i, s := range cs.selections {
		entries[i] = entry{sel: s, last: i == cs.last}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].sel.Start() < entries[j].sel.Start()
	})

	merged := entries[:1]
	for _, e := range entries[1:] {
		prev := &merged[len(merged)-1]
		sameCursor := e.sel.IsEmpty() && prev.sel.IsEmpty() && e.sel.Head == prev.sel.Head
		if sameCursor || e.sel.Start() < prev.sel.End() {
			prev.sel = prev.sel.Merge(e.sel)
			prev.last = prev.last || e.last
			continue
		}
		merged = append(merged, e)
	}

	cs.selections = cs.selections[:0]
	for i, e := range merged {
		cs.selections = append(cs.selections, e.sel)
		if e.last {
			cs.last = i
		}
	}
}
