package buffer

// Marker tracks a range of text across edits.
// Text inserted exactly at either boundary stays outside the marker.
// An edit that touches the marker's interior invalidates it; the range is
// still updated so callers can fall back to it.
type Marker struct {
	id          uint64
	buf         *Buffer
	rng         Range
	invalidated bool
	destroyed   bool
}

// MarkRange creates a marker over r, clamped to the buffer.
func (b *Buffer) MarkRange(r Range) *Marker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	b.nextMarkerID++
	m := &Marker{
		id:  b.nextMarkerID,
		buf: b,
		rng: Range{Start: b.clampOffset(r.Start), End: b.clampOffset(r.End)},
	}
	b.markers[m.id] = m
	return m
}

// MarkPosition creates an empty marker at a point.
func (b *Buffer) MarkPosition(p Point) *Marker {
	off := b.PointToOffset(p)
	return b.MarkRange(Range{Start: off, End: off})
}

// MarkerCount returns the number of live markers.
func (b *Buffer) MarkerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.markers)
}

// ID returns the marker's identifier, unique within its buffer.
func (m *Marker) ID() uint64 { return m.id }

// Range returns the current byte range.
func (m *Marker) Range() Range {
	m.buf.mu.RLock()
	defer m.buf.mu.RUnlock()
	return m.rng
}

// PointRange returns the current range as points.
func (m *Marker) PointRange() PointRange {
	return m.buf.PointRangeOf(m.Range())
}

// Text returns the text currently covered.
func (m *Marker) Text() string {
	r := m.Range()
	return m.buf.TextRange(r.Start, r.End)
}

// IsValid reports whether no edit has touched the marker's interior
// and the marker has not been destroyed.
func (m *Marker) IsValid() bool {
	m.buf.mu.RLock()
	defer m.buf.mu.RUnlock()
	return !m.invalidated && !m.destroyed
}

// Destroy stops tracking. Destroying twice is harmless.
func (m *Marker) Destroy() {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	m.destroyed = true
	delete(m.buf.markers, m.id)
}

// transform is called with the buffer's write lock held.
func (m *Marker) transform(c Change) {
	s, e := c.Range.Start, c.Range.End
	if s < m.rng.End && e > m.rng.Start {
		m.invalidated = true
	}

	delta := c.Delta()
	newEnd := c.NewRange.End

	start := m.rng.Start
	switch {
	case start >= e:
		start += delta
	case start >= s:
		start = newEnd
	}

	end := m.rng.End
	switch {
	case end > e:
		end += delta
	case end > s:
		end = s
	}

	if end < start {
		end = start
	}
	m.rng = Range{Start: start, End: end}
}
