package buffer

import (
	"fmt"
	"sync/atomic"
)

// ByteOffset indexes directly into the buffer text.
type ByteOffset = int64

// Point is a zero-based line and byte column.
type Point struct {
	Line   uint32
	Column uint32
}

func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare orders points by line, then column.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line != other.Line:
		if p.Line < other.Line {
			return -1
		}
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}

// IsZero reports whether p is the start of the buffer.
func (p Point) IsZero() bool {
	return p == Point{}
}

// Range is the half-open byte range [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

func NewRange(start, end ByteOffset) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len is the number of bytes covered.
func (r Range) Len() ByteOffset {
	return r.End - r.Start
}

func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid reports whether the range is non-negative and not reversed.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.Start <= r.End
}

// PointRange is a range in line/column positions; End is exclusive.
type PointRange struct {
	Start Point
	End   Point
}

func (r PointRange) String() string {
	return fmt.Sprintf("[%s:%s)", r.Start, r.End)
}

// IsEmpty reports whether the range selects nothing.
func (r PointRange) IsEmpty() bool {
	return r.Start == r.End
}

// Normalize swaps the ends of a reversed range.
func (r PointRange) Normalize() PointRange {
	if r.End.Compare(r.Start) < 0 {
		return PointRange{Start: r.End, End: r.Start}
	}
	return r
}

// RevisionID identifies one state of a buffer; every change gets a new one.
type RevisionID uint64

var revisionCounter atomic.Uint64

func NewRevisionID() RevisionID {
	return RevisionID(revisionCounter.Add(1))
}
