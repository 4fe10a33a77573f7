package browsers

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareVersions compares dotted version strings numerically. Missing
// components count as zero, so "10" equals "10.0". Non-numeric components
// such as "all" compare as zero.
func CompareVersions(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < max(len(pa), len(pb)); i++ {
		x, y := component(pa, i), component(pb, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func component(parts []string, i int) float64 {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.ParseFloat(parts[i], 64)
	if err != nil {
		return 0
	}
	return n
}

// Range is an inclusive span of versions. The zero Range is empty.
type Range struct {
	Min string
	Max string
	// All matches every version, including non-numeric ones.
	All bool
}

// ParseRange parses "all", "N" or "MIN-MAX".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Range{}, nil
	case strings.EqualFold(s, "all"):
		return Range{All: true}, nil
	}
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		hi = lo
	}
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	if !isVersion(lo) || !isVersion(hi) {
		return Range{}, fmt.Errorf("invalid version range %q", s)
	}
	return Range{Min: lo, Max: hi}, nil
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v string) bool {
	if r.All {
		return true
	}
	if r.Min == "" && r.Max == "" {
		return false
	}
	if !isVersion(v) {
		return false
	}
	return CompareVersions(v, r.Min) >= 0 && CompareVersions(v, r.Max) <= 0
}

// IsZero reports an empty range.
func (r Range) IsZero() bool {
	return !r.All && r.Min == "" && r.Max == ""
}

func (r Range) String() string {
	switch {
	case r.All:
		return "all"
	case r.IsZero():
		return ""
	case r.Min == r.Max:
		return r.Min
	default:
		return r.Min + "-" + r.Max
	}
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return false
		}
	}
	return true
}
