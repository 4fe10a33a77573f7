package viewport

// DefaultMargin is the vertical scroll margin of a new viewport.
const DefaultMargin = 2

// SetMargin sets the configured vertical scroll margin.
// Negative values are treated as zero.
func (v *Viewport) SetMargin(rows int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.margin = max(rows, 0)
}

// Margin returns the configured vertical scroll margin.
func (v *Viewport) Margin() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.margin
}

// EffectiveMargin returns the scroll margin actually applied: the
// configured margin, limited so that the margins above and below a row
// fit in the viewport together with the row itself.
func (v *Viewport) EffectiveMargin() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.effectiveMargin()
}

func (v *Viewport) effectiveMargin() int {
	return min(v.margin, (v.height-1)/2)
}

// Zone describes where a line falls relative to the viewport.
type Zone uint8

const (
	ZoneCenter       Zone = iota // Line is in the comfortable zone
	ZoneTopMargin                // Line is in the top margin
	ZoneBottomMargin             // Line is in the bottom margin
	ZoneAbove                    // Line is above the viewport
	ZoneBelow                    // Line is below the viewport
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case ZoneTopMargin:
		return "top-margin"
	case ZoneBottomMargin:
		return "bottom-margin"
	case ZoneAbove:
		return "above"
	case ZoneBelow:
		return "below"
	default:
		return "center"
	}
}

// LineZone returns the zone a line falls into.
func (v *Viewport) LineZone(line uint32) Zone {
	v.mu.RLock()
	defer v.mu.RUnlock()

	margin := uint32(v.effectiveMargin())
	bottom := v.topLine + uint32(v.height) - 1
	switch {
	case line < v.topLine:
		return ZoneAbove
	case line > bottom:
		return ZoneBelow
	case line < v.topLine+margin:
		return ZoneTopMargin
	case line > bottom-margin:
		return ZoneBottomMargin
	default:
		return ZoneCenter
	}
}
