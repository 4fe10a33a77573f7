package prefixer

import (
	"strconv"
	"strings"

	"github.com/dshills/autoprefix/internal/prefixer/syntax"
)

var flexProps = map[string]bool{
	"flex":            true,
	"flex-grow":       true,
	"flex-shrink":     true,
	"flex-basis":      true,
	"flex-direction":  true,
	"flex-wrap":       true,
	"flex-flow":       true,
	"order":           true,
	"justify-content": true,
	"align-items":     true,
	"align-self":      true,
	"align-content":   true,
}

// isFlex reports declarations handled by the flexbox generations.
func isFlex(prop, value string) bool {
	if prop == "display" {
		v := strings.ToLower(strings.TrimSpace(value))
		return v == "flex" || v == "inline-flex"
	}
	return flexProps[prop]
}

// flexSpecs is the output order of the generations.
var flexSpecs = []string{Spec2009, SpecFinal, Spec2012}

type propValue struct {
	prop  string
	value string
}

// flexClones returns the prefixed declarations of every flexbox
// generation the targets need, together with their cascade prefixes and
// the cascade width.
func (r *run) flexClones(c *syntax.Container, d *syntax.Decl, prop, only string) (clones []*syntax.Decl, cascadeOf []string, width int) {
	for _, spec := range flexSpecs {
		f := r.features.flexbox[spec]
		if f == nil {
			continue
		}
		needed := filterPrefixes(r.prefixes.Needed(f.Name), only)
		for _, p := range needed {
			for _, pv := range flexVariant(spec, p, prop, d.Value) {
				if prop == "display" {
					if hasDecl(c, d.Prop, pv.value) {
						continue
					}
				} else if hasProp(c, pv.prop) {
					continue
				}
				clones = append(clones, cloneDecl(d, pv.prop, pv.value))
				if prop == "display" {
					cascadeOf = append(cascadeOf, "")
					continue
				}
				cascadeOf = append(cascadeOf, p)
				width = max(width, len(p))
			}
		}
	}
	return clones, cascadeOf, width
}

var (
	pack2009 = map[string]string{
		"flex-start":    "start",
		"flex-end":      "end",
		"center":        "center",
		"space-between": "justify",
	}
	align2009 = map[string]string{
		"flex-start": "start",
		"flex-end":   "end",
		"center":     "center",
		"baseline":   "baseline",
		"stretch":    "stretch",
	}
	pack2012 = map[string]string{
		"flex-start":    "start",
		"flex-end":      "end",
		"center":        "center",
		"space-between": "justify",
		"space-around":  "distribute",
	}
	align2012 = map[string]string{
		"flex-start": "start",
		"flex-end":   "end",
		"center":     "center",
		"baseline":   "baseline",
		"stretch":    "stretch",
		"auto":       "auto",
	}
	lines2012 = map[string]string{
		"flex-start":    "start",
		"flex-end":      "end",
		"center":        "center",
		"space-between": "justify",
		"space-around":  "distribute",
		"stretch":       "stretch",
	}
	rename2012 = map[string]string{
		"order":       "flex-order",
		"flex-grow":   "flex-positive",
		"flex-shrink": "flex-negative",
		"flex-basis":  "flex-preferred-size",
	}
)

// flexVariant translates one declaration to a flexbox generation. It
// returns nothing when the generation has no equivalent.
func flexVariant(spec, p, prop, raw string) []propValue {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch spec {
	case Spec2009:
		return flex2009(p, prop, v, raw)
	case Spec2012:
		return flex2012(p, prop, v, raw)
	default:
		if prop == "display" {
			return []propValue{{"display", p + v}}
		}
		return []propValue{{p + prop, raw}}
	}
}

func flex2009(p, prop, v, raw string) []propValue {
	switch prop {
	case "display":
		if v == "flex" {
			return []propValue{{"display", p + "box"}}
		}
		return []propValue{{"display", p + "inline-box"}}
	case "flex":
		fields := strings.Fields(v)
		if len(fields) == 0 {
			return nil
		}
		n := fields[0]
		switch n {
		case "none":
			n = "0"
		case "auto":
			n = "1"
		}
		if _, err := strconv.ParseFloat(n, 64); err != nil {
			return nil
		}
		return []propValue{{p + "box-flex", n}}
	case "flex-grow":
		return []propValue{{p + "box-flex", strings.TrimSpace(raw)}}
	case "flex-direction", "flex-flow":
		dir := ""
		for _, w := range strings.Fields(v) {
			switch w {
			case "row", "row-reverse", "column", "column-reverse":
				dir = w
			}
		}
		if dir == "" {
			return nil
		}
		orient := "horizontal"
		if strings.HasPrefix(dir, "column") {
			orient = "vertical"
		}
		direction := "normal"
		if strings.HasSuffix(dir, "-reverse") {
			direction = "reverse"
		}
		return []propValue{{p + "box-orient", orient}, {p + "box-direction", direction}}
	case "justify-content":
		if m, ok := pack2009[v]; ok {
			return []propValue{{p + "box-pack", m}}
		}
	case "align-items":
		if m, ok := align2009[v]; ok {
			return []propValue{{p + "box-align", m}}
		}
	case "order":
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil
		}
		return []propValue{{p + "box-ordinal-group", strconv.Itoa(n + 1)}}
	}
	return nil
}

func flex2012(p, prop, v, raw string) []propValue {
	switch prop {
	case "display":
		if v == "flex" {
			return []propValue{{"display", p + "flexbox"}}
		}
		return []propValue{{"display", p + "inline-flexbox"}}
	case "flex", "flex-direction", "flex-wrap", "flex-flow":
		return []propValue{{p + prop, raw}}
	case "justify-content":
		if m, ok := pack2012[v]; ok {
			return []propValue{{p + "flex-pack", m}}
		}
	case "align-items":
		if m, ok := align2009[v]; ok {
			return []propValue{{p + "flex-align", m}}
		}
	case "align-self":
		if m, ok := align2012[v]; ok {
			return []propValue{{p + "flex-item-align", m}}
		}
	case "align-content":
		if m, ok := lines2012[v]; ok {
			return []propValue{{p + "flex-line-pack", m}}
		}
	default:
		if name, ok := rename2012[prop]; ok {
			return []propValue{{p + name, raw}}
		}
	}
	return nil
}

var (
	// legacy2009 maps 2009 property names to the final properties they
	// stand for.
	legacy2009 = map[string][]string{
		"box-flex":          {"flex", "flex-grow"},
		"box-orient":        {"flex-direction", "flex-flow"},
		"box-direction":     {"flex-direction", "flex-flow"},
		"box-pack":          {"justify-content"},
		"box-align":         {"align-items"},
		"box-ordinal-group": {"order"},
	}
	legacy2012 = map[string][]string{
		"flex-order":          {"order"},
		"flex-pack":           {"justify-content"},
		"flex-align":          {"align-items"},
		"flex-item-align":     {"align-self"},
		"flex-line-pack":      {"align-content"},
		"flex-positive":       {"flex-grow"},
		"flex-negative":       {"flex-shrink"},
		"flex-preferred-size": {"flex-basis"},
	}
)

// normalizeProp returns the unprefixed names a property base may stand
// for. Old flexbox names map to their final equivalents.
func normalizeProp(base string) []string {
	if names, ok := legacy2009[base]; ok {
		return names
	}
	if names, ok := legacy2012[base]; ok {
		return names
	}
	return []string{base}
}

func sameNorm(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// flexFeature returns the flexbox generation a prefixed property or
// display value belongs to.
func (r *run) flexFeature(prefix, base string) (*Feature, bool) {
	spec := ""
	switch {
	case legacy2009[base] != nil:
		spec = Spec2009
	case prefix == "-ms-" && (legacy2012[base] != nil || flexProps[base]):
		spec = Spec2012
	case flexProps[base]:
		spec = SpecFinal
	default:
		return nil, false
	}
	f, ok := r.features.flexbox[spec]
	return f, ok
}

// displayFeature is flexFeature for values of display.
func (r *run) displayFeature(prefix, value string) (*Feature, bool) {
	spec := ""
	switch {
	case value == "box" || value == "inline-box":
		spec = Spec2009
	case prefix == "-ms-" && (value == "flexbox" || value == "inline-flexbox"):
		spec = Spec2012
	case value == "flex" || value == "inline-flex":
		spec = SpecFinal
	default:
		return nil, false
	}
	f, ok := r.features.flexbox[spec]
	return f, ok
}
