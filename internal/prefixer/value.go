package prefixer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	"github.com/dshills/autoprefix/internal/prefixer/syntax"
)

var transitionProps = map[string]bool{
	"transition":          true,
	"transition-property": true,
	"will-change":         true,
}

// valueFor returns value as written in a declaration prefixed with p:
// property names listed in transitions and prefixed values get p too.
func (r *run) valueFor(value, prop, p string) string {
	if transitionProps[prop] {
		value = r.prefixTransition(value, p)
	}
	return r.prefixValue(value, prop, p)
}

func (r *run) prefixTransition(value, p string) string {
	toks := syntax.Tokenize(value, syntax.DialectSafe)
	var sb strings.Builder
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth = max(depth-1, 0)
		case css.IdentToken:
			if depth == 0 {
				if f, ok := r.features.byProp[strings.ToLower(t.Data)]; ok && r.prefixes.Needs(f.Name, p) {
					sb.WriteString(p)
				}
			}
		}
		sb.WriteString(t.Data)
	}
	return sb.String()
}

// prefixValue prefixes the keywords and functions of value that need p
// for prop.
func (r *run) prefixValue(value, prop, p string) string {
	features := r.features.byValue[prop]
	if len(features) == 0 {
		return value
	}
	toks := syntax.Tokenize(value, syntax.DialectSafe)
	var sb strings.Builder
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case css.FunctionToken:
			name := strings.ToLower(strings.TrimSuffix(t.Data, "("))
			if f := valueFeature(features, name, true); f != nil && r.prefixes.Needs(f.Name, p) {
				end := closeParen(toks, i)
				inner := joinTokens(toks[i+1 : min(end, len(toks))])
				if isGradient(name) {
					inner = legacyGradient(name, inner)
				}
				sb.WriteString(p)
				sb.WriteString(t.Data)
				sb.WriteString(inner)
				if end < len(toks) {
					sb.WriteString(toks[end].Data)
				}
				i = end
				continue
			}
		case css.IdentToken:
			name := strings.ToLower(t.Data)
			if f := valueFeature(features, name, false); f != nil && r.prefixes.Needs(f.Name, p) {
				sb.WriteString(prefixKeyword(name, t.Data, p))
				continue
			}
		}
		sb.WriteString(t.Data)
	}
	return sb.String()
}

func valueFeature(features []*Feature, name string, function bool) *Feature {
	for _, f := range features {
		if f.Function != function {
			continue
		}
		for _, v := range f.Values {
			if v == name {
				return f
			}
		}
	}
	return nil
}

// prefixKeyword returns the prefixed form of a keyword. Some vendors use
// their own names for stretch.
func prefixKeyword(name, orig, p string) string {
	switch name {
	case "stretch", "fill-available":
		switch p {
		case "-webkit-":
			return "-webkit-fill-available"
		case "-moz-":
			return "-moz-available"
		}
		return orig
	}
	return p + orig
}

// closeParen returns the index of the token closing the function opened at
// toks[open], or len(toks) when it is unclosed.
func closeParen(toks []syntax.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Type {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks)
}

func joinTokens(toks []syntax.Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

// splitArgs splits function arguments on top level commas. Joining the
// parts with "," gives back s.
func splitArgs(s string) []string {
	var (
		args  []string
		cur   strings.Builder
		depth int
	)
	for _, t := range syntax.Tokenize(s, syntax.DialectSafe) {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				args = append(args, cur.String())
				cur.Reset()
				continue
			}
		}
		cur.WriteString(t.Data)
	}
	return append(args, cur.String())
}

var vendorPrefixes = map[string]bool{
	"-webkit-": true,
	"-moz-":    true,
	"-ms-":     true,
	"-o-":      true,
}

// otherPrefixes reports whether value already uses a vendor prefix other
// than p, as in "transition: -moz-transform 1s".
func otherPrefixes(value, p string) bool {
	if !strings.Contains(value, "-") {
		return false
	}
	for _, t := range syntax.Tokenize(value, syntax.DialectSafe) {
		if t.Type != css.IdentToken && t.Type != css.FunctionToken {
			continue
		}
		prefix, _ := splitPrefix(strings.ToLower(t.Data))
		if vendorPrefixes[prefix] && prefix != p {
			return true
		}
	}
	return false
}

// valuePrefix returns the first vendor prefixed keyword or function in
// value, as prefix and unprefixed lower case name.
func valuePrefix(value string) (prefix, name string) {
	for _, t := range syntax.Tokenize(value, syntax.DialectSafe) {
		if t.Type != css.IdentToken && t.Type != css.FunctionToken {
			continue
		}
		p, base := splitPrefix(strings.ToLower(strings.TrimSuffix(t.Data, "(")))
		if vendorPrefixes[p] {
			return p, base
		}
	}
	return "", ""
}

func isGradient(name string) bool {
	return strings.HasSuffix(name, "linear-gradient") || strings.HasSuffix(name, "radial-gradient")
}

var (
	sides       = map[string]string{"top": "bottom", "bottom": "top", "left": "right", "right": "left"}
	oldDirRe    = regexp.MustCompile(`^(top|bottom|left|right)(\s+(top|bottom|left|right))?$`)
	degreeRe    = regexp.MustCompile(`^(-?\d*\.?\d+)deg$`)
	linearNames = map[string]bool{"linear-gradient": true, "repeating-linear-gradient": true}
)

// hasOldGradient reports an unprefixed linear gradient whose direction
// uses the pre-standard "left" form instead of "to right".
func hasOldGradient(value string) bool {
	if !strings.Contains(strings.ToLower(value), "gradient(") {
		return false
	}
	toks := syntax.Tokenize(value, syntax.DialectSafe)
	for i, t := range toks {
		if t.Type != css.FunctionToken {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(t.Data, "("))
		if !linearNames[name] {
			continue
		}
		end := closeParen(toks, i)
		args := splitArgs(joinTokens(toks[i+1 : min(end, len(toks))]))
		if oldDirRe.MatchString(strings.ToLower(strings.TrimSpace(args[0]))) {
			return true
		}
	}
	return false
}

// legacyGradient converts the arguments of a standard gradient to the
// syntax prefixed gradients use: "to left" becomes "right", angles are
// measured from the east, and radial "shape at position" is reordered.
func legacyGradient(name, inner string) string {
	args := splitArgs(inner)
	first := args[0]
	trimmed := strings.TrimSpace(first)
	lead := first[:strings.Index(first, trimmed)]
	tail := first[len(lead)+len(trimmed):]
	lower := strings.ToLower(trimmed)

	if strings.Contains(name, "linear") {
		switch {
		case strings.HasPrefix(lower, "to "):
			args[0] = lead + oppositeSides(trimmed[3:]) + tail
		case degreeRe.MatchString(lower):
			args[0] = lead + legacyAngle(lower) + tail
		}
		return strings.Join(args, ",")
	}

	at := -1
	if strings.HasPrefix(lower, "at ") {
		at = 0
	} else if i := strings.Index(lower, " at "); i >= 0 {
		at = i + 1
	}
	if at < 0 {
		return inner
	}
	shape := strings.TrimSpace(trimmed[:at])
	pos := strings.TrimSpace(trimmed[at+2:])
	if shape == "" {
		args[0] = lead + pos + tail
		return strings.Join(args, ",")
	}
	out := append([]string{lead + pos, " " + shape + tail}, args[1:]...)
	return strings.Join(out, ",")
}

func oppositeSides(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if o, ok := sides[strings.ToLower(w)]; ok {
			words[i] = o
		}
	}
	return strings.Join(words, " ")
}

func legacyAngle(deg string) string {
	m := degreeRe.FindStringSubmatch(deg)
	x, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return deg
	}
	a := math.Mod(math.Abs(450-x), 360)
	return strconv.FormatFloat(a, 'f', -1, 64) + "deg"
}
