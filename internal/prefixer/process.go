package prefixer

import (
	"strings"

	"github.com/dshills/autoprefix/internal/prefixer/syntax"
)

const (
	warnGradientDirection = "Gradient has outdated direction syntax. New syntax is like `to left` instead of `right`."
	warnDisplayBox        = "You should write display: flex by final spec instead of display: box"
)

// run holds the state of one pass over a parsed tree.
type run struct {
	features *Features
	prefixes *Prefixes
	opts     Options

	// source is the whole input and base the offset of the parsed text in
	// it; warnings are located in source.
	source string
	base   int

	warnings []Warning
	// reindent records the smallest indent of cascaded declarations removed
	// in front of a declaration.
	reindent map[*syntax.Decl]string
}

func newRun(fs *Features, p *Prefixes, opts Options, source string, base int) *run {
	return &run{
		features: fs,
		prefixes: p,
		opts:     opts,
		source:   source,
		base:     base,
		reindent: make(map[*syntax.Decl]string),
	}
}

func (r *run) warn(n syntax.Node, text string) {
	line, col := lineColumn(r.source, r.base+n.Pos().Offset)
	r.warnings = append(r.warnings, Warning{
		Line:   line,
		Column: col,
		Text:   text,
		Plugin: PluginName,
		From:   r.opts.From,
	})
}

// container processes the children of c. only restricts added prefixes
// inside prefixed at-rules such as @-webkit-keyframes.
func (r *run) container(c *syntax.Container, only string) {
	off, ignored := controls(c)
	if off {
		return
	}
	if r.opts.Remove {
		r.remove(c, ignored)
	}
	for _, n := range append([]syntax.Node(nil), c.Nodes...) {
		if ignored[n] {
			continue
		}
		switch v := n.(type) {
		case *syntax.Rule:
			r.container(&v.Container, only)
		case *syntax.AtRule:
			r.atRule(c, v, only)
		case *syntax.Decl:
			r.decl(c, v, only)
		}
	}
}

// controls reads "autoprefixer: off" and "autoprefixer: ignore next"
// comments in c.
func controls(c *syntax.Container) (off bool, ignored map[syntax.Node]bool) {
	ignored = make(map[syntax.Node]bool)
	skip := false
	for _, n := range c.Nodes {
		if cm, ok := n.(*syntax.Comment); ok {
			switch control(cm) {
			case "off":
				off = true
			case "ignore next":
				skip = true
			}
			continue
		}
		if skip {
			ignored[n] = true
			skip = false
		}
	}
	return off, ignored
}

func control(c *syntax.Comment) string {
	text := c.Text
	if c.Inline() {
		text = strings.TrimPrefix(text, "//")
	} else {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	}
	text = strings.ToLower(strings.TrimSpace(text))
	rest, ok := strings.CutPrefix(text, "autoprefixer:")
	if !ok {
		return ""
	}
	return strings.Join(strings.Fields(rest), " ")
}

func (r *run) atRule(c *syntax.Container, a *syntax.AtRule, only string) {
	if !a.HasBlock {
		return
	}
	prefix, base := splitPrefix(strings.ToLower(a.Name))
	if prefix != "" {
		r.container(&a.Container, prefix)
		return
	}

	if f, ok := r.features.byAt[base]; ok {
		var clones []syntax.Node
		var inner []*syntax.AtRule
		for _, p := range filterPrefixes(r.prefixes.Needed(f.Name), only) {
			name := p + a.Name
			if hasAtRule(c, name, a.Params) {
				continue
			}
			clone := a.Clone()
			clone.Name = name
			clones = append(clones, clone)
			inner = append(inner, clone)
		}
		if len(clones) > 0 {
			first, rest := spread(a.Raws.Before)
			if !strings.Contains(rest, "\n") {
				rest = "\n" + rest
			}
			for i, n := range inner {
				n.Raws.Before = rest
				if i == 0 {
					n.Raws.Before = first
				}
			}
			a.Raws.Before = rest
			c.InsertBefore(a, clones...)
			for _, clone := range inner {
				prefix, _ := splitPrefix(strings.ToLower(clone.Name))
				r.container(&clone.Container, prefix)
			}
		}
	}
	r.container(&a.Container, only)
}

func hasAtRule(c *syntax.Container, name, params string) bool {
	for _, n := range c.Nodes {
		if a, ok := n.(*syntax.AtRule); ok &&
			strings.EqualFold(a.Name, name) &&
			strings.TrimSpace(a.Params) == strings.TrimSpace(params) {
			return true
		}
	}
	return false
}

// skipProp reports custom properties, SCSS variables and interpolated
// names, which are never prefixed.
func skipProp(prop string) bool {
	return strings.HasPrefix(prop, "--") ||
		strings.HasPrefix(prop, "$") ||
		strings.Contains(prop, "#{")
}

func (r *run) decl(c *syntax.Container, d *syntax.Decl, only string) {
	prop := strings.ToLower(d.Prop)
	if skipProp(prop) {
		return
	}

	prefix, base := splitPrefix(prop)
	if prefix != "" {
		if only != "" && only != prefix {
			return
		}
		clones := r.valueClones(c, d, base, prefix)
		r.insert(c, d, clones, nil, 0)
		return
	}

	r.checkDecl(d, prop)

	if isFlex(prop, d.Value) {
		clones, cascadeOf, width := r.flexClones(c, d, prop, only)
		r.insert(c, d, clones, cascadeOf, width)
		return
	}

	var (
		clones    []*syntax.Decl
		cascadeOf []string
		width     int
	)
	if f, ok := r.features.byProp[prop]; ok {
		needed := filterPrefixes(r.prefixes.Needed(f.Name), only)
		for _, p := range needed {
			name := p + d.Prop
			if hasProp(c, name) || otherPrefixes(d.Value, p) {
				continue
			}
			clones = append(clones, cloneDecl(d, name, r.valueFor(d.Value, prop, p)))
			cascadeOf = append(cascadeOf, p)
		}
		width = maxPrefixLen(needed)
	}
	for _, v := range r.valueClones(c, d, prop, only) {
		clones = append(clones, v)
		cascadeOf = append(cascadeOf, "")
	}
	r.insert(c, d, clones, cascadeOf, width)
}

// checkDecl emits warnings for outdated syntax.
func (r *run) checkDecl(d *syntax.Decl, prop string) {
	if prop == "display" && strings.EqualFold(strings.TrimSpace(d.Value), "box") {
		r.warn(d, warnDisplayBox)
	}
	if hasOldGradient(d.Value) {
		r.warn(d, warnGradientDirection)
	}
}

// valueClones returns copies of d with prefixed values, one per prefix
// that changes the value.
func (r *run) valueClones(c *syntax.Container, d *syntax.Decl, prop, only string) []*syntax.Decl {
	if len(r.features.byValue[prop]) == 0 {
		return nil
	}
	var out []*syntax.Decl
	for _, p := range prefixOrder {
		if only != "" && p != only {
			continue
		}
		v := r.prefixValue(d.Value, prop, p)
		if v == d.Value || hasDecl(c, d.Prop, v) || otherPrefixes(d.Value, p) {
			continue
		}
		out = append(out, cloneDecl(d, d.Prop, v))
	}
	return out
}

// insert places clones in front of ref. cascadeOf holds, per clone, the
// prefix used for cascade alignment or "" for clones that are not aligned.
// width is the longest prefix among the feature's prefixes.
func (r *run) insert(c *syntax.Container, ref *syntax.Decl, clones []*syntax.Decl, cascadeOf []string, width int) {
	if len(clones) == 0 {
		r.reduce(c, ref)
		return
	}

	cascade := r.opts.Cascade && width > 0 && strings.Contains(ref.Raws.Before, "\n")
	if cascade {
		lead, indent := splitBefore(ref.Raws.Before)
		base := r.baseIndent(c, ref, indent)
		nl := newline(lead)
		for i, cl := range clones {
			b := nl
			if i == 0 {
				b = lead
			}
			if p := cascadeOf[i]; p != "" {
				b += base + spaces(width-len(p))
			} else {
				b += base
			}
			cl.Raws.Before = b
		}
		ref.Raws.Before = nl + base + spaces(width)
	} else {
		first, rest := spread(ref.Raws.Before)
		for i, cl := range clones {
			cl.Raws.Before = rest
			if i == 0 {
				cl.Raws.Before = first
			}
		}
		ref.Raws.Before = rest
	}

	nodes := make([]syntax.Node, len(clones))
	for i, cl := range clones {
		nodes[i] = cl
	}
	c.InsertBefore(ref, nodes...)
}

// reduce removes cascade indentation from ref once all of its prefixed
// variants were removed.
func (r *run) reduce(c *syntax.Container, ref *syntax.Decl) {
	base, ok := r.reindent[ref]
	if !ok || hasVariants(c, ref) {
		return
	}
	lead, _ := splitBefore(ref.Raws.Before)
	ref.Raws.Before = lead + base
}

// baseIndent returns the shortest indent among ref, its prefixed variants
// and cascaded declarations removed in front of it.
func (r *run) baseIndent(c *syntax.Container, ref *syntax.Decl, indent string) string {
	base := indent
	if removed, ok := r.reindent[ref]; ok && len(removed) < len(base) {
		base = removed
	}
	norm := normalizeProp(strings.ToLower(ref.Prop))
	for _, d := range c.Decls() {
		if d == ref || !strings.Contains(d.Raws.Before, "\n") {
			continue
		}
		prefix, b := splitPrefix(strings.ToLower(d.Prop))
		if prefix == "" || !sameNorm(normalizeProp(b), norm) {
			continue
		}
		if _, in := splitBefore(d.Raws.Before); len(in) < len(base) {
			base = in
		}
	}
	return base
}

func hasVariants(c *syntax.Container, ref *syntax.Decl) bool {
	norm := normalizeProp(strings.ToLower(ref.Prop))
	for _, d := range c.Decls() {
		prefix, b := splitPrefix(strings.ToLower(d.Prop))
		if prefix != "" && sameNorm(normalizeProp(b), norm) {
			return true
		}
	}
	return false
}

func cloneDecl(d *syntax.Decl, prop, value string) *syntax.Decl {
	c := d.Clone()
	c.Prop = prop
	c.Value = value
	c.Raws.Semicolon = true
	if strings.ContainsAny(c.Raws.Trail, "\r\n") {
		c.Raws.Trail = ""
	}
	return c
}

func hasProp(c *syntax.Container, prop string) bool {
	for _, d := range c.Decls() {
		if strings.EqualFold(d.Prop, prop) {
			return true
		}
	}
	return false
}

func hasDecl(c *syntax.Container, prop, value string) bool {
	value = strings.TrimSpace(value)
	for _, d := range c.Decls() {
		if strings.EqualFold(d.Prop, prop) && strings.TrimSpace(d.Value) == value {
			return true
		}
	}
	return false
}

// splitBefore splits whitespace before a node into the part up to and
// including the last line break, and the indent after it.
func splitBefore(before string) (lead, indent string) {
	i := strings.LastIndexByte(before, '\n')
	if i < 0 {
		return "", before
	}
	return before[:i+1], before[i+1:]
}

// spread returns the whitespace for the first of several nodes inserted in
// place of one, and for the nodes after it. Blank lines stay in front of
// the first node.
func spread(before string) (first, rest string) {
	lead, indent := splitBefore(before)
	if lead == "" {
		return before, before
	}
	return before, newline(lead) + indent
}

func newline(lead string) string {
	if strings.HasSuffix(lead, "\r\n") {
		return "\r\n"
	}
	if lead == "" {
		return ""
	}
	return "\n"
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

func lineColumn(src string, offset int) (line, col int) {
	offset = min(max(offset, 0), len(src))
	line = 1 + strings.Count(src[:offset], "\n")
	start := strings.LastIndexByte(src[:offset], '\n') + 1
	return line, offset - start + 1
}
