package prefixer

import (
	"strings"

	"github.com/dshills/autoprefix/internal/prefixer/syntax"
)

// remove drops prefixed declarations and at-rules that none of the targets
// need. A prefixed node is only removed when an unprefixed equivalent
// follows it in the same block.
func (r *run) remove(c *syntax.Container, ignored map[syntax.Node]bool) {
	nodes := append([]syntax.Node(nil), c.Nodes...)
	for i, n := range nodes {
		if ignored[n] {
			continue
		}
		rest := nodes[i+1:]
		switch v := n.(type) {
		case *syntax.Decl:
			if u := r.outdated(v, rest); u != nil {
				r.drop(c, v, u)
			}
		case *syntax.AtRule:
			prefix, base := splitPrefix(strings.ToLower(v.Name))
			if prefix == "" {
				continue
			}
			f, ok := r.features.byAt[base]
			if !ok || r.prefixes.Needs(f.Name, prefix) {
				continue
			}
			if laterAtRule(rest, base, v.Params) {
				c.Remove(v)
			}
		}
	}
}

// outdated returns the declaration that makes d redundant, or nil when d
// has to stay.
func (r *run) outdated(d *syntax.Decl, rest []syntax.Node) *syntax.Decl {
	prop := strings.ToLower(d.Prop)
	if skipProp(prop) {
		return nil
	}
	prefix, base := splitPrefix(prop)
	if vendorPrefixes[prefix] {
		if f, ok := r.propFeature(prefix, base); ok && !r.prefixes.Needs(f.Name, prefix) {
			return laterUnprefixed(rest, normalizeProp(base))
		}
	}

	vp, name := valuePrefix(d.Value)
	if vp == "" {
		return nil
	}
	f, ok := r.valueFeatureOf(base, vp, name)
	if !ok || r.prefixes.Needs(f.Name, vp) {
		return nil
	}
	return laterPlainValue(rest, d.Prop)
}

func (r *run) propFeature(prefix, base string) (*Feature, bool) {
	if f, ok := r.flexFeature(prefix, base); ok {
		return f, true
	}
	f, ok := r.features.byProp[base]
	return f, ok
}

// valueFeatureOf finds the feature a prefixed keyword or function of prop
// belongs to.
func (r *run) valueFeatureOf(prop, prefix, name string) (*Feature, bool) {
	if prop == "display" {
		return r.displayFeature(prefix, name)
	}
	switch name {
	case "available":
		name = "fill-available"
	}
	for _, f := range r.features.byValue[prop] {
		for _, v := range f.Values {
			if v == name {
				return f, true
			}
		}
	}
	return nil, false
}

func laterUnprefixed(rest []syntax.Node, names []string) *syntax.Decl {
	for _, n := range rest {
		d, ok := n.(*syntax.Decl)
		if !ok {
			continue
		}
		prop := strings.ToLower(d.Prop)
		if prefix, _ := splitPrefix(prop); prefix != "" {
			continue
		}
		for _, name := range names {
			if prop == name {
				return d
			}
		}
	}
	return nil
}

func laterPlainValue(rest []syntax.Node, prop string) *syntax.Decl {
	for _, n := range rest {
		d, ok := n.(*syntax.Decl)
		if !ok || !strings.EqualFold(d.Prop, prop) {
			continue
		}
		if p, _ := valuePrefix(d.Value); p == "" {
			return d
		}
	}
	return nil
}

func laterAtRule(rest []syntax.Node, name, params string) bool {
	for _, n := range rest {
		if a, ok := n.(*syntax.AtRule); ok &&
			strings.EqualFold(a.Name, name) &&
			strings.TrimSpace(a.Params) == strings.TrimSpace(params) {
			return true
		}
	}
	return false
}

// drop removes d. A blank line in front of d moves to the node after it,
// and the indent of a cascaded d is remembered for the declaration u it
// was a variant of.
func (r *run) drop(c *syntax.Container, d, u *syntax.Decl) {
	i := c.Index(d)
	if i < 0 {
		return
	}
	lead, indent := splitBefore(d.Raws.Before)
	if lead != "" {
		base, ok := r.reindent[u]
		if !ok {
			_, base = splitBefore(u.Raws.Before)
		}
		if len(indent) < len(base) {
			base = indent
		}
		r.reindent[u] = base
	}
	if i+1 < len(c.Nodes) {
		if next, ok := c.Nodes[i+1].(*syntax.Decl); ok &&
			strings.Count(lead, "\n") > strings.Count(next.Raws.Before, "\n") {
			_, in := splitBefore(next.Raws.Before)
			next.Raws.Before = lead + in
		}
	}
	c.Remove(d)
}
