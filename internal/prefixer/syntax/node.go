package syntax

import "strings"

// Position locates a node in its source. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Node is an element of the stylesheet tree.
type Node interface {
	Pos() Position
	write(sb *strings.Builder)
}

// Container is embedded by nodes that hold children.
type Container struct {
	Nodes []Node
}

// Index returns the position of n among the children, or -1.
func (c *Container) Index(n Node) int {
	for i, child := range c.Nodes {
		if child == n {
			return i
		}
	}
	return -1
}

// InsertBefore inserts nodes in front of ref. It appends when ref is not
// a child.
func (c *Container) InsertBefore(ref Node, nodes ...Node) {
	i := c.Index(ref)
	if i < 0 {
		c.Nodes = append(c.Nodes, nodes...)
		return
	}
	out := make([]Node, 0, len(c.Nodes)+len(nodes))
	out = append(out, c.Nodes[:i]...)
	out = append(out, nodes...)
	out = append(out, c.Nodes[i:]...)
	c.Nodes = out
}

// Remove removes n and reports whether it was a child.
func (c *Container) Remove(n Node) bool {
	i := c.Index(n)
	if i < 0 {
		return false
	}
	c.Nodes = append(c.Nodes[:i], c.Nodes[i+1:]...)
	return true
}

// Decls returns the declarations directly inside the container.
func (c *Container) Decls() []*Decl {
	var out []*Decl
	for _, n := range c.Nodes {
		if d, ok := n.(*Decl); ok {
			out = append(out, d)
		}
	}
	return out
}

func (c *Container) writeChildren(sb *strings.Builder) {
	for _, n := range c.Nodes {
		n.write(sb)
	}
}

// Root is the top of a parsed stylesheet.
type Root struct {
	Container
	// After is the trailing whitespace and comments.
	After string
}

// Pos returns the start of the document.
func (r *Root) Pos() Position { return Position{Line: 1, Column: 1} }

// String renders the tree back to text. An unmodified tree renders to its
// source byte for byte.
func (r *Root) String() string {
	var sb strings.Builder
	r.write(&sb)
	return sb.String()
}

func (r *Root) write(sb *strings.Builder) {
	r.writeChildren(sb)
	sb.WriteString(r.After)
}

// Rule is a selector with a block.
type Rule struct {
	Container
	Selector string
	Raws     BlockRaws
	Position Position
}

// BlockRaws keeps the formatting around a block.
type BlockRaws struct {
	// Before precedes the node.
	Before string
	// Between separates the selector or params from "{".
	Between string
	// After precedes the closing "}".
	After string
	// Unclosed is set when the source ended inside the block. The closing
	// brace is still written.
	Unclosed bool
}

// Pos returns the position of the selector.
func (r *Rule) Pos() Position { return r.Position }

func (r *Rule) write(sb *strings.Builder) {
	sb.WriteString(r.Raws.Before)
	sb.WriteString(r.Selector)
	sb.WriteString(r.Raws.Between)
	sb.WriteByte('{')
	r.writeChildren(sb)
	sb.WriteString(r.Raws.After)
	sb.WriteByte('}')
}

// AtRule is an at-rule with or without a block.
type AtRule struct {
	Container
	Name     string
	Params   string
	Raws     BlockRaws
	Position Position

	// AfterName separates the name from the params.
	AfterName string
	// HasBlock reports a "{...}" body.
	HasBlock bool
	// Semicolon reports a terminating ";" on a block-less at-rule.
	Semicolon bool
}

// Pos returns the position of the "@".
func (a *AtRule) Pos() Position { return a.Position }

func (a *AtRule) write(sb *strings.Builder) {
	sb.WriteString(a.Raws.Before)
	sb.WriteByte('@')
	sb.WriteString(a.Name)
	sb.WriteString(a.AfterName)
	sb.WriteString(a.Params)
	sb.WriteString(a.Raws.Between)
	if a.HasBlock {
		sb.WriteByte('{')
		a.writeChildren(sb)
		sb.WriteString(a.Raws.After)
		sb.WriteByte('}')
		return
	}
	if a.Semicolon {
		sb.WriteByte(';')
	}
}

// Clone returns a deep copy of the at-rule.
func (a *AtRule) Clone() *AtRule {
	c := *a
	c.Nodes = cloneNodes(a.Nodes)
	return &c
}

// Decl is a "prop: value" declaration.
type Decl struct {
	Prop  string
	Value string
	// Important holds a trailing "!important" with its leading space.
	Important string
	Raws      DeclRaws
	Position  Position
}

// DeclRaws keeps the formatting of a declaration.
type DeclRaws struct {
	Before string
	// Between runs from the end of the property through the colon to the
	// start of the value.
	Between string
	// Trail is whitespace between the value and the ";".
	Trail     string
	Semicolon bool
}

// Pos returns the position of the property.
func (d *Decl) Pos() Position { return d.Position }

func (d *Decl) write(sb *strings.Builder) {
	sb.WriteString(d.Raws.Before)
	sb.WriteString(d.Prop)
	sb.WriteString(d.Raws.Between)
	sb.WriteString(d.Value)
	sb.WriteString(d.Important)
	sb.WriteString(d.Raws.Trail)
	if d.Raws.Semicolon {
		sb.WriteByte(';')
	}
}

// Clone returns a copy of the declaration.
func (d *Decl) Clone() *Decl {
	c := *d
	return &c
}

// Comment is a "/* */" comment, or a "//" comment in SCSS.
type Comment struct {
	Text     string
	Before   string
	Position Position
}

// Pos returns the position of the comment.
func (c *Comment) Pos() Position { return c.Position }

// Inline reports an SCSS "//" comment.
func (c *Comment) Inline() bool { return strings.HasPrefix(c.Text, "//") }

func (c *Comment) write(sb *strings.Builder) {
	sb.WriteString(c.Before)
	sb.WriteString(c.Text)
}

// Raw is text the tolerant parser kept without interpreting, such as a
// stray "}" or a word that is not a declaration.
type Raw struct {
	Text     string
	Before   string
	Position Position
}

// Pos returns the position of the text.
func (r *Raw) Pos() Position { return r.Position }

func (r *Raw) write(sb *strings.Builder) {
	sb.WriteString(r.Before)
	sb.WriteString(r.Text)
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		switch v := n.(type) {
		case *Decl:
			out[i] = v.Clone()
		case *AtRule:
			out[i] = v.Clone()
		case *Rule:
			c := *v
			c.Nodes = cloneNodes(v.Nodes)
			out[i] = &c
		case *Comment:
			c := *v
			out[i] = &c
		case *Raw:
			c := *v
			out[i] = &c
		default:
			out[i] = n
		}
	}
	return out
}

// Walk calls fn for every node below c in document order, depth first.
// fn receives the parent container of each node. Returning false skips the
// node's children.
func Walk(c *Container, fn func(n Node, parent *Container) bool) {
	nodes := append([]Node(nil), c.Nodes...)
	for _, n := range nodes {
		if !fn(n, c) {
			continue
		}
		switch v := n.(type) {
		case *Rule:
			Walk(&v.Container, fn)
		case *AtRule:
			Walk(&v.Container, fn)
		}
	}
}
