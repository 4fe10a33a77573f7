package syntax

import (
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Dialect selects how tolerant the parser is and which extensions it
// understands.
type Dialect uint8

const (
	// DialectSafe parses plain CSS and repairs what it can: blocks left
	// open at the end of input are closed, stray "}" and unknown words are
	// kept verbatim.
	DialectSafe Dialect = iota
	// DialectSCSS accepts SCSS: nesting, "//" comments, $variables, #{}
	// interpolation, @mixin and @include. Structural damage is an error.
	DialectSCSS
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectSafe:
		return "safe"
	case DialectSCSS:
		return "scss"
	default:
		return "unknown"
	}
}

// Parse parses a stylesheet. from names the input in error messages.
func Parse(src string, d Dialect, from string) (*Root, error) {
	p := newParser(src, d, from)
	return p.parse()
}

// ParseDeclarations parses a declaration list such as the contents of an
// HTML style attribute. The declarations become children of the root.
func ParseDeclarations(src string, d Dialect, from string) (*Root, error) {
	p := newParser(src, d, from)
	p.inline = true
	return p.parse()
}

type parser struct {
	src     string
	dialect Dialect
	from    string
	inline  bool

	toks       []Token
	lineStarts []int

	root  *Root
	stack []frame

	// spaces collects whitespace between statements.
	spaces string
	// buf collects the tokens of the current statement.
	buf []Token
	// depth counts open parentheses and brackets in buf; interp counts
	// open #{} interpolations.
	depth  int
	interp int
}

type frame struct {
	container *Container
	raws      *BlockRaws
	pos       Position
}

func newParser(src string, d Dialect, from string) *parser {
	p := &parser{src: src, dialect: d, from: from}
	p.lineStarts = []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}
	return p
}

func (p *parser) position(offset int) Position {
	line := sort.Search(len(p.lineStarts), func(i int) bool {
		return p.lineStarts[i] > offset
	}) - 1
	return Position{Offset: offset, Line: line + 1, Column: offset - p.lineStarts[line] + 1}
}

func (p *parser) errorAt(offset int, reason string) *SyntaxError {
	pos := p.position(offset)
	return &SyntaxError{
		Reason: reason,
		File:   p.from,
		Line:   pos.Line,
		Column: pos.Column,
		Offset: offset,
		Source: p.src,
	}
}

func (p *parser) current() frame {
	return p.stack[len(p.stack)-1]
}

func (p *parser) add(n Node) {
	c := p.current().container
	c.Nodes = append(c.Nodes, n)
}

func (p *parser) parse() (*Root, error) {
	p.root = &Root{}
	p.stack = []frame{{container: &p.root.Container}}
	p.toks = Tokenize(p.src, p.dialect)

	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		if err := p.checkToken(t); err != nil {
			return nil, err
		}

		if len(p.buf) == 0 {
			if err := p.between(t); err != nil {
				return nil, err
			}
			continue
		}

		switch t.Type {
		case css.SemicolonToken:
			if p.depth > 0 || p.interp > 0 {
				p.buf = append(p.buf, t)
				continue
			}
			if err := p.endStatement(true); err != nil {
				return nil, err
			}
		case css.LeftBraceToken:
			if p.dialect == DialectSCSS && p.buf[len(p.buf)-1].isDelim('#') {
				p.interp++
				p.buf = append(p.buf, t)
				continue
			}
			if p.inline || p.depth > 0 || p.interp > 0 {
				p.buf = append(p.buf, t)
				continue
			}
			if err := p.openBlock(t); err != nil {
				return nil, err
			}
		case css.RightBraceToken:
			if p.interp > 0 {
				p.interp--
				p.buf = append(p.buf, t)
				continue
			}
			if p.inline {
				p.buf = append(p.buf, t)
				continue
			}
			if err := p.endStatement(false); err != nil {
				return nil, err
			}
			if err := p.closeBlock(t); err != nil {
				return nil, err
			}
		default:
			p.trackDepth(t)
			p.buf = append(p.buf, t)
		}
	}
	return p.finish()
}

// checkToken rejects damaged tokens outside the safe dialect.
func (p *parser) checkToken(t Token) error {
	if p.dialect == DialectSafe {
		return nil
	}
	switch {
	case t.Type == css.BadStringToken || t.Type == css.StringToken && !closedString(t.Data):
		return p.errorAt(t.Offset, "Unclosed string")
	case t.Type == css.BadURLToken:
		return p.errorAt(t.Offset, "Unclosed bracket")
	case t.Type == css.CommentToken && !t.IsLineComment() && !strings.HasSuffix(t.Data, "*/"):
		return p.errorAt(t.Offset, "Unclosed comment")
	}
	return nil
}

// closedString reports whether a string token ends with its opening quote.
// The lexer returns an unterminated string at end of input as a string.
func closedString(s string) bool {
	if len(s) < 2 || s[len(s)-1] != s[0] {
		return false
	}
	// An escaped closing quote does not count.
	n := 0
	for i := len(s) - 2; i > 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 0
}

func (p *parser) trackDepth(t Token) {
	switch t.Type {
	case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
		p.depth++
	case css.RightParenthesisToken, css.RightBracketToken:
		if p.depth > 0 {
			p.depth--
		}
	}
}

// between handles a token that arrives when no statement is open.
func (p *parser) between(t Token) error {
	switch t.Type {
	case css.WhitespaceToken:
		p.spaces += t.Data
	case css.CommentToken:
		p.add(&Comment{Text: t.Data, Before: p.takeSpaces(), Position: p.position(t.Offset)})
	case css.SemicolonToken:
		p.add(&Raw{Text: t.Data, Before: p.takeSpaces(), Position: p.position(t.Offset)})
	case css.RightBraceToken:
		return p.closeBlock(t)
	case css.LeftBraceToken:
		if p.inline {
			p.buf = append(p.buf, t)
			return nil
		}
		// A block without a selector.
		p.buf = []Token{}
		return p.openBlock(t)
	default:
		p.trackDepth(t)
		p.buf = append(p.buf, t)
	}
	return nil
}

func (p *parser) takeSpaces() string {
	s := p.spaces
	p.spaces = ""
	return s
}

// splitTrailing separates trailing whitespace tokens from a statement.
func splitTrailing(toks []Token) (body []Token, trail string) {
	end := len(toks)
	for end > 0 && toks[end-1].isSpace() {
		end--
	}
	return toks[:end], joinTokens(toks[end:])
}

func (p *parser) openBlock(brace Token) error {
	body, trail := splitTrailing(p.buf)
	p.buf = nil
	before := p.takeSpaces()

	if len(body) > 0 && body[0].Type == css.AtKeywordToken {
		at := p.atRule(body, before)
		at.Raws.Between = trail
		at.HasBlock = true
		p.add(at)
		p.stack = append(p.stack, frame{container: &at.Container, raws: &at.Raws, pos: at.Position})
		return nil
	}

	offset := brace.Offset
	if len(body) > 0 {
		offset = body[0].Offset
	}
	r := &Rule{
		Selector: joinTokens(body),
		Raws:     BlockRaws{Before: before, Between: trail},
		Position: p.position(offset),
	}
	p.add(r)
	p.stack = append(p.stack, frame{container: &r.Container, raws: &r.Raws, pos: r.Position})
	return nil
}

func (p *parser) closeBlock(brace Token) error {
	if len(p.stack) == 1 {
		if p.dialect != DialectSafe {
			return p.errorAt(brace.Offset, "Unexpected }")
		}
		p.add(&Raw{Text: brace.Data, Before: p.takeSpaces(), Position: p.position(brace.Offset)})
		return nil
	}
	f := p.current()
	f.raws.After = p.takeSpaces()
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func (p *parser) atRule(body []Token, before string) *AtRule {
	at := &AtRule{
		Name:     strings.TrimPrefix(body[0].Data, "@"),
		Raws:     BlockRaws{Before: before},
		Position: p.position(body[0].Offset),
	}
	rest := body[1:]
	i := 0
	for i < len(rest) && rest[i].isSpace() {
		i++
	}
	at.AfterName = joinTokens(rest[:i])
	at.Params = joinTokens(rest[i:])
	return at
}

// endStatement turns the buffered tokens into a declaration, a block-less
// at-rule or raw text.
func (p *parser) endStatement(semicolon bool) error {
	if len(p.buf) == 0 {
		return nil
	}
	body, trail := splitTrailing(p.buf)
	p.buf = nil
	p.depth, p.interp = 0, 0
	before := p.takeSpaces()

	if body[0].Type == css.AtKeywordToken {
		at := p.atRule(body, before)
		at.Raws.Between = trail
		at.Semicolon = semicolon
		p.add(at)
		return nil
	}

	d, err := p.decl(body, before)
	if err != nil {
		return err
	}
	if d == nil {
		text := joinTokens(body) + trail
		if semicolon {
			text += ";"
		}
		p.add(&Raw{Text: text, Before: before, Position: p.position(body[0].Offset)})
		return nil
	}
	d.Raws.Trail = trail
	d.Raws.Semicolon = semicolon
	p.add(d)
	return nil
}

// decl parses "prop: value". It returns nil, nil for a statement the safe
// dialect keeps as raw text.
func (p *parser) decl(body []Token, before string) (*Decl, error) {
	colon := -1
	depth := 0
	for i, t := range body {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			depth--
		case css.ColonToken:
			if depth == 0 && colon < 0 {
				colon = i
			}
		}
		if colon >= 0 {
			break
		}
	}
	if colon <= 0 || !isPropStart(body[0]) {
		if p.dialect == DialectSafe {
			return nil, nil
		}
		return nil, p.errorAt(body[0].Offset, "Unknown word")
	}

	propToks, propTrail := splitTrailing(body[:colon])
	rest := body[colon+1:]
	lead := 0
	for lead < len(rest) && (rest[lead].isSpace() || rest[lead].Type == css.CommentToken) {
		lead++
	}
	if lead == len(rest) {
		return nil, p.errorAt(body[0].Offset, "Unknown word")
	}

	value := joinTokens(rest[lead:])
	value, important := splitImportant(value)
	return &Decl{
		Prop:      joinTokens(propToks),
		Value:     value,
		Important: important,
		Raws: DeclRaws{
			Before:  before,
			Between: propTrail + ":" + joinTokens(rest[:lead]),
		},
		Position: p.position(body[0].Offset),
	}, nil
}

func isPropStart(t Token) bool {
	switch t.Type {
	case css.IdentToken, css.CustomPropertyNameToken:
		return true
	case css.DelimToken:
		// $variable, and the *prop and _prop hacks.
		return t.isDelim('$') || t.isDelim('*') || t.isDelim('_')
	case css.HashToken:
		// #{$interpolated}-prop in SCSS arrives as "#" + "{".
		return false
	}
	return false
}

// splitImportant separates a trailing "!important" (with the whitespace
// before it) from a value.
func splitImportant(value string) (string, string) {
	lower := strings.ToLower(value)
	if !strings.HasSuffix(lower, "important") {
		return value, ""
	}
	bang := strings.LastIndexByte(value, '!')
	if bang < 0 || strings.TrimSpace(lower[bang+1:]) != "important" {
		return value, ""
	}
	cut := bang
	for cut > 0 && (value[cut-1] == ' ' || value[cut-1] == '\t' || value[cut-1] == '\n') {
		cut--
	}
	return value[:cut], value[cut:]
}

func (p *parser) finish() (*Root, error) {
	if len(p.buf) > 0 {
		if err := p.endStatement(false); err != nil {
			return nil, err
		}
	}
	if len(p.stack) > 1 {
		if p.dialect != DialectSafe {
			return nil, p.errorAt(p.current().pos.Offset, "Unclosed block")
		}
		for len(p.stack) > 1 {
			f := p.current()
			f.raws.After = p.takeSpaces()
			f.raws.Unclosed = true
			p.stack = p.stack[:len(p.stack)-1]
		}
	}
	p.root.After = p.takeSpaces()
	return p.root, nil
}
