package prefixer

import (
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/autoprefix/internal/prefixer/syntax"
)

const bom = "\ufeff"

const reasonNotHTML = "Expected <!DOCTYPE html> or <html> at the start of the document"

// processHTML prefixes the CSS of <style> elements and style attributes.
// Everything else in the document is copied unchanged.
func (p *Processor) processHTML(ctx context.Context, src string, opts Options, prefixes *Prefixes) (*Result, error) {
	if err := checkDocument(src, opts.From); err != nil {
		return nil, err
	}

	var (
		out      strings.Builder
		warnings []Warning
		offset   int
		inStyle  bool
	)
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, z.Err()
		}
		// TagName lower-cases the token buffer, so copy the raw text first.
		raw := string(z.Raw())
		start := offset
		offset += len(raw)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag, ws, err := p.styleAttributes(ctx, src, raw, start, opts, prefixes)
			if err != nil {
				return nil, err
			}
			warnings = append(warnings, ws...)
			out.WriteString(tag)
			inStyle = tt == html.StartTagToken && string(name) == "style"
			continue
		case html.TextToken:
			if inStyle {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				css, ws, err := p.fragment(src, raw, start, false, opts, prefixes)
				if err != nil {
					return nil, err
				}
				warnings = append(warnings, ws...)
				out.WriteString(css)
				inStyle = false
				continue
			}
		}
		inStyle = false
		out.WriteString(raw)
	}
	return &Result{CSS: out.String(), Warnings: warnings}, nil
}

// fragment processes CSS found at offset start of the document src.
// Declaration lists come from style attributes.
func (p *Processor) fragment(src, css string, start int, declarations bool, opts Options, prefixes *Prefixes) (string, []Warning, error) {
	parse := syntax.Parse
	if declarations {
		parse = syntax.ParseDeclarations
	}
	root, err := parse(css, syntax.DialectSafe, opts.From)
	if err != nil {
		var se *syntax.SyntaxError
		if errors.As(err, &se) {
			return "", nil, se.Relocate(src, start)
		}
		return "", nil, err
	}
	r := newRun(p.features, prefixes, opts, src, start)
	r.container(&root.Container, "")
	return root.String(), r.warnings, nil
}

// styleAttributes rewrites the style attributes of the tag raw, which
// starts at offset start of src.
func (p *Processor) styleAttributes(ctx context.Context, src, raw string, start int, opts Options, prefixes *Prefixes) (string, []Warning, error) {
	spans := styleSpans(raw)
	if len(spans) == 0 {
		return raw, nil, nil
	}
	var (
		sb       strings.Builder
		warnings []Warning
		last     int
	)
	for _, s := range spans {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		css, ws, err := p.fragment(src, raw[s[0]:s[1]], start+s[0], true, opts, prefixes)
		if err != nil {
			return "", nil, err
		}
		warnings = append(warnings, ws...)
		sb.WriteString(raw[last:s[0]])
		sb.WriteString(css)
		last = s[1]
	}
	sb.WriteString(raw[last:])
	return sb.String(), warnings, nil
}

// styleSpans returns the byte ranges of style attribute values in a raw
// start tag.
func styleSpans(tag string) [][2]int {
	var spans [][2]int
	i := 1
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && (isTagSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}
		nameStart := i
		for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		name := tag[nameStart:i]
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			continue
		}
		i++
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) {
			break
		}

		var vs, ve int
		if q := tag[i]; q == '"' || q == '\'' {
			vs = i + 1
			end := strings.IndexByte(tag[vs:], q)
			if end < 0 {
				break
			}
			ve = vs + end
			i = ve + 1
		} else {
			vs = i
			for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' {
				i++
			}
			ve = i
		}
		if strings.EqualFold(name, "style") {
			spans = append(spans, [2]int{vs, ve})
		}
	}
	return spans
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// checkDocument requires src to be a complete HTML document. Leading
// whitespace and comments are allowed.
func checkDocument(src, from string) error {
	i := 0
	for {
		for i < len(src) {
			if isTagSpace(src[i]) {
				i++
			} else if strings.HasPrefix(src[i:], bom) {
				i += len(bom)
			} else {
				break
			}
		}
		if !strings.HasPrefix(src[i:], "<!--") {
			break
		}
		end := strings.Index(src[i+4:], "-->")
		if end < 0 {
			i = len(src)
			break
		}
		i += 4 + end + 3
	}
	rest := strings.ToLower(src[i:])
	if strings.HasPrefix(rest, "<!doctype") || strings.HasPrefix(rest, "<html") {
		return nil
	}
	line, col := lineColumn(src, i)
	return &syntax.SyntaxError{
		Reason: reasonNotHTML,
		File:   from,
		Line:   line,
		Column: col,
		Offset: i,
		Source: src,
	}
}
