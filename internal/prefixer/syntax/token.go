package syntax

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Token is one lexical token with its byte offset in the source.
// Concatenating the Data of all tokens reproduces the source exactly.
type Token struct {
	Type   css.TokenType
	Data   string
	Offset int
}

// IsLineComment reports whether t is an SCSS "//" comment.
func (t Token) IsLineComment() bool {
	return t.Type == css.CommentToken && strings.HasPrefix(t.Data, "//")
}

func (t Token) isSpace() bool {
	return t.Type == css.WhitespaceToken
}

func (t Token) isDelim(c byte) bool {
	return t.Type == css.DelimToken && len(t.Data) == 1 && t.Data[0] == c
}

// Tokenize splits src into tokens. In the SCSS dialect "//" line comments
// are recognized and returned as comment tokens; the rest of the text is
// lexed with the CSS tokenizer.
func Tokenize(src string, d Dialect) []Token {
	if d != DialectSCSS {
		return lex(src, 0, nil)
	}
	var toks []Token
	start := 0
	for _, c := range lineComments(src) {
		toks = lex(src[start:c[0]], start, toks)
		toks = append(toks, Token{Type: css.CommentToken, Data: src[c[0]:c[1]], Offset: c[0]})
		start = c[1]
	}
	return lex(src[start:], start, toks)
}

func lex(src string, base int, toks []Token) []Token {
	if src == "" {
		return toks
	}
	l := css.NewLexer(parse.NewInputString(src))
	offset := base
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		toks = append(toks, Token{Type: tt, Data: string(data), Offset: offset})
		offset += len(data)
	}
	// The lexer stops at its first error; keep any unconsumed bytes so the
	// token stream stays lossless.
	if rest := base + len(src) - offset; rest > 0 {
		toks = append(toks, Token{Type: css.DelimToken, Data: src[offset-base:], Offset: offset})
	}
	return toks
}

// lineComments returns the [start, end) byte ranges of "//" comments,
// skipping strings, block comments and unquoted url() arguments. The end
// excludes the terminating newline.
func lineComments(src string) [][2]int {
	var out [][2]int
	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			i = skipString(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return out
			}
			i += end + 3
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			out = append(out, [2]int{i, i + end})
			i += end - 1
		case (c == 'u' || c == 'U') && hasURLPrefix(src[i:]) && (i == 0 || !isNameByte(src[i-1])):
			end := strings.IndexByte(src[i:], ')')
			if end < 0 {
				return out
			}
			i += end
		}
	}
	return out
}

func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote, '\n':
			return j
		}
	}
	return len(src)
}

func hasURLPrefix(s string) bool {
	return len(s) >= 4 && strings.EqualFold(s[:4], "url(")
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func joinTokens(toks []Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.Data)
	}
	return sb.String()
}
