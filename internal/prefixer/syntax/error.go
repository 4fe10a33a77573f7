package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFile names the input in messages when no file name is known.
const DefaultFile = "<css input>"

// SyntaxError reports malformed input with its location. It is the error
// class editors show with a source excerpt.
type SyntaxError struct {
	Reason string
	File   string
	// Line and Column are 1-based.
	Line   int
	Column int
	Offset int
	// Source is the full text that failed to parse.
	Source string
}

func (e *SyntaxError) Error() string {
	file := e.File
	if file == "" {
		file = DefaultFile
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, e.Line, e.Column, e.Reason)
}

// ShowSourceCode returns the lines around the error with a caret under
// the failing column:
//
//	  1 | a{
//	> 2 |   color:
//	    |   ^
func (e *SyntaxError) ShowSourceCode() string {
	if e.Source == "" || e.Line < 1 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	start := max(e.Line-3, 0)
	end := min(e.Line+2, len(lines))
	width := len(strconv.Itoa(end))

	var sb strings.Builder
	for i := start; i < end; i++ {
		number := i + 1
		gutter := fmt.Sprintf(" %*d | ", width, number)
		if i > start {
			sb.WriteByte('\n')
		}
		if number != e.Line {
			sb.WriteString(" ")
			sb.WriteString(gutter)
			sb.WriteString(lines[i])
			continue
		}
		sb.WriteString(">")
		sb.WriteString(gutter)
		sb.WriteString(lines[i])
		sb.WriteString("\n ")
		sb.WriteString(strings.Map(blankDigit, gutter))
		sb.WriteString(caretSpacing(lines[i], e.Column))
		sb.WriteByte('^')
	}
	return sb.String()
}

func blankDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return ' '
	}
	return r
}

// caretSpacing blanks the text before column, keeping tabs so the caret
// lines up under the same display column.
func caretSpacing(line string, column int) string {
	n := min(max(column-1, 0), len(line))
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		return ' '
	}, line[:n])
}

// Relocate returns a copy of e positioned within an enclosing document:
// offset is where the parsed fragment starts in source.
func (e *SyntaxError) Relocate(source string, offset int) *SyntaxError {
	c := *e
	c.Source = source
	c.Offset = e.Offset + offset
	c.Line, c.Column = lineColumn(source, c.Offset)
	return &c
}

func lineColumn(src string, offset int) (line, col int) {
	offset = min(max(offset, 0), len(src))
	line = 1 + strings.Count(src[:offset], "\n")
	start := strings.LastIndexByte(src[:offset], '\n') + 1
	return line, offset - start + 1
}
