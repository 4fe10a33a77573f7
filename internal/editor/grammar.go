package editor

import (
	"path/filepath"
	"strings"
)

// Grammar scopes assigned by file extension.
const (
	ScopeCSS   = "source.css"
	ScopeSCSS  = "source.css.scss"
	ScopeSass  = "source.sass"
	ScopeLess  = "source.css.less"
	ScopeHTML  = "text.html.basic"
	ScopePlain = "text.plain"
)

// DetectGrammar returns the grammar scope for a file path.
func DetectGrammar(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return ScopeCSS
	case ".scss":
		return ScopeSCSS
	case ".sass":
		return ScopeSass
	case ".less":
		return ScopeLess
	case ".html", ".htm", ".xhtml":
		return ScopeHTML
	default:
		return ScopePlain
	}
}
