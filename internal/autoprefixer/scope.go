package autoprefixer

import (
	"github.com/google/uuid"

	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/engine/buffer"
	"github.com/dshills/autoprefix/internal/prefixer"
)

// Trigger is what started an invocation.
type Trigger uint8

const (
	// TriggerManual is the autoprefixer command.
	TriggerManual Trigger = iota
	// TriggerSave is the will-save hook.
	TriggerSave
)

func (t Trigger) String() string {
	switch t {
	case TriggerManual:
		return "manual"
	case TriggerSave:
		return "save"
	default:
		return "unknown"
	}
}

// IsSupportedScope reports whether the save hook runs for documents with
// the grammar scope. HTML documents are supported when html is set.
func IsSupportedScope(scope string, html bool) bool {
	switch scope {
	case editor.ScopeCSS, editor.ScopeSCSS:
		return true
	case editor.ScopeHTML:
		return html
	}
	return false
}

// ResolveScope picks the parser for a document. Plain CSS uses the
// tolerant parser and every other scope the SCSS parser, except HTML: a
// whole HTML document is processed as HTML, while a selection in it is
// CSS taken out of the document and uses the tolerant parser.
func ResolveScope(scope string, hasSelection bool) prefixer.Dialect {
	switch scope {
	case editor.ScopeCSS:
		return prefixer.DialectSafe
	case editor.ScopeHTML:
		if hasSelection {
			return prefixer.DialectSafe
		}
		return prefixer.DialectHTML
	}
	return prefixer.DialectSCSS
}

// Invocation is the input of one run, fixed when the run starts.
type Invocation struct {
	ID      string
	Scope   string
	Trigger Trigger
	Dialect prefixer.Dialect

	// Range and SelectionText are set when only the selection is
	// transformed.
	Range         buffer.PointRange
	SelectionText string

	FullText string
}

// NewInvocation captures the editor state a run works on. Only manual runs
// look at the selection; an empty selection means the whole document.
// html disables the HTML dialect when false.
func NewInvocation(e *editor.TextEditor, trigger Trigger, html bool) *Invocation {
	inv := &Invocation{
		ID:       uuid.NewString(),
		Scope:    e.Grammar(),
		Trigger:  trigger,
		FullText: e.Text(),
	}
	if trigger == TriggerManual {
		if text := e.SelectedText(); text != "" {
			inv.SelectionText = text
			inv.Range = e.SelectedBufferRange()
		}
	}
	inv.Dialect = ResolveScope(inv.Scope, inv.SelectionScoped())
	if inv.Dialect == prefixer.DialectHTML && !html {
		inv.Dialect = prefixer.DialectSCSS
	}
	return inv
}

// SelectionScoped reports whether the run replaces only the selection.
func (inv *Invocation) SelectionScoped() bool {
	return inv.SelectionText != ""
}

// Input returns the text handed to the prefixer.
func (inv *Invocation) Input() string {
	if inv.SelectionScoped() {
		return inv.SelectionText
	}
	return inv.FullText
}
