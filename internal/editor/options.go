package editor

import "go.uber.org/zap"

// Option configures a TextEditor.
type Option func(*TextEditor)

// WithPath sets the file path and detects the grammar from it, unless a
// grammar was set explicitly.
func WithPath(path string) Option {
	return func(e *TextEditor) {
		e.path = path
	}
}

// WithGrammar sets the grammar scope explicitly.
func WithGrammar(scope string) Option {
	return func(e *TextEditor) {
		e.grammar = scope
	}
}

// WithViewportHeight sets how many rows are visible.
func WithViewportHeight(rows int) Option {
	return func(e *TextEditor) {
		e.view.Resize(rows)
	}
}

// WithScrollMargin sets the vertical scroll margin.
func WithScrollMargin(rows int) Option {
	return func(e *TextEditor) {
		e.view.SetMargin(rows)
	}
}

// WithHistoryLimit sets the maximum number of undo entries.
func WithHistoryLimit(n int) Option {
	return func(e *TextEditor) {
		e.historyLimit = n
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *TextEditor) {
		if log != nil {
			e.log = log
		}
	}
}
