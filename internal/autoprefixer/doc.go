// Package autoprefixer is the editor extension that runs the prefixer over
// a document and writes the result back.
//
// An invocation starts from the "autoprefixer:run" command or from the
// will-save hook and goes through
//
//	idle → scope-resolved → transforming → applying → idle
//	                                     ↘ failed → idle
//
// The document's grammar scope selects the parser (ResolveScope). Manual
// runs on a non-empty selection transform only the selection; everything
// else transforms the whole document. Save-triggered runs are skipped
// unless run-on-save is enabled and the scope is supported.
//
// Results are written back with the least disruption: a selection is
// replaced in place, a whole document through a line diff so untouched
// regions keep their markers, and the cursor and scroll position are
// restored afterwards (Apply).
//
// Activate returns the Extension holding every registration; Deactivate
// releases them.
package autoprefixer
