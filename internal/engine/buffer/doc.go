// Package buffer provides the thread-safe text buffer behind every open
// editor. Text is held as a single string with a line-start index, which is
// plenty for stylesheets and markup documents.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Coordinate conversion between byte offsets and line/column positions,
//     with clipping of out-of-range positions
//   - Batch edits and minimal-diff whole-text replacement (SetTextViaDiff)
//   - Markers that follow the text they cover across edits
//   - Change listeners and revision tracking
//   - Line ending detection and normalization
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("a {\n  color: red;\n}\n")
//
//	// Anchor a marker on the declaration line
//	m := buf.MarkRange(buffer.Range{Start: 4, End: 17})
//
//	// Rewrite the whole text; only the changed lines are touched
//	buf.SetTextViaDiff("a {\n  color: red;\n  margin: 0;\n}\n")
//
//	m.Text() // "  color: red;"
//
// Position Types:
//
//   - ByteOffset: Raw byte position in the buffer
//   - Point: Line and column position (0-indexed, column in bytes)
//
// Thread Safety:
//
// All Buffer methods are thread-safe. Change listeners are invoked after the
// write lock is released, so a listener may read the buffer but must not
// assume no other write happened in between.
package buffer
