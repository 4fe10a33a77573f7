// Package editor implements TextEditor, the headless editor that extensions
// operate on.
//
// A TextEditor ties together a buffer, its selections, a viewport, an undo
// history and a grammar scope, and exposes the operations an extension
// needs: reading the text or the selection, replacing a range or the whole
// text through a minimal diff, placing the cursor, scrolling, and hooking
// into saves.
//
// Positions are buffer.Point values (0-based line and byte column). Out of
// range points are clipped to the nearest valid position, never rejected.
//
// Will-save handlers run synchronously in priority order on the goroutine
// calling Save, and the file is written only after all of them returned.
package editor
