// Package history provides undo/redo for an editor buffer.
//
// History subscribes to the buffer's change stream and records every
// applied buffer.Change. Changes recorded between BeginGroup and EndGroup
// form one undo unit, so a whole reformat of a document undoes in one step:
//
//	h := history.NewHistory(buf, 1000)
//
//	h.Transaction("autoprefixer", func() error {
//	    _, err := buf.SetTextViaDiff(prefixed)
//	    return err
//	})
//
//	h.Undo() // restores the pre-format text
//
// Undo applies the inverse of each recorded change in reverse order; Redo
// replays the changes forward. Changes applied while replaying are not
// recorded again.
package history
