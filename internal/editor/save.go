package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/event"
)

// WillSaveEvent is delivered to will-save handlers before the file is
// written. Handlers may modify the editor; the modified text is saved.
type WillSaveEvent struct {
	Context context.Context
	Editor  *TextEditor
	Path    string
}

// OnWillSave registers fn to run before every save.
func (e *TextEditor) OnWillSave(fn func(*WillSaveEvent) error, opts ...event.SubscriptionOption) event.Disposable {
	sub, err := e.willSave.On(fn, opts...)
	if err != nil {
		return event.DisposableFunc(nil)
	}
	return sub
}

// OnDidSave registers fn to run after every successful save.
func (e *TextEditor) OnDidSave(fn func(*TextEditor)) event.Disposable {
	return e.didSave.Listen(fn)
}

// Save runs the will-save handlers and writes the text to the editor's
// path. A failing handler is logged and does not prevent the save.
func (e *TextEditor) Save(ctx context.Context) error {
	path := e.Path()
	if path == "" {
		return ErrNoPath
	}
	return e.SaveAs(ctx, path)
}

// SaveAs is Save to a new path, which becomes the editor's path.
func (e *TextEditor) SaveAs(ctx context.Context, path string) error {
	if e.destroyed.Load() {
		return ErrDestroyed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.path = path
	e.mu.Unlock()

	if err := e.willSave.Emit(&WillSaveEvent{Context: ctx, Editor: e, Path: path}); err != nil {
		e.log.Warn("will-save handler failed", zap.String("path", path), zap.Error(err))
	}

	text := e.buf.Text()
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	e.mu.Lock()
	e.savedText = text
	e.mu.Unlock()

	e.log.Debug("saved", zap.String("path", path), zap.Int("bytes", len(text)))
	if err := e.didSave.Emit(e); err != nil {
		e.log.Warn("did-save handler failed", zap.Error(err))
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place,
// keeping the original file mode when the file exists.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
