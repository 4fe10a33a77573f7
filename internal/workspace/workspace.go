package workspace

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/event"
)

// Workspace manages all open editors.
type Workspace struct {
	mu      sync.RWMutex
	editors map[string]*editor.TextEditor // id -> editor
	order   []string                      // open order
	active  *editor.TextEditor

	editorOpts []editor.Option
	log        *zap.Logger

	commands      *Commands
	notifications *Notifications

	didAdd    event.Emitter[*editor.TextEditor]
	didActive event.Emitter[*editor.TextEditor]
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Workspace) {
		if log != nil {
			w.log = log
		}
	}
}

// WithEditorOptions sets options applied to every editor the workspace opens.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(w *Workspace) {
		w.editorOpts = append(w.editorOpts, opts...)
	}
}

// New creates an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		editors: make(map[string]*editor.TextEditor),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.commands = newCommands(w)
	w.notifications = newNotifications(w.log.Named("notifications"))
	return w
}

// Commands returns the command registry.
func (w *Workspace) Commands() *Commands { return w.commands }

// Notifications returns the notification center.
func (w *Workspace) Notifications() *Notifications { return w.notifications }

// Open opens path in a new editor and makes it active.
// Returns the existing editor if path is already open.
func (w *Workspace) Open(path string) (*editor.TextEditor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if e := w.EditorForPath(abs); e != nil {
		w.SetActive(e)
		return e, nil
	}

	opts := append([]editor.Option{editor.WithLogger(w.log.Named("editor"))}, w.editorOpts...)
	e, err := editor.Open(abs, opts...)
	if err != nil {
		return nil, err
	}
	w.Add(e)
	return e, nil
}

// OpenText opens an unsaved editor holding text and makes it active.
func (w *Workspace) OpenText(text string, opts ...editor.Option) *editor.TextEditor {
	all := append([]editor.Option{editor.WithLogger(w.log.Named("editor"))}, w.editorOpts...)
	e := editor.New(text, append(all, opts...)...)
	w.Add(e)
	return e
}

// Add adds an editor, makes it active and notifies observers.
func (w *Workspace) Add(e *editor.TextEditor) {
	w.mu.Lock()
	if _, exists := w.editors[e.ID()]; exists {
		w.mu.Unlock()
		w.SetActive(e)
		return
	}
	w.editors[e.ID()] = e
	w.order = append(w.order, e.ID())
	w.mu.Unlock()

	w.log.Debug("editor added", zap.String("editor", e.ID()), zap.String("path", e.Path()))
	if err := w.didAdd.Emit(e); err != nil {
		w.log.Warn("editor observer failed", zap.Error(err))
	}
	w.SetActive(e)
}

// Close destroys an editor and removes it. The most recently opened
// remaining editor becomes active.
func (w *Workspace) Close(e *editor.TextEditor) error {
	w.mu.Lock()
	if _, exists := w.editors[e.ID()]; !exists {
		w.mu.Unlock()
		return ErrEditorNotFound
	}
	delete(w.editors, e.ID())
	for i, id := range w.order {
		if id == e.ID() {
			w.order = append(w.order[:i:i], w.order[i+1:]...)
			break
		}
	}
	var next *editor.TextEditor
	if w.active == e {
		if n := len(w.order); n > 0 {
			next = w.editors[w.order[n-1]]
		}
		w.active = next
	}
	w.mu.Unlock()

	e.Destroy()
	if next != nil {
		w.didActive.Emit(next)
	}
	return nil
}

// ActiveTextEditor returns the active editor, or nil.
func (w *Workspace) ActiveTextEditor() *editor.TextEditor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// SetActive makes e the active editor.
func (w *Workspace) SetActive(e *editor.TextEditor) {
	w.mu.Lock()
	if _, exists := w.editors[e.ID()]; !exists || w.active == e {
		w.mu.Unlock()
		return
	}
	w.active = e
	w.mu.Unlock()

	if err := w.didActive.Emit(e); err != nil {
		w.log.Warn("active editor observer failed", zap.Error(err))
	}
}

// EditorForPath returns the editor open on path, or nil.
func (w *Workspace) EditorForPath(path string) *editor.TextEditor {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, id := range w.order {
		if e := w.editors[id]; e.Path() == abs {
			return e
		}
	}
	return nil
}

// Editors returns all open editors in open order.
func (w *Workspace) Editors() []*editor.TextEditor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*editor.TextEditor, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.editors[id])
	}
	return out
}

// Count returns the number of open editors.
func (w *Workspace) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.editors)
}

// ObserveTextEditors calls fn with every open editor now and with every
// editor added later, until the returned disposable is disposed.
func (w *Workspace) ObserveTextEditors(fn func(*editor.TextEditor)) event.Disposable {
	d := w.didAdd.Listen(fn)
	for _, e := range w.Editors() {
		fn(e)
	}
	return d
}

// OnDidAddTextEditor calls fn with every editor added later.
func (w *Workspace) OnDidAddTextEditor(fn func(*editor.TextEditor)) event.Disposable {
	return w.didAdd.Listen(fn)
}

// OnDidChangeActiveTextEditor calls fn when another editor becomes active.
func (w *Workspace) OnDidChangeActiveTextEditor(fn func(*editor.TextEditor)) event.Disposable {
	return w.didActive.Listen(fn)
}

// Destroy closes every editor and drops all observers.
func (w *Workspace) Destroy() {
	for _, e := range w.Editors() {
		w.Close(e)
	}
	w.didAdd.Clear()
	w.didActive.Clear()
	w.commands.Clear()
}
