package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/config"
	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/engine/buffer"
	"github.com/dshills/autoprefix/internal/event"
	"github.com/dshills/autoprefix/internal/workspace"
)

// ScriptTarget owns the commands scripts register.
const ScriptTarget = "script"

// API is the ks table of a State, bound to one workspace.
type API struct {
	ws     *workspace.Workspace
	cfg    *config.Config
	log    *zap.Logger
	bridge *Bridge

	subscriptions *event.CompositeDisposable
}

// RegisterAPI installs the ks global into s. cfg may be nil, in which case
// ks.config raises errors. Dispose the result to unregister the commands
// the script added.
func RegisterAPI(s *State, ws *workspace.Workspace, cfg *config.Config, log *zap.Logger) (*API, error) {
	if ws == nil {
		return nil, ErrNoWorkspace
	}
	if log == nil {
		log = zap.NewNop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStateClosed
	}

	a := &API{
		ws:            ws,
		cfg:           cfg,
		log:           log.Named("lua"),
		bridge:        NewBridge(s.L),
		subscriptions: event.NewCompositeDisposable(),
	}

	L := s.L
	ks := L.NewTable()
	L.SetField(ks, "command", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"run":      a.commandRun,
		"register": a.commandRegister,
		"list":     a.commandList,
	}))
	L.SetField(ks, "editor", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"open":    a.editorOpen,
		"text":    a.editorText,
		"select":  a.editorSelect,
		"save":    a.editorSave,
		"path":    a.editorPath,
		"grammar": a.editorGrammar,
	}))
	L.SetField(ks, "config", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get": a.configGet,
		"set": a.configSet,
	}))
	L.SetField(ks, "notify", L.NewFunction(a.notify))
	L.SetGlobal("ks", ks)
	return a, nil
}

// Dispose unregisters the commands added through ks.command.register.
func (a *API) Dispose() error {
	return a.subscriptions.Dispose()
}

func scriptContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (a *API) active(L *lua.LState) *editor.TextEditor {
	e := a.ws.ActiveTextEditor()
	if e == nil {
		L.RaiseError("%v", ErrNoEditor)
	}
	return e
}

// ks.command.run(id [, args])
func (a *API) commandRun(L *lua.LState) int {
	id := L.CheckString(1)
	var args map[string]any
	if t, ok := L.Get(2).(*lua.LTable); ok {
		if m, ok := a.bridge.ToGoValue(t).(map[string]any); ok {
			args = m
		}
	}
	if err := a.ws.Commands().Dispatch(scriptContext(L), id, args); err != nil {
		L.RaiseError("%s: %v", id, err)
	}
	return 0
}

// ks.command.register(id, fn); fn receives {id, path, args}.
func (a *API) commandRegister(L *lua.LState) int {
	id := L.CheckString(1)
	fn := L.CheckFunction(2)

	d, err := a.ws.Commands().Add(ScriptTarget, id, func(ctx context.Context, ev *workspace.CommandEvent) error {
		info := map[string]any{"id": ev.ID}
		if ev.Editor != nil {
			info["path"] = ev.Editor.Path()
		}
		if len(ev.Args) > 0 {
			info["args"] = ev.Args
		}
		_, err := a.bridge.CallFunc(fn, info)
		return err
	})
	if err != nil {
		L.RaiseError("register %s: %v", id, err)
		return 0
	}
	if err := a.subscriptions.Add(d); err != nil {
		L.RaiseError("register %s: %v", id, err)
	}
	a.log.Debug("command registered", zap.String("command", id))
	return 0
}

// ks.command.list() -> {id...}
func (a *API) commandList(L *lua.LState) int {
	L.Push(a.bridge.ToLuaValue(a.ws.Commands().IDs()))
	return 1
}

// ks.editor.open(path) -> path
func (a *API) editorOpen(L *lua.LState) int {
	e, err := a.ws.Open(L.CheckString(1))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LString(e.Path()))
	return 1
}

// ks.editor.text() -> string
func (a *API) editorText(L *lua.LState) int {
	L.Push(lua.LString(a.active(L).Text()))
	return 1
}

// ks.editor.select(startLine, startCol, endLine, endCol), zero-based.
func (a *API) editorSelect(L *lua.LState) int {
	var pos [4]uint32
	for i := range pos {
		n := L.CheckInt(i + 1)
		if n < 0 {
			L.ArgError(i+1, "position must not be negative")
			return 0
		}
		pos[i] = uint32(n)
	}
	e := a.active(L)
	r := buffer.PointRange{
		Start: buffer.Point{Line: pos[0], Column: pos[1]},
		End:   buffer.Point{Line: pos[2], Column: pos[3]},
	}
	e.SetSelectedBufferRange(r)
	return 0
}

// ks.editor.save()
func (a *API) editorSave(L *lua.LState) int {
	if err := a.active(L).Save(scriptContext(L)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// ks.editor.path() -> string or nil
func (a *API) editorPath(L *lua.LState) int {
	if p := a.active(L).Path(); p != "" {
		L.Push(lua.LString(p))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// ks.editor.grammar() -> scope
func (a *API) editorGrammar(L *lua.LState) int {
	L.Push(lua.LString(a.active(L).Grammar()))
	return 1
}

// ks.config.get(key) -> value or nil
func (a *API) configGet(L *lua.LState) int {
	key := L.CheckString(1)
	if a.cfg == nil {
		L.RaiseError("config.get %s: no configuration", key)
		return 0
	}
	v, _ := a.cfg.Get(key)
	L.Push(a.bridge.ToLuaValue(v))
	return 1
}

// ks.config.set(key, value)
func (a *API) configSet(L *lua.LState) int {
	key := L.CheckString(1)
	if a.cfg == nil {
		L.RaiseError("config.set %s: no configuration", key)
		return 0
	}
	if err := a.cfg.Set(key, a.bridge.ToGoValue(L.CheckAny(2))); err != nil {
		L.RaiseError("config.set %s: %v", key, err)
	}
	return 0
}

// ks.notify(level, message [, detail])
func (a *API) notify(L *lua.LState) int {
	level := workspace.Level(L.CheckString(1))
	msg := L.CheckString(2)
	detail := L.OptString(3, "")
	switch level {
	case workspace.LevelInfo, workspace.LevelSuccess, workspace.LevelWarning, workspace.LevelError:
	default:
		L.ArgError(1, fmt.Sprintf("unknown level %q", level))
		return 0
	}
	a.ws.Notifications().Add(level, msg, workspace.NotificationOptions{Detail: detail})
	return 0
}
