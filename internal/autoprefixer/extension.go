package autoprefixer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/autoprefix/internal/config"
	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/event"
	"github.com/dshills/autoprefix/internal/prefixer"
	"github.com/dshills/autoprefix/internal/workspace"
)

// Command ids. CommandLegacy is the name the command had in the Atom
// package.
const (
	CommandRun    = "autoprefixer:run"
	CommandLegacy = "autoprefixer"
)

// NotificationTitle heads every notification the extension adds.
const NotificationTitle = "Autoprefixer"

// commandTarget owns the registered commands.
const commandTarget = "autoprefixer"

// State is a step of an invocation.
type State uint8

const (
	StateIdle State = iota
	StateScopeResolved
	StateTransforming
	StateApplying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScopeResolved:
		return "scope-resolved"
	case StateTransforming:
		return "transforming"
	case StateApplying:
		return "applying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateChange is delivered to state observers.
type StateChange struct {
	Invocation *Invocation
	State      State
}

// Extension is an activated autoprefixer. It is created by Activate and
// released by Deactivate.
type Extension struct {
	ws        *workspace.Workspace
	cfg       *config.Config
	log       *zap.Logger
	processor *prefixer.Processor

	subscriptions *event.CompositeDisposable
	stateChanged  event.Emitter[StateChange]

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// Option configures an Extension.
type Option func(*Extension)

// WithProcessor replaces the prefixer.
func WithProcessor(p *prefixer.Processor) Option {
	return func(x *Extension) { x.processor = p }
}

// Activate registers the commands and the save hook of every editor in ws,
// current and future. cfg supplies the autoprefixer settings and is read
// on every run; nil uses the defaults. A nil logger disables logging.
func Activate(ws *workspace.Workspace, cfg *config.Config, log *zap.Logger, opts ...Option) (*Extension, error) {
	if ws == nil {
		return nil, ErrNoWorkspace
	}
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	x := &Extension{
		ws:            ws,
		cfg:           cfg,
		log:           log.Named("autoprefixer"),
		subscriptions: event.NewCompositeDisposable(),
		locks:         make(map[string]*semaphore.Weighted),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.processor == nil {
		x.processor = prefixer.New(x.log)
	}

	for _, id := range []string{CommandRun, CommandLegacy} {
		d, err := ws.Commands().Add(commandTarget, id, x.runCommand)
		if err != nil {
			return nil, multierr.Append(err, x.subscriptions.Dispose())
		}
		x.subscriptions.Add(d)
	}
	x.subscriptions.Add(ws.ObserveTextEditors(x.observe))

	x.log.Debug("activated")
	return x, nil
}

// Deactivate releases everything Activate registered.
func Deactivate(x *Extension) error {
	if x == nil {
		return nil
	}
	return x.Dispose()
}

// Dispose unregisters the commands and save hooks. Later calls do nothing.
func (x *Extension) Dispose() error {
	err := x.subscriptions.Dispose()
	x.stateChanged.Clear()
	x.log.Debug("deactivated")
	return err
}

// OnDidChangeState calls fn for every state an invocation enters.
func (x *Extension) OnDidChangeState(fn func(StateChange)) event.Disposable {
	return x.stateChanged.Listen(fn)
}

func (x *Extension) observe(e *editor.TextEditor) {
	save := e.OnWillSave(x.willSave, event.WithPriority(event.PriorityHigh))
	if err := x.subscriptions.Add(save); err != nil {
		return
	}

	var destroyed event.Disposable
	destroyed = e.OnDidDestroy(func(e *editor.TextEditor) {
		x.subscriptions.Remove(save)
		x.subscriptions.Remove(destroyed)
		x.mu.Lock()
		delete(x.locks, e.ID())
		x.mu.Unlock()
	})
	x.subscriptions.Add(destroyed)
}

func (x *Extension) runCommand(ctx context.Context, ev *workspace.CommandEvent) error {
	return x.Run(ctx, ev.Editor, TriggerManual)
}

// willSave runs before e is written. Failures were already reported, so
// the save goes ahead.
func (x *Extension) willSave(ev *editor.WillSaveEvent) error {
	ctx := ev.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := x.Run(ctx, ev.Editor, TriggerSave); err != nil {
		x.log.Debug("save hook did not apply", zap.String("path", ev.Path), zap.Error(err))
	}
	return nil
}

func (x *Extension) lock(e *editor.TextEditor) *semaphore.Weighted {
	x.mu.Lock()
	defer x.mu.Unlock()
	sem, ok := x.locks[e.ID()]
	if !ok {
		sem = semaphore.NewWeighted(1)
		x.locks[e.ID()] = sem
	}
	return sem
}

func (x *Extension) enter(inv *Invocation, s State) {
	if err := x.stateChanged.Emit(StateChange{Invocation: inv, State: s}); err != nil {
		x.log.Warn("state observer failed", zap.Error(err))
	}
}

// Run transforms the document of e and writes the result back. Runs with
// no editor do nothing, and so do save-triggered runs when run-on-save is
// off or the scope is not supported. Runs on the same editor wait for each
// other; ctx only cancels the wait.
//
// Warnings and failures are shown as notifications and logged. The error
// is also returned; the document is never partially changed.
func (x *Extension) Run(ctx context.Context, e *editor.TextEditor, trigger Trigger) error {
	if e == nil || e.IsDestroyed() {
		return nil
	}
	settings := x.cfg.Autoprefixer()
	if trigger == TriggerSave && (!settings.RunOnSave || !IsSupportedScope(e.Grammar(), settings.HTML)) {
		return nil
	}

	sem := x.lock(e)
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)

	inv := NewInvocation(e, trigger, settings.HTML)
	log := x.log.With(
		zap.String("invocation", inv.ID),
		zap.String("editor", e.ID()),
		zap.Stringer("trigger", trigger),
		zap.Stringer("dialect", inv.Dialect),
		zap.Bool("selection", inv.SelectionScoped()),
	)
	x.enter(inv, StateScopeResolved)

	x.enter(inv, StateTransforming)
	res, err := x.processor.Process(context.WithoutCancel(ctx), inv.Input(), prefixer.Options{
		Browsers: settings.Browsers,
		Cascade:  settings.Cascade,
		Remove:   settings.Remove,
		Dialect:  inv.Dialect,
		From:     e.Path(),
	})
	if err != nil {
		return x.fail(log, inv, err)
	}
	for _, w := range res.Warnings {
		log.Warn(w.String())
		x.ws.Notifications().AddWarning(NotificationTitle, workspace.NotificationOptions{Detail: w.String()})
	}

	x.enter(inv, StateApplying)
	if err := Apply(e, inv, res.CSS, TakeSnapshot(e)); err != nil {
		return x.fail(log, inv, fmt.Errorf("apply: %w", err))
	}
	x.enter(inv, StateIdle)

	log.Debug("applied",
		zap.Int("warnings", len(res.Warnings)),
		zap.Bool("changed", res.CSS != inv.Input()))
	return nil
}

func (x *Extension) fail(log *zap.Logger, inv *Invocation, err error) error {
	x.enter(inv, StateFailed)
	log.Error("autoprefixer failed", zap.Error(err))
	x.ws.Notifications().AddError(NotificationTitle, workspace.NotificationOptions{
		Detail:      ErrorDetail(err),
		Dismissable: true,
	})
	x.enter(inv, StateIdle)
	return err
}

// ErrorDetail is the notification text for err. Syntax errors carry an
// excerpt of the source around the error.
func ErrorDetail(err error) string {
	msg := err.Error()
	var se *prefixer.SyntaxError
	if errors.As(err, &se) {
		if code := se.ShowSourceCode(); code != "" {
			msg += "\n\n" + code
		}
	}
	return msg
}
