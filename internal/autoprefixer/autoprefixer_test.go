package autoprefixer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/autoprefix/internal/config"
	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/engine/buffer"
	"github.com/dshills/autoprefix/internal/prefixer"
	"github.com/dshills/autoprefix/internal/workspace"
)

func pt(line, col uint32) buffer.Point {
	return buffer.Point{Line: line, Column: col}
}

// setup activates the extension in a fresh workspace targeting browsers.
func setup(t *testing.T, browsers ...string) (*workspace.Workspace, *config.Config, *Extension) {
	t.Helper()
	ws := workspace.New()
	cfg := config.New()
	if len(browsers) > 0 {
		if err := cfg.Set(config.KeyBrowsers, browsers); err != nil {
			t.Fatalf("Set browsers: %v", err)
		}
	}
	x, err := Activate(ws, cfg, nil)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	t.Cleanup(func() {
		Deactivate(x)
		ws.Destroy()
	})
	return ws, cfg, x
}

func TestResolveScope(t *testing.T) {
	tests := []struct {
		scope        string
		hasSelection bool
		want         prefixer.Dialect
	}{
		{editor.ScopeCSS, false, prefixer.DialectSafe},
		{editor.ScopeCSS, true, prefixer.DialectSafe},
		{editor.ScopeSCSS, false, prefixer.DialectSCSS},
		{editor.ScopeLess, false, prefixer.DialectSCSS},
		{editor.ScopePlain, true, prefixer.DialectSCSS},
		{editor.ScopeHTML, false, prefixer.DialectHTML},
		{editor.ScopeHTML, true, prefixer.DialectSafe},
	}
	for _, tt := range tests {
		if got := ResolveScope(tt.scope, tt.hasSelection); got != tt.want {
			t.Errorf("ResolveScope(%q, %v) = %s, want %s", tt.scope, tt.hasSelection, got, tt.want)
		}
	}
}

func TestIsSupportedScope(t *testing.T) {
	tests := []struct {
		scope string
		html  bool
		want  bool
	}{
		{editor.ScopeCSS, false, true},
		{editor.ScopeSCSS, false, true},
		{editor.ScopeHTML, true, true},
		{editor.ScopeHTML, false, false},
		{editor.ScopeLess, true, false},
		{editor.ScopePlain, true, false},
	}
	for _, tt := range tests {
		if got := IsSupportedScope(tt.scope, tt.html); got != tt.want {
			t.Errorf("IsSupportedScope(%q, %v) = %v, want %v", tt.scope, tt.html, got, tt.want)
		}
	}
}

func TestNewInvocation(t *testing.T) {
	e := editor.New("a{}\nb{}\n", editor.WithGrammar(editor.ScopeHTML))
	e.SetSelectedBufferRange(buffer.PointRange{Start: pt(1, 0), End: pt(1, 3)})

	inv := NewInvocation(e, TriggerManual, true)
	if !inv.SelectionScoped() || inv.Input() != "b{}" || inv.Dialect != prefixer.DialectSafe {
		t.Errorf("manual invocation = %+v", inv)
	}

	inv = NewInvocation(e, TriggerSave, true)
	if inv.SelectionScoped() || inv.Input() != "a{}\nb{}\n" || inv.Dialect != prefixer.DialectHTML {
		t.Errorf("save invocation ignores the selection, got %+v", inv)
	}

	inv = NewInvocation(e, TriggerSave, false)
	if inv.Dialect != prefixer.DialectSCSS {
		t.Errorf("html disabled: dialect = %s", inv.Dialect)
	}
	if inv.ID == "" {
		t.Error("invocation should have an id")
	}
}

func TestRunCommandFullDocument(t *testing.T) {
	ws, _, _ := setup(t, "ie 10")
	e := ws.OpenText("a{display:flex}\nb{color:red}\n", editor.WithGrammar(editor.ScopeCSS))
	untouched := e.Buffer().MarkRange(buffer.NewRange(16, 28))

	if err := ws.Commands().Dispatch(context.Background(), CommandRun, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := "a{display:-ms-flexbox;display:flex}\nb{color:red}\n"
	if got := e.Text(); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if !untouched.IsValid() || untouched.Text() != "b{color:red}" {
		t.Errorf("marker in untouched region moved: valid=%v text=%q", untouched.IsValid(), untouched.Text())
	}

	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if e.Text() != "a{display:flex}\nb{color:red}\n" {
		t.Errorf("one undo should revert the run, got %q", e.Text())
	}
}

func TestRunLegacyCommand(t *testing.T) {
	ws, _, _ := setup(t, "ie 10")
	e := ws.OpenText("a{display:flex}", editor.WithGrammar(editor.ScopeCSS))
	if err := ws.Commands().Dispatch(context.Background(), CommandLegacy, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if e.Text() != "a{display:-ms-flexbox;display:flex}" {
		t.Errorf("text = %q", e.Text())
	}
}

func TestRunSelection(t *testing.T) {
	ws, _, _ := setup(t, "ie 10")
	src := "a{display:flex}\nb{display:flex}\n"
	e := ws.OpenText(src, editor.WithGrammar(editor.ScopeCSS))
	e.SetSelectedBufferRange(buffer.PointRange{Start: pt(1, 0), End: pt(1, 15)})

	if err := ws.Commands().Dispatch(context.Background(), CommandRun, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := "a{display:flex}\nb{display:-ms-flexbox;display:flex}\n"
	if got := e.Text(); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if !strings.HasPrefix(e.Text(), src[:16]) {
		t.Error("text before the selection changed")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	ws, _, x := setup(t, "ie 10", "chrome 20")
	e := ws.OpenText("a {\n  display: flex;\n  align-items: center;\n}\n", editor.WithGrammar(editor.ScopeCSS))
	ctx := context.Background()

	if err := x.Run(ctx, e, TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := e.Text()
	if err := x.Run(ctx, e, TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Text() != first {
		t.Errorf("second run changed the text\nfirst:  %q\nsecond: %q", first, e.Text())
	}
}

func TestRunSyntaxError(t *testing.T) {
	ws, _, x := setup(t, "ie 10")
	e := ws.OpenText("a{color:}", editor.WithGrammar(editor.ScopeCSS))

	err := x.Run(context.Background(), e, TriggerManual)
	var se *prefixer.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want SyntaxError", err)
	}
	if e.Text() != "a{color:}" {
		t.Errorf("document changed on failure: %q", e.Text())
	}

	notes := ws.Notifications().All()
	if len(notes) != 1 || notes[0].Level != workspace.LevelError {
		t.Fatalf("notifications = %+v", notes)
	}
	if notes[0].Message != NotificationTitle {
		t.Errorf("message = %q", notes[0].Message)
	}
	if !strings.Contains(notes[0].Detail, "Unknown word") || !strings.Contains(notes[0].Detail, "^") {
		t.Errorf("detail should carry the reason and an excerpt, got %q", notes[0].Detail)
	}
}

func TestRunWarnings(t *testing.T) {
	ws, _, x := setup(t, "chrome 130")
	src := "a{background:linear-gradient(top, red, blue)}"
	e := ws.OpenText(src, editor.WithGrammar(editor.ScopeCSS))

	if err := x.Run(context.Background(), e, TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ws.Notifications().Count(workspace.LevelWarning) != 1 {
		t.Fatalf("notifications = %+v", ws.Notifications().All())
	}
	note := ws.Notifications().All()[0]
	if !strings.HasPrefix(note.Detail, "autoprefixer: <css input>:1:3: Gradient") {
		t.Errorf("detail = %q", note.Detail)
	}
	if e.Text() != src {
		t.Errorf("text = %q", e.Text())
	}
}

func TestRunWithoutEditor(t *testing.T) {
	ws, _, x := setup(t)
	if err := ws.Commands().Dispatch(context.Background(), CommandRun, nil); err != nil {
		t.Errorf("Dispatch without editor: %v", err)
	}
	if err := x.Run(context.Background(), nil, TriggerManual); err != nil {
		t.Errorf("Run(nil): %v", err)
	}
}

func TestRunStates(t *testing.T) {
	ws, _, x := setup(t, "ie 10")
	var (
		mu     sync.Mutex
		states []string
	)
	x.OnDidChangeState(func(c StateChange) {
		mu.Lock()
		states = append(states, c.State.String())
		mu.Unlock()
	})

	ok := ws.OpenText("a{display:flex}", editor.WithGrammar(editor.ScopeCSS))
	x.Run(context.Background(), ok, TriggerManual)
	bad := ws.OpenText("a{color:}", editor.WithGrammar(editor.ScopeCSS))
	x.Run(context.Background(), bad, TriggerManual)

	want := "scope-resolved transforming applying idle scope-resolved transforming failed idle"
	if got := strings.Join(states, " "); got != want {
		t.Errorf("states = %q, want %q", got, want)
	}
}

func TestRunKeepsCursorAndScroll(t *testing.T) {
	ws, _, x := setup(t, "ie 10")
	var sb strings.Builder
	sb.WriteString("a{display:flex}\n")
	for i := 1; i < 100; i++ {
		fmt.Fprintf(&sb, "b%d{color:red}\n", i)
	}
	e := ws.OpenText(sb.String(),
		editor.WithGrammar(editor.ScopeCSS),
		editor.WithViewportHeight(10),
		editor.WithScrollMargin(2))
	e.SetFirstVisibleScreenRow(50)
	e.SetCursorBufferPosition(pt(55, 3))
	tail := strings.TrimPrefix(sb.String(), "a{display:flex}\n")
	m := e.Buffer().MarkRange(buffer.NewRange(16, buffer.ByteOffset(sb.Len())))

	if err := x.Run(context.Background(), e, TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := "a{display:-ms-flexbox;display:flex}\n" + tail; e.Text() != want {
		t.Errorf("text = %q, want %q", e.Text(), want)
	}
	if !m.IsValid() || m.Text() != tail {
		t.Errorf("marker over the untouched rules = %q (valid %v)", m.Text(), m.IsValid())
	}
	if got := e.CursorBufferPosition(); got != pt(55, 3) {
		t.Errorf("cursor = %s, want 55:3", got)
	}
	if got := e.FirstVisibleScreenRow(); got != 50 {
		t.Errorf("first visible row = %d, want 50", got)
	}
}

func TestApplyShrinkingDocument(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	e := editor.New(sb.String(), editor.WithViewportHeight(10), editor.WithScrollMargin(2))
	e.SetFirstVisibleScreenRow(40)
	e.SetCursorBufferPosition(pt(45, 2))

	inv := NewInvocation(e, TriggerSave, true)
	snap := TakeSnapshot(e)
	if snap.ScrollTarget() != 42 {
		t.Fatalf("scroll target = %d, want 42", snap.ScrollTarget())
	}
	if err := Apply(e, inv, "short\n", snap); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.Text() != "short\n" {
		t.Errorf("text = %q", e.Text())
	}
	if got := e.CursorBufferPosition(); got.Line > 1 {
		t.Errorf("cursor should be clamped into the document, got %s", got)
	}
	if got := e.FirstVisibleScreenRow(); got > 1 {
		t.Errorf("first visible row = %d", got)
	}
}

func TestSaveHook(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		runOnSave bool
		want      string
	}{
		{"disabled", "a.css", false, "a{display:flex}"},
		{"enabled", "a.css", true, "a{display:-ms-flexbox;display:flex}"},
		{"scss", "a.scss", true, "a{display:-ms-flexbox;display:flex}"},
		{"unsupported scope", "a.txt", true, "a{display:flex}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, cfg, _ := setup(t, "ie 10")
			if err := cfg.Set(config.KeyRunOnSave, tt.runOnSave); err != nil {
				t.Fatalf("Set: %v", err)
			}
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte("a{display:flex}"), 0o644); err != nil {
				t.Fatal(err)
			}
			e, err := ws.Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := e.Save(context.Background()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("saved %q, want %q", data, tt.want)
			}
		})
	}
}

func TestSaveHookRunsBeforeOtherHandlers(t *testing.T) {
	ws, cfg, _ := setup(t, "ie 10")
	if err := cfg.Set(config.KeyRunOnSave, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	path := filepath.Join(t.TempDir(), "a.css")
	if err := os.WriteFile(path, []byte("a{display:flex}"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := editor.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var seen string
	e.OnWillSave(func(ev *editor.WillSaveEvent) error {
		seen = ev.Editor.Text()
		return nil
	})
	ws.Add(e)

	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := "a{display:-ms-flexbox;display:flex}"; seen != want {
		t.Errorf("handler saw %q, want %q", seen, want)
	}
}

func TestSaveHookFailureStillSaves(t *testing.T) {
	ws, cfg, _ := setup(t, "ie 10")
	cfg.Set(config.KeyRunOnSave, true)
	path := filepath.Join(t.TempDir(), "bad.css")
	os.WriteFile(path, []byte("x"), 0o644)

	e, err := ws.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e.SetText("a{color:}")
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a{color:}" {
		t.Errorf("saved %q", data)
	}
	if ws.Notifications().Count(workspace.LevelError) != 1 {
		t.Errorf("expected one error notification, got %+v", ws.Notifications().All())
	}
}

func TestDeactivate(t *testing.T) {
	ws := workspace.New()
	defer ws.Destroy()
	cfg := config.New()
	cfg.Set(config.KeyBrowsers, []string{"ie 10"})
	cfg.Set(config.KeyRunOnSave, true)

	x, err := Activate(ws, cfg, nil)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "a.css")
	os.WriteFile(path, []byte("a{display:flex}"), 0o644)
	e, err := ws.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := Deactivate(x); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if ws.Commands().Has(CommandRun) || ws.Commands().Has(CommandLegacy) {
		t.Error("commands should be unregistered")
	}
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a{display:flex}" {
		t.Errorf("save hook still active: %q", data)
	}
	if err := Deactivate(x); err != nil {
		t.Errorf("second Deactivate: %v", err)
	}
}

func TestActivateWithoutWorkspace(t *testing.T) {
	if _, err := Activate(nil, nil, nil); !errors.Is(err, ErrNoWorkspace) {
		t.Errorf("error = %v", err)
	}
}

func TestConcurrentRunsAreSerialized(t *testing.T) {
	ws, _, x := setup(t, "ie 10")
	e := ws.OpenText("a{display:flex}", editor.WithGrammar(editor.ScopeCSS))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x.Run(context.Background(), e, TriggerManual)
		}()
	}
	wg.Wait()

	if e.Text() != "a{display:-ms-flexbox;display:flex}" {
		t.Errorf("text = %q", e.Text())
	}
}

func TestRunCanceledWhileWaiting(t *testing.T) {
	ws, _, x := setup(t, "ie 10")
	e := ws.OpenText("a{display:flex}", editor.WithGrammar(editor.ScopeCSS))

	sem := x.lock(e)
	sem.Acquire(context.Background(), 1)
	defer sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := x.Run(ctx, e, TriggerManual); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if e.Text() != "a{display:flex}" {
		t.Errorf("text = %q", e.Text())
	}
}

func TestErrorDetail(t *testing.T) {
	if got := ErrorDetail(errors.New("boom")); got != "boom" {
		t.Errorf("ErrorDetail = %q", got)
	}
	_, err := prefixer.Process(context.Background(), "a {\n  color: ;\n}", prefixer.Options{})
	var se *prefixer.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want SyntaxError", err)
	}
	want := "<css input>:2:3: Unknown word\n\n" + se.ShowSourceCode()
	if got := ErrorDetail(fmt.Errorf("wrapped: %w", err)); got != "wrapped: "+want {
		t.Errorf("ErrorDetail = %q, want %q", got, "wrapped: "+want)
	}
}
