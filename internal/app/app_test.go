package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/autoprefix/internal/autoprefixer"
	"github.com/dshills/autoprefix/internal/config"
	"github.com/dshills/autoprefix/internal/workspace"
)

func noEnv(string) (string, bool) { return "", false }

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		UserConfigDir: t.TempDir(),
		ProjectDir:    t.TempDir(),
		LogOutput:     &bytes.Buffer{},
		LookupEnv:     noEnv,
	}
}

func TestNewAndRun(t *testing.T) {
	opts := testOptions(t)
	opts.Overrides = map[string]any{config.KeyBrowsers: "ie 10"}

	var (
		mu    sync.Mutex
		notes []workspace.Notification
	)
	opts.OnNotification = func(n workspace.Notification) {
		mu.Lock()
		notes = append(notes, n)
		mu.Unlock()
	}

	app, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Shutdown()

	path := filepath.Join(opts.ProjectDir, "a.css")
	if err := os.WriteFile(path, []byte("a{display:flex}"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := app.Workspace().Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := app.Workspace().Commands().Dispatch(context.Background(), autoprefixer.CommandRun, nil); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := e.Text(); got != "a{display:-ms-flexbox;display:flex}" {
		t.Errorf("text = %q", got)
	}

	bad := app.Workspace().OpenText("a{color:}")
	bad.SetGrammar("source.css")
	app.Workspace().Commands().Dispatch(context.Background(), autoprefixer.CommandRun, nil)

	mu.Lock()
	defer mu.Unlock()
	if len(notes) != 1 || notes[0].Level != workspace.LevelError {
		t.Errorf("forwarded notifications = %+v", notes)
	}
}

func TestNewReadsProjectConfig(t *testing.T) {
	opts := testOptions(t)
	err := os.WriteFile(filepath.Join(opts.ProjectDir, config.ProjectConfigFile),
		[]byte("[autoprefixer]\nrunOnSave = true\nbrowsers = [\"ie 10\"]\n\n[logging]\nlevel = \"debug\"\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	app, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Shutdown()

	if !app.Config().Autoprefixer().RunOnSave {
		t.Error("runOnSave from the project file was not applied")
	}
	if app.Logger().Level().String() != "debug" {
		t.Errorf("log level = %v, want debug", app.Logger().Level())
	}

	path := filepath.Join(opts.ProjectDir, "b.css")
	os.WriteFile(path, []byte("b{display:flex}"), 0o644)
	e, err := app.Workspace().Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "b{display:-ms-flexbox;display:flex}" {
		t.Errorf("saved %q", data)
	}
}

func TestNewLogFile(t *testing.T) {
	opts := testOptions(t)
	logFile := filepath.Join(t.TempDir(), "autoprefix.log")
	opts.Overrides = map[string]any{config.KeyLogFile: logFile, config.KeyLogLevel: "debug"}

	app, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	app.Logger().Info("hello file")
	if err := app.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("log file = %q", data)
	}
}

func TestNewInvalidOverride(t *testing.T) {
	opts := testOptions(t)
	opts.Overrides = map[string]any{config.KeyCascade: "sometimes"}

	_, err := New(context.Background(), opts)
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "config" {
		t.Fatalf("error = %v, want config InitError", err)
	}
	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("error should wrap the validation error, got %v", err)
	}
}

func TestShutdown(t *testing.T) {
	app, err := New(context.Background(), testOptions(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !app.IsShutdown() {
		t.Error("IsShutdown() = false")
	}
	if app.Workspace().Commands().Has(autoprefixer.CommandRun) {
		t.Error("commands should be unregistered")
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestInitError(t *testing.T) {
	inner := errors.New("boom")
	err := &InitError{Component: "config", Err: inner}
	if err.Error() != "init config: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("InitError should unwrap")
	}
}
