package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/autoprefix/internal/config/layer"
	"github.com/dshills/autoprefix/internal/config/notify"
)

func noEnv(string) (string, bool) { return "", false }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestConfig(t *testing.T, opts ...Option) (*Config, string, string) {
	t.Helper()
	userDir := t.TempDir()
	projectDir := t.TempDir()
	base := []Option{
		WithUserConfigDir(userDir),
		WithProjectDir(projectDir),
		WithLookupEnv(noEnv),
	}
	c := New(append(base, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c, userDir, projectDir
}

func TestNew_Defaults(t *testing.T) {
	c, _, _ := newTestConfig(t)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := c.Autoprefixer()
	want := AutoprefixerSettings{
		Browsers: []string{"defaults"},
		Cascade:  true,
		Remove:   true,
		HTML:     true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Autoprefixer() = %+v, want %+v", got, want)
	}
	if lg := c.Logging(); lg.Level != "info" || lg.File != "" {
		t.Errorf("Logging() = %+v", lg)
	}
}

func TestConfig_LayerPrecedence(t *testing.T) {
	env := map[string]string{"AUTOPREFIX_REMOVE": "false"}
	c, userDir, projectDir := newTestConfig(t, WithLookupEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	writeFile(t, filepath.Join(userDir, UserConfigFile), `
[autoprefixer]
browsers = ["ie 8"]
cascade = false
runOnSave = true

[logging]
level = "debug"
`)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), `
[autoprefixer]
cascade = true
`)
	writeFile(t, filepath.Join(projectDir, DotenvFile), "AUTOPREFIX_HTML=off\nAUTOPREFIX_REMOVE=true\n")
	writeFile(t, filepath.Join(projectDir, "package.json"), `{"browserslist": ["chrome 20"]}`)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := c.Autoprefixer()
	if !reflect.DeepEqual(got.Browsers, []string{"ie 8"}) {
		t.Errorf("Browsers = %v, want user file over browserslist", got.Browsers)
	}
	if !got.Cascade {
		t.Error("Cascade: project file should override user file")
	}
	if got.Remove {
		t.Error("Remove: environment should override .env")
	}
	if got.HTML {
		t.Error("HTML: .env should override defaults")
	}
	if !got.RunOnSave {
		t.Error("RunOnSave lost")
	}
	if c.Logging().Level != "debug" {
		t.Errorf("log level = %q", c.Logging().Level)
	}

	tests := map[string]string{
		KeyBrowsers:  "user",
		KeyCascade:   "project",
		KeyRemove:    "environment",
		KeyHTML:      "dotenv",
		KeyRunOnSave: "user",
	}
	for key, want := range tests {
		if got := c.Which(key); got != want {
			t.Errorf("Which(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestConfig_BrowserslistDiscovery(t *testing.T) {
	c, _, projectDir := newTestConfig(t)
	writeFile(t, filepath.Join(projectDir, ".browserslistrc"), "last 2 versions\nnot dead\n")

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"last 2 versions", "not dead"}
	if got := c.Autoprefixer().Browsers; !reflect.DeepEqual(got, want) {
		t.Errorf("Browsers = %v, want %v", got, want)
	}
	if got := c.Which(KeyBrowsers); got != "browserslist" {
		t.Errorf("Which = %q", got)
	}
}

func TestConfig_ParseErrorKeepsOtherLayers(t *testing.T) {
	c, userDir, projectDir := newTestConfig(t)
	writeFile(t, filepath.Join(userDir, UserConfigFile), "[autoprefixer\n")
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), "[autoprefixer]\nremove = false\n")

	err := c.Load(context.Background())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load err = %v, want *ParseError", err)
	}
	if c.Autoprefixer().Remove {
		t.Error("project layer not loaded after user parse error")
	}
}

func TestConfig_InvalidValueDropped(t *testing.T) {
	c, _, projectDir := newTestConfig(t)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), `
[autoprefixer]
cascade = "sometimes"
remove = false
browsers = "ie 10, firefox 3"
`)
	err := c.Load(context.Background())
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Load err = %v, want validation error", err)
	}
	s := c.Autoprefixer()
	if !s.Cascade {
		t.Error("invalid cascade should fall back to the default")
	}
	if s.Remove {
		t.Error("valid remove lost")
	}
	if !reflect.DeepEqual(s.Browsers, []string{"ie 10", "firefox 3"}) {
		t.Errorf("string browsers not split: %v", s.Browsers)
	}
}

func TestConfig_SetAndObserve(t *testing.T) {
	c, _, _ := newTestConfig(t)

	var changes []notify.Change
	sub := c.OnDidChange("autoprefixer", func(ch notify.Change) {
		changes = append(changes, ch)
	})

	if err := c.Set(KeyCascade, false); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(KeyLogLevel, "WARN"); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("changes = %d, want 1", len(changes))
	}
	if changes[0].Path != KeyCascade || changes[0].OldValue != true || changes[0].NewValue != false {
		t.Errorf("change = %+v", changes[0])
	}
	if c.Logging().Level != "warn" {
		t.Errorf("level not normalized: %q", c.Logging().Level)
	}

	if err := c.Unset(KeyCascade); err != nil {
		t.Fatal(err)
	}
	if !c.Autoprefixer().Cascade {
		t.Error("Unset did not restore default")
	}
	if len(changes) != 2 {
		t.Errorf("Unset notified %d changes", len(changes)-1)
	}

	_ = sub.Dispose()
	_ = c.Set(KeyRemove, false)
	if len(changes) != 2 {
		t.Error("observer called after Dispose")
	}
}

func TestConfig_SetValidation(t *testing.T) {
	c, _, _ := newTestConfig(t)
	tests := []struct {
		name  string
		path  string
		value any
	}{
		{"bool type", KeyCascade, 3},
		{"bool string", KeyRemove, "perhaps"},
		{"browsers type", KeyBrowsers, 10},
		{"browsers items", KeyBrowsers, []any{"ie 10", 3}},
		{"level", KeyLogLevel, "loud"},
		{"empty path", "", true},
		{"bad path", "autoprefixer..cascade", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(tt.path, tt.value); err == nil {
				t.Errorf("Set(%q, %v) succeeded", tt.path, tt.value)
			}
		})
	}
	if err := c.Set("custom.key", 5); err != nil {
		t.Errorf("unknown key rejected: %v", err)
	}
	if v, _ := c.Get("custom.key"); v != 5 {
		t.Errorf("custom.key = %v", v)
	}
}

func TestConfig_SetArgs(t *testing.T) {
	c, _, _ := newTestConfig(t)
	if err := c.Set(KeyRemove, true); err != nil {
		t.Fatal(err)
	}
	err := c.SetArgs(map[string]any{
		KeyBrowsers: []string{"safari 5"},
		KeyRemove:   false,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := c.Autoprefixer()
	if !reflect.DeepEqual(s.Browsers, []string{"safari 5"}) {
		t.Errorf("Browsers = %v", s.Browsers)
	}
	if !s.Remove {
		t.Error("session override should win over flags")
	}
}

func TestConfig_Getters(t *testing.T) {
	c, _, _ := newTestConfig(t)
	if _, err := c.GetString("nope"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("GetString missing err = %v", err)
	}
	var te *TypeError
	if _, err := c.GetBool(KeyBrowsers); !errors.As(err, &te) {
		t.Errorf("GetBool on list err = %v", err)
	}
	if _, err := c.GetStringSlice(KeyCascade); !errors.As(err, &te) {
		t.Errorf("GetStringSlice on bool err = %v", err)
	}
}

func TestConfig_SaveBrowserslist(t *testing.T) {
	c, _, projectDir := newTestConfig(t)
	writeFile(t, filepath.Join(projectDir, "package.json"), `{"name": "site"}`)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	var reloaded bool
	c.OnDidChange(KeyBrowsers, func(ch notify.Change) {
		if ch.Type == notify.ChangeSet {
			reloaded = true
		}
	})
	if err := c.SaveBrowserslist("", []string{"ie 11"}); err != nil {
		t.Fatal(err)
	}
	if got := c.Autoprefixer().Browsers; !reflect.DeepEqual(got, []string{"ie 11"}) {
		t.Errorf("Browsers = %v", got)
	}
	if !reloaded {
		t.Error("observer not told about new browsers")
	}
}

func TestConfig_LiveReload(t *testing.T) {
	c, _, projectDir := newTestConfig(t, WithWatcher(true))
	path := filepath.Join(projectDir, ProjectConfigFile)
	writeFile(t, path, "[autoprefixer]\nremove = true\n")
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := make(chan notify.Change, 4)
	c.OnDidChange(KeyRemove, func(ch notify.Change) {
		if ch.Type == notify.ChangeSet {
			select {
			case got <- ch:
			default:
			}
		}
	})

	writeFile(t, path, "[autoprefixer]\nremove = false\n")
	select {
	case ch := <-got:
		if ch.NewValue != false {
			t.Errorf("NewValue = %v", ch.NewValue)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification after editing the project file")
	}
	if c.Autoprefixer().Remove {
		t.Error("reloaded value not applied")
	}
}

func TestConfig_WatchFailureLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c, _, projectDir := newTestConfig(t, WithWatcher(true), WithLogger(zap.New(core)))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.watcher.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(projectDir, ProjectConfigFile)
	writeFile(t, path, "[autoprefixer]\ncascade = false\n")
	c.track(path, layer.SourceProject)

	entries := logs.FilterMessage("config file not watched").All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(entries), logs.All())
	}
	if got := entries[0].ContextMap()["path"]; got != path {
		t.Errorf("warning path = %v, want %q", got, path)
	}
}

func TestConfig_ReloadRemovedFile(t *testing.T) {
	c, _, projectDir := newTestConfig(t)
	path := filepath.Join(projectDir, ProjectConfigFile)
	writeFile(t, path, "[autoprefixer]\ncascade = false\n")
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(layer.SourceProject); err != nil {
		t.Fatal(err)
	}
	if !c.Autoprefixer().Cascade {
		t.Error("removed file still contributes")
	}
}

func TestConfig_LoadCancelled(t *testing.T) {
	c, _, _ := newTestConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load err = %v, want context.Canceled", err)
	}
}

func TestConfig_ExplicitConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, file, "[autoprefixer]\nrunOnSave = true\n")
	c, _, _ := newTestConfig(t, WithConfigFile(file))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.UserConfigPath() != file {
		t.Errorf("UserConfigPath = %q", c.UserConfigPath())
	}
	if !c.Autoprefixer().RunOnSave {
		t.Error("explicit config file ignored")
	}
}
