package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/config/layer"
	"github.com/dshills/autoprefix/internal/config/loader"
	"github.com/dshills/autoprefix/internal/config/notify"
	"github.com/dshills/autoprefix/internal/config/watcher"
	"github.com/dshills/autoprefix/internal/event"
)

// File names looked up in the project directory.
const (
	UserConfigFile    = "config.toml"
	ProjectConfigFile = ".autoprefix.toml"
	DotenvFile        = ".env"
)

// Config provides layered access to autoprefix settings, reloads files
// that change on disk and notifies observers.
type Config struct {
	mu sync.Mutex

	layers   *layer.Stack
	notifier *notify.Notifier
	watcher  *watcher.Watcher
	log      *zap.Logger

	userConfigDir string
	configFile    string
	projectDir    string
	lookupEnv     loader.LookupFunc
	enableWatcher bool

	// files maps watched paths to the source they feed.
	files  map[string]layer.Source
	closed bool
}

// Option configures a Config.
type Option func(*Config)

// WithUserConfigDir sets the directory holding config.toml.
func WithUserConfigDir(dir string) Option {
	return func(c *Config) { c.userConfigDir = dir }
}

// WithConfigFile replaces the user config file with an explicit path.
func WithConfigFile(path string) Option {
	return func(c *Config) { c.configFile = path }
}

// WithProjectDir sets the directory searched for .autoprefix.toml, .env
// and a browserslist.
func WithProjectDir(dir string) Option {
	return func(c *Config) { c.projectDir = dir }
}

// WithWatcher enables live reload of loaded files.
func WithWatcher(enable bool) Option {
	return func(c *Config) { c.enableWatcher = enable }
}

// WithLogger sets the logger for reload diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithLookupEnv replaces the process environment as the source of
// AUTOPREFIX_* variables.
func WithLookupEnv(fn loader.LookupFunc) Option {
	return func(c *Config) {
		if fn != nil {
			c.lookupEnv = fn
		}
	}
}

// New creates a configuration holding only the built-in defaults.
// Call Load to read the other sources.
func New(opts ...Option) *Config {
	c := &Config{
		layers:        layer.NewStack(),
		notifier:      notify.New(),
		log:           zap.NewNop(),
		userConfigDir: defaultUserConfigDir(),
		projectDir:    ".",
		lookupEnv:     os.LookupEnv,
		files:         make(map[string]layer.Source),
	}
	for _, opt := range opts {
		opt(c)
	}

	defaults := layer.NewWithData(layer.StandardName(layer.SourceDefaults), layer.SourceDefaults, layer.PriorityDefaults, defaultConfig())
	defaults.ReadOnly = true
	c.layers.Put(defaults)
	return c
}

// Load reads every configuration source. A source that fails to load is
// skipped; the failures are returned combined once all sources were
// tried. The watcher is started after the layers are in place.
func (c *Config) Load(ctx context.Context) error {
	var errs error
	for _, src := range []layer.Source{
		layer.SourceBrowserslist,
		layer.SourceUser,
		layer.SourceProject,
		layer.SourceDotenv,
		layer.SourceEnv,
	} {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if _, err := c.loadSource(src); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.enableWatcher {
		if err := c.startWatcher(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("starting config watcher: %w", err))
		}
	}
	return errs
}

// Reload re-reads one source and notifies observers of every key whose
// effective value changed.
func (c *Config) Reload(src layer.Source) error {
	before := c.layers.Merge()
	path, err := c.loadSource(src)
	c.notifyDiff(before, c.layers.Merge(), src.String())
	c.notifier.NotifyReload(path)
	return err
}

// loadSource (re)builds the layer for src and returns the file it used.
// A missing file removes the layer.
func (c *Config) loadSource(src layer.Source) (string, error) {
	var (
		path string
		data map[string]any
		err  error
	)
	switch src {
	case layer.SourceUser:
		path = c.UserConfigPath()
		data, err = loader.NewTOMLLoader(path).Load()
	case layer.SourceProject:
		path = filepath.Join(c.projectDir, ProjectConfigFile)
		data, err = loader.NewTOMLLoader(path).Load()
	case layer.SourceBrowserslist:
		bl := loader.NewBrowserslistLoader(c.projectDir)
		data, err = bl.Load()
		path = bl.Path()
	case layer.SourceDotenv:
		path = filepath.Join(c.projectDir, DotenvFile)
		data, err = loader.NewDotenvLoader(path).Load()
	case layer.SourceEnv:
		data, err = loader.NewEnvLoaderWithLookup(c.lookupEnv).Load()
	default:
		return "", fmt.Errorf("source %s cannot be loaded", src)
	}

	if path != "" {
		c.track(path, src)
	}
	if err != nil {
		c.log.Warn("config source failed to load",
			zap.String("source", src.String()),
			zap.String("path", path),
			zap.Error(err))
	}
	if len(data) == 0 {
		if err == nil {
			c.layers.Remove(layer.StandardName(src))
		}
		return path, err
	}

	data, verr := sanitize(data)
	l := layer.FromFile(src, path, data)
	c.layers.Put(l)
	c.log.Debug("config layer loaded",
		zap.String("source", src.String()),
		zap.String("path", path))
	return path, multierr.Append(err, verr)
}

// sanitize normalizes the keys autoprefix knows, dropping invalid ones.
func sanitize(data map[string]any) (map[string]any, error) {
	var errs error
	for path, val := range layer.FlattenMap(data) {
		norm, err := normalize(path, val)
		if err != nil {
			errs = multierr.Append(errs, err)
			layer.DeleteByPath(data, path)
			continue
		}
		layer.SetByPath(data, path, norm)
	}
	return data, errs
}

func (c *Config) track(path string, src layer.Source) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.files[abs] = src
	w := c.watcher
	c.mu.Unlock()
	if w == nil {
		return
	}
	if err := w.Watch(abs); err != nil {
		c.log.Warn("config file not watched", zap.String("path", abs), zap.Error(err))
	}
}

func (c *Config) startWatcher() error {
	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		c.log.Warn("config watcher error", zap.Error(err))
	}))
	if err != nil {
		return err
	}
	w.OnChange(c.handleFileChange)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return w.Close()
	}
	c.watcher = w
	// A browserslist may appear later; watch the candidates in the
	// project directory even when they do not exist yet.
	for _, name := range []string{loader.BrowserslistRC, loader.PackageJSON} {
		if abs, err := filepath.Abs(filepath.Join(c.projectDir, name)); err == nil {
			if _, ok := c.files[abs]; !ok {
				c.files[abs] = layer.SourceBrowserslist
			}
		}
	}
	paths := make([]string, 0, len(c.files))
	for p := range c.files {
		paths = append(paths, p)
	}
	c.mu.Unlock()

	var errs error
	for _, p := range paths {
		if err := w.Watch(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.log.Debug("config directory missing, not watched", zap.String("path", p))
				continue
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (c *Config) handleFileChange(ev watcher.Event) {
	c.mu.Lock()
	src, ok := c.files[ev.Path]
	closed := c.closed
	c.mu.Unlock()
	if !ok || closed {
		return
	}
	c.log.Info("config file changed",
		zap.String("path", ev.Path),
		zap.String("op", ev.Op.String()))
	if err := c.Reload(src); err != nil {
		c.log.Warn("config reload failed", zap.String("path", ev.Path), zap.Error(err))
	}
}

// notifyDiff reports every leaf whose effective value differs.
func (c *Config) notifyDiff(before, after map[string]any, source string) {
	added, modified, removed := layer.DiffMaps(before, after)
	for _, p := range append(added, modified...) {
		oldVal, _ := layer.GetByPath(before, p)
		newVal, _ := layer.GetByPath(after, p)
		c.notifier.NotifySet(p, oldVal, newVal, source)
	}
	for _, p := range removed {
		oldVal, _ := layer.GetByPath(before, p)
		c.notifier.NotifyDelete(p, oldVal, source)
	}
}

// Close stops live reload and drops all observers.
func (c *Config) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	var err error
	if w != nil {
		err = w.Close()
	}
	c.notifier.Close()
	return err
}

// Get returns the effective value at path.
func (c *Config) Get(path string) (any, bool) {
	return c.layers.Value(path)
}

// GetString returns a string value.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetBool returns a boolean value.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetStringSlice returns a list of strings.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "list of strings", Actual: typeName(v)}
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, &TypeError{Path: path, Expected: "list of strings", Actual: typeName(v)}
}

// Set overrides path in the session layer. Known keys are validated and
// normalized; observers see the change of the effective value.
func (c *Config) Set(path string, value any) error {
	if strings.Trim(path, ".") == "" || strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	norm, err := normalize(path, value)
	if err != nil {
		return err
	}
	oldVal, _ := c.Get(path)
	c.layers.SetInSession(path, norm)
	newVal, _ := c.Get(path)
	c.notifier.NotifySet(path, oldVal, newVal, layer.SourceSession.String())
	return nil
}

// Unset removes a session override.
func (c *Config) Unset(path string) error {
	if c.layers.Layer(layer.StandardName(layer.SourceSession)) == nil {
		return nil
	}
	before := c.layers.Merge()
	if err := c.layers.Delete(layer.StandardName(layer.SourceSession), path); err != nil {
		return err
	}
	c.notifyDiff(before, c.layers.Merge(), layer.SourceSession.String())
	return nil
}

// SetArgs installs the command-line layer, replacing any previous one.
// Keys are dot paths.
func (c *Config) SetArgs(values map[string]any) error {
	data := make(map[string]any)
	var errs error
	for path, v := range values {
		norm, err := normalize(path, v)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		layer.SetByPath(data, path, norm)
	}
	before := c.layers.Merge()
	c.layers.Put(layer.NewWithData(layer.StandardName(layer.SourceArgs), layer.SourceArgs, layer.PriorityArgs, data))
	c.notifyDiff(before, c.layers.Merge(), layer.SourceArgs.String())
	return errs
}

// OnDidChange calls fn whenever the effective value at or below path
// changes, and with a reload change whenever a file is reloaded. An empty
// path observes everything.
func (c *Config) OnDidChange(path string, fn func(notify.Change)) event.Disposable {
	return c.notifier.SubscribePath(path, fn)
}

// Merged returns the fully merged configuration.
func (c *Config) Merged() map[string]any {
	return c.layers.Merge()
}

// Which returns the name of the layer that supplies path.
func (c *Config) Which(path string) string {
	return c.layers.Which(path)
}

// Layers returns copies of the active layers, lowest priority first.
func (c *Config) Layers() []*layer.Layer {
	return c.layers.Layers()
}

// ProjectDir returns the project directory.
func (c *Config) ProjectDir() string {
	return c.projectDir
}

// UserConfigPath returns the user config file in use.
func (c *Config) UserConfigPath() string {
	if c.configFile != "" {
		return c.configFile
	}
	return filepath.Join(c.userConfigDir, UserConfigFile)
}

// SaveBrowserslist writes queries into the package.json at path (the
// project's package.json when empty) and reloads browserslist discovery.
func (c *Config) SaveBrowserslist(path string, queries []string) error {
	if path == "" {
		path = filepath.Join(c.projectDir, loader.PackageJSON)
	}
	if err := loader.SaveBrowserslist(path, queries); err != nil {
		return err
	}
	c.log.Info("browserslist saved", zap.String("path", path), zap.Strings("browsers", queries))
	return c.Reload(layer.SourceBrowserslist)
}

func defaultUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autoprefix")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "autoprefix")
	}
	return ""
}
