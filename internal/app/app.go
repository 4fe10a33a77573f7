package app

import (
	"context"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/autoprefixer"
	"github.com/dshills/autoprefix/internal/config"
	"github.com/dshills/autoprefix/internal/config/loader"
	"github.com/dshills/autoprefix/internal/event"
	"github.com/dshills/autoprefix/internal/workspace"
)

// Application owns the components of one autoprefix session.
type Application struct {
	mu sync.Mutex

	config    *config.Config
	logger    *Logger
	workspace *workspace.Workspace
	extension *autoprefixer.Extension

	subscriptions *event.CompositeDisposable
	shutdown      bool

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigFile replaces the user config file.
	ConfigFile string
	// UserConfigDir holds config.toml when ConfigFile is empty.
	UserConfigDir string
	// ProjectDir is searched for .autoprefix.toml, .env and a
	// browserslist. Defaults to the working directory.
	ProjectDir string

	// Overrides are command-line settings by dot path. They take
	// precedence over every file and the environment.
	Overrides map[string]any

	// LogOutput receives console logs. Defaults to os.Stderr.
	LogOutput io.Writer

	// Watch reloads configuration files when they change.
	Watch bool

	// LookupEnv replaces the process environment.
	LookupEnv loader.LookupFunc

	// OnNotification is called for every notification added to the
	// workspace.
	OnNotification func(workspace.Notification)
}

// New bootstraps an application.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{
		opts:          opts,
		subscriptions: event.NewCompositeDisposable(),
	}
	if err := newBootstrapper(app, opts).bootstrap(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.logger
}

// Workspace returns the workspace.
func (app *Application) Workspace() *workspace.Workspace {
	return app.workspace
}

// Extension returns the activated autoprefixer.
func (app *Application) Extension() *autoprefixer.Extension {
	return app.extension
}

// Shutdown deactivates the extension, destroys the editors and releases
// the configuration watcher and the log file. Later calls do nothing.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	if app.shutdown {
		app.mu.Unlock()
		return nil
	}
	app.shutdown = true
	app.mu.Unlock()

	var err error
	err = multierr.Append(err, app.subscriptions.Dispose())
	if app.extension != nil {
		err = multierr.Append(err, autoprefixer.Deactivate(app.extension))
	}
	if app.workspace != nil {
		app.workspace.Destroy()
	}
	if app.config != nil {
		err = multierr.Append(err, app.config.Close())
	}
	if app.logger != nil {
		app.logger.Debug("shutdown", zap.Error(err))
		err = multierr.Append(err, app.logger.Close())
	}
	return err
}

// IsShutdown reports whether Shutdown was called.
func (app *Application) IsShutdown() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.shutdown
}
