package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/autoprefixer"
	"github.com/dshills/autoprefix/internal/config"
	"github.com/dshills/autoprefix/internal/config/notify"
	"github.com/dshills/autoprefix/internal/workspace"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 4),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.initLogger,
		b.initConfig,
		b.initWorkspace,
		b.initExtension,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.Debug("bootstrapped", zap.Strings("components", b.initOrder))
	return nil
}

// initLogger starts with the level given on the command line; the
// configured level and file are applied once the configuration is loaded.
func (b *bootstrapper) initLogger(context.Context) error {
	cfg := DefaultLoggerConfig()
	if b.opts.LogOutput != nil {
		cfg.Output = b.opts.LogOutput
	}
	if lvl, ok := b.opts.Overrides[config.KeyLogLevel].(string); ok {
		cfg.Level = lvl
	}
	l, err := NewLogger(cfg)
	if err != nil {
		return &InitError{Component: "logger", Err: err}
	}
	b.app.logger = l
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

// initConfig loads every configuration source. A source that fails to
// load is logged and skipped; invalid overrides are fatal.
func (b *bootstrapper) initConfig(ctx context.Context) error {
	log := b.app.logger
	opts := []config.Option{
		config.WithWatcher(b.opts.Watch),
		config.WithLogger(log.WithComponent("config").Zap()),
	}
	if b.opts.ConfigFile != "" {
		opts = append(opts, config.WithConfigFile(b.opts.ConfigFile))
	}
	if b.opts.UserConfigDir != "" {
		opts = append(opts, config.WithUserConfigDir(b.opts.UserConfigDir))
	}
	if b.opts.ProjectDir != "" {
		opts = append(opts, config.WithProjectDir(b.opts.ProjectDir))
	}
	if b.opts.LookupEnv != nil {
		opts = append(opts, config.WithLookupEnv(b.opts.LookupEnv))
	}

	cfg := config.New(opts...)
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")

	if len(b.opts.Overrides) > 0 {
		if err := cfg.SetArgs(b.opts.Overrides); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	if err := cfg.Load(ctx); err != nil {
		if ctx.Err() != nil {
			return &InitError{Component: "config", Err: err}
		}
		log.Warn("configuration partially loaded", zap.Error(err))
	}

	settings := cfg.Logging()
	log.SetLevel(settings.Level)
	if settings.File != "" {
		if err := log.AttachFile(settings.File); err != nil {
			log.Warn("log file not opened", zap.Error(err))
		}
	}
	sub := cfg.OnDidChange(config.KeyLogLevel, func(notify.Change) {
		log.SetLevel(cfg.Logging().Level)
		log.Info("log level changed", zap.Stringer("level", log.Level()))
	})
	b.app.subscriptions.Add(sub)
	return nil
}

// initWorkspace creates the headless workspace and forwards its
// notifications.
func (b *bootstrapper) initWorkspace(context.Context) error {
	ws := workspace.New(workspace.WithLogger(b.app.logger.WithComponent("workspace").Zap()))
	b.app.workspace = ws
	b.initOrder = append(b.initOrder, "workspace")

	if fn := b.opts.OnNotification; fn != nil {
		b.app.subscriptions.Add(ws.Notifications().OnDidAdd(fn))
	}
	return nil
}

// initExtension activates the autoprefixer in the workspace.
func (b *bootstrapper) initExtension(context.Context) error {
	x, err := autoprefixer.Activate(b.app.workspace, b.app.config, b.app.logger.Zap())
	if err != nil {
		return &InitError{Component: "autoprefixer", Err: err}
	}
	b.app.extension = x
	b.initOrder = append(b.initOrder, "autoprefixer")
	return nil
}

// cleanup releases the initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "autoprefixer":
			autoprefixer.Deactivate(b.app.extension)
		case "workspace":
			b.app.workspace.Destroy()
		case "config":
			b.app.config.Close()
		case "logger":
			b.app.logger.Close()
		}
	}
	b.app.subscriptions.Dispose()
}
