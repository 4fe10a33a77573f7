// Package config provides the layered settings store of autoprefix.
//
// Settings are merged from, lowest to highest priority:
//
//   - built-in defaults
//   - a browserslist discovered in .browserslistrc or package.json
//   - the user file, $XDG_CONFIG_HOME/autoprefix/config.toml
//   - the project file, .autoprefix.toml
//   - the project .env file
//   - AUTOPREFIX_* environment variables
//   - command-line flags (SetArgs)
//   - runtime overrides (Set)
//
// A discovered browserslist only supplies autoprefixer.browsers and sits
// below every explicit source, so it applies only when no file, variable
// or flag sets the browsers.
//
// Basic usage:
//
//	cfg := config.New(config.WithProjectDir(dir), config.WithWatcher(true))
//	if err := cfg.Load(ctx); err != nil {
//	    log.Warn("config", zap.Error(err))
//	}
//	defer cfg.Close()
//
//	settings := cfg.Autoprefixer()
//	sub := cfg.OnDidChange("autoprefixer", func(c notify.Change) { ... })
//	defer sub.Dispose()
package config
