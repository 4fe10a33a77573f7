// Package main is the autoprefix command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/app"
	"github.com/dshills/autoprefix/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// errChanged makes diff exit with status 1 without printing an error.
var errChanged = errors.New("files would change")

// initializeAppContext bootstraps the application once the command line
// has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}
	env := envFromContext(ctx)

	opts := app.Options{
		ConfigFile:     cmd.String("config"),
		ProjectDir:     cmd.String("project"),
		Overrides:      overrides(cmd),
		LogOutput:      env.logWriter(),
		OnNotification: env.printNotification,
	}
	a, err := app.New(ctx, opts)
	if err != nil {
		return ctx, fmt.Errorf("unable to start: %w", err)
	}
	env.app = a
	a.Logger().Debug("program started",
		zap.Strings("args", os.Args),
		zap.String("ver", version),
		zap.String("runtime", runtime.Version()))
	return ctx, nil
}

// overrides collects the settings given as flags.
func overrides(cmd *cli.Command) map[string]any {
	out := make(map[string]any)
	if cmd.IsSet("browsers") {
		out[config.KeyBrowsers] = cmd.String("browsers")
	}
	if cmd.Bool("no-cascade") {
		out[config.KeyCascade] = false
	}
	if cmd.Bool("no-remove") {
		out[config.KeyRemove] = false
	}
	if cmd.Bool("run-on-save") {
		out[config.KeyRunOnSave] = true
	}
	if cmd.IsSet("log-level") {
		out[config.KeyLogLevel] = cmd.String("log-level")
	}
	return out
}

func destroyAppContext(ctx context.Context, _ *cli.Command) error {
	env := envFromContext(ctx)
	if env.app == nil {
		return nil
	}
	return env.app.Shutdown()
}

func newCommand(env *env) *cli.Command {
	return &cli.Command{
		Name:            "autoprefix",
		Usage:           "adds and removes CSS vendor prefixes in stylesheets and HTML documents",
		Version:         version + " (" + runtime.Version() + ") : " + commit,
		HideHelpCommand: true,
		Writer:          env.stdout,
		ErrWriter:       env.stderr,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load user configuration from `FILE` (TOML)"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Value: ".", Usage: "look for .autoprefix.toml, .env and a browserslist in `DIR`"},
			&cli.StringFlag{Name: "log-level", Usage: "log `LEVEL`: debug, info, warn or error"},
			&cli.StringFlag{Name: "browsers", Aliases: []string{"b"}, Usage: "comma separated browserslist `QUERIES`"},
			&cli.BoolFlag{Name: "no-cascade", Usage: "do not align prefixed declarations"},
			&cli.BoolFlag{Name: "no-remove", Usage: "keep outdated prefixes"},
			&cli.BoolFlag{Name: "run-on-save", Usage: "enable the save hook for this run"},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Prefixes file(s) in place",
				ArgsUsage: "FILE...",
				Action:    runFiles,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "selection", Aliases: []string{"s"}, Usage: "only prefix `RANGE` (line:col-line:col, zero based)"},
				},
			},
			{
				Name:      "save",
				Usage:     "Saves file(s) through the save hook, prefixing them when run-on-save is enabled",
				ArgsUsage: "FILE...",
				Action:    saveFiles,
			},
			{
				Name:      "diff",
				Usage:     "Prints the changes run would make; exits with status 1 when there are any",
				ArgsUsage: "FILE...",
				Action:    diffFiles,
			},
			{
				Name:      "browsers",
				Usage:     "Prints the browsers selected by the configured or given queries",
				ArgsUsage: "[QUERY...]",
				Action:    listBrowsers,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save", Usage: "write the queries into the browserslist key of `FILE` (package.json)"},
				},
			},
			{
				Name:      "script",
				Usage:     "Runs a Lua script against the files",
				ArgsUsage: "SCRIPT [FILE...]",
				Action:    runScript,
			},
		},
	}
}

func main() {
	env := newEnv(os.Stdout, os.Stderr)
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background(), env), os.Interrupt, syscall.SIGTERM)

	err := newCommand(env).Run(ctx, os.Args)
	stop()
	if err != nil {
		if !errors.Is(err, errChanged) {
			fmt.Fprintf(os.Stderr, "autoprefix: %v\n", err)
		}
		os.Exit(1)
	}
}
