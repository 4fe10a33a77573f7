package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/autoprefix/internal/autoprefixer"
	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/engine/buffer"
	"github.com/dshills/autoprefix/internal/plugin/lua"
	"github.com/dshills/autoprefix/internal/prefixer/browsers"
)

// forEachFile opens every argument in its own editor and calls fn for the
// files concurrently. Failures are reported per file and combined.
func forEachFile(ctx context.Context, cmd *cli.Command, fn func(context.Context, *editor.TextEditor) error) error {
	if cmd.NArg() == 0 {
		return errors.New("no input files have been specified")
	}
	env := envFromContext(ctx)
	ws := env.app.Workspace()
	log := env.app.Logger().WithComponent(cmd.Name)

	// Failures are collected rather than returned so one bad file does not
	// cancel the others; the group only bounds concurrency.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var (
		mu   sync.Mutex
		errs error
	)
	for _, path := range cmd.Args().Slice() {
		g.Go(func() error {
			e, err := ws.Open(path)
			if err == nil {
				err = fn(gctx, e)
			}
			if err != nil {
				log.Debug("file failed", zap.String("path", path), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // always nil
	return errs
}

// runFiles prefixes each file and writes it back.
func runFiles(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	x := env.app.Extension()

	var sel *buffer.PointRange
	if s := cmd.String("selection"); s != "" {
		r, err := parseRange(s)
		if err != nil {
			return err
		}
		sel = &r
	}

	return forEachFile(ctx, cmd, func(ctx context.Context, e *editor.TextEditor) error {
		if sel != nil {
			e.SetSelectedBufferRange(*sel)
		}
		before := e.Text()
		if err := x.Run(ctx, e, autoprefixer.TriggerManual); err != nil {
			return err
		}
		if e.Text() == before {
			return nil
		}
		return writeFile(e)
	})
}

// writeFile writes e without running the save hook a second time.
func writeFile(e *editor.TextEditor) error {
	info, err := os.Stat(e.Path())
	if err != nil {
		return err
	}
	return os.WriteFile(e.Path(), []byte(e.Text()), info.Mode().Perm())
}

// saveFiles saves each file through the will-save hook.
func saveFiles(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if !env.app.Config().Autoprefixer().RunOnSave {
		env.app.Logger().Info("run-on-save is disabled, files are saved unchanged")
	}
	return forEachFile(ctx, cmd, func(ctx context.Context, e *editor.TextEditor) error {
		return e.Save(ctx)
	})
}

// diffFiles prints a line diff of what run would change.
func diffFiles(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	x := env.app.Extension()

	changed := false
	err := forEachFile(ctx, cmd, func(ctx context.Context, e *editor.TextEditor) error {
		before := e.Text()
		if err := x.Run(ctx, e, autoprefixer.TriggerManual); err != nil {
			return err
		}
		after := e.Text()
		if after == before {
			return nil
		}
		env.printf("%s", lineDiff(e.Path(), before, after))
		env.mu.Lock()
		changed = true
		env.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		return errChanged
	}
	return nil
}

// lineDiff renders the line-level differences between a and b.
func lineDiff(path, a, b string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", path, path)
	for _, d := range buffer.LineDiff(a, b) {
		var mark string
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			continue
		case diffmatchpatch.DiffDelete:
			mark = "-"
		case diffmatchpatch.DiffInsert:
			mark = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(mark)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	return sb.String()
}

// listBrowsers prints the resolved targets and optionally saves the
// queries into package.json.
func listBrowsers(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	cfg := env.app.Config()

	queries := cmd.Args().Slice()
	if len(queries) == 0 {
		queries = cfg.Autoprefixer().Browsers
	}
	resolver := browsers.Default()
	targets, err := resolver.Resolve(queries)
	if err != nil {
		return err
	}
	for _, t := range targets {
		env.printf("%s\n", t)
	}
	env.printf("# %d browsers, %.2f%% global usage\n", len(targets), resolver.Coverage(targets))

	if path := cmd.String("save"); path != "" {
		if err := cfg.SaveBrowserslist(path, queries); err != nil {
			return fmt.Errorf("unable to save browserslist: %w", err)
		}
	}
	return nil
}

// runScript runs a Lua script with the given files open; the last one is
// active.
func runScript(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	script := cmd.Args().First()
	if script == "" {
		return errors.New("no script has been specified")
	}

	ws := env.app.Workspace()
	for _, path := range cmd.Args().Tail() {
		if _, err := ws.Open(path); err != nil {
			return err
		}
	}

	state := lua.NewState(lua.WithOutput(env.stdout))
	defer state.Close()
	api, err := lua.RegisterAPI(state, ws, env.app.Config(), env.app.Logger().Zap())
	if err != nil {
		return err
	}
	defer api.Dispose()

	if err := state.DoFile(ctx, script); err != nil {
		return fmt.Errorf("script %s: %w", script, err)
	}
	return nil
}

// parseRange parses "line:col-line:col".
func parseRange(s string) (buffer.PointRange, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return buffer.PointRange{}, fmt.Errorf("invalid range %q, want line:col-line:col", s)
	}
	p, err := parsePoint(start)
	if err != nil {
		return buffer.PointRange{}, err
	}
	q, err := parsePoint(end)
	if err != nil {
		return buffer.PointRange{}, err
	}
	if q.Compare(p) < 0 {
		p, q = q, p
	}
	return buffer.PointRange{Start: p, End: q}, nil
}

func parsePoint(s string) (buffer.Point, error) {
	l, c, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return buffer.Point{}, fmt.Errorf("invalid position %q, want line:col", s)
	}
	line, err := strconv.ParseUint(l, 10, 32)
	if err != nil {
		return buffer.Point{}, fmt.Errorf("invalid line in %q: %w", s, err)
	}
	col, err := strconv.ParseUint(c, 10, 32)
	if err != nil {
		return buffer.Point{}, fmt.Errorf("invalid column in %q: %w", s, err)
	}
	return buffer.Point{Line: uint32(line), Column: uint32(col)}, nil
}
