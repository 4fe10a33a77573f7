package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dshills/autoprefix/internal/app"
	"github.com/dshills/autoprefix/internal/workspace"
)

// env is the state shared by the commands of one invocation.
type env struct {
	app *app.Application

	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func newEnv(stdout, stderr io.Writer) *env {
	return &env{stdout: stdout, stderr: stderr}
}

type envKey struct{}

func contextWithEnv(ctx context.Context, e *env) context.Context {
	return context.WithValue(ctx, envKey{}, e)
}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	panic("autoprefix: context without env")
}

// printNotification writes n to stderr as "[level] message: detail".
func (e *env) printNotification(n workspace.Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n.Detail == "" {
		fmt.Fprintf(e.stderr, "[%s] %s\n", n.Level, n.Message)
		return
	}
	fmt.Fprintf(e.stderr, "[%s] %s: %s\n", n.Level, n.Message, strings.TrimRight(n.Detail, "\n"))
}

// logWriter is stderr shared with notifications.
func (e *env) logWriter() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.stderr.Write(p)
	})
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// printf writes to stdout; commands running files concurrently share it.
func (e *env) printf(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.stdout, format, args...)
}
