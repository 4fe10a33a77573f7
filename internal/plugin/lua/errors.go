package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoWorkspace is returned by RegisterAPI without a workspace.
	ErrNoWorkspace = errors.New("no workspace")

	// ErrNoEditor is raised by ks.editor functions when no editor is active.
	ErrNoEditor = errors.New("no active editor")
)
