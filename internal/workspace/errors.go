package workspace

import "errors"

// Sentinel errors for workspace operations.
var (
	// ErrUnknownCommand is returned when dispatching an id with no handlers.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidCommand is returned when registering a command without an id or handler.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrEditorNotFound is returned when an editor is not part of the workspace.
	ErrEditorNotFound = errors.New("editor not found")
)
