package editor

import "errors"

// Sentinel errors for editor operations.
var (
	// ErrNoPath is returned when saving an editor that has no file path.
	ErrNoPath = errors.New("editor has no file path")

	// ErrDestroyed is returned when using an editor after Destroy.
	ErrDestroyed = errors.New("editor destroyed")
)
