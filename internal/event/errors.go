package event

import "errors"

// Sentinel errors for subscriptions and emitters.
var (
	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrDisposed is returned when using a composite that was already disposed.
	ErrDisposed = errors.New("already disposed")
)
