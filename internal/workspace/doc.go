// Package workspace holds the open editors together with the command
// registry and the notification center that extensions use.
//
// The workspace tracks one active editor. ObserveTextEditors delivers every
// editor that is open now and every editor opened later, which is how an
// extension attaches per-editor hooks without missing any.
//
// Commands are registered under an id and a target. Dispatching an id runs
// every handler registered for it, in registration order, with the active
// editor in the CommandEvent.
package workspace
