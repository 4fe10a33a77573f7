package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/dshills/autoprefix/internal/editor"
	"github.com/dshills/autoprefix/internal/event"
)

// CommandEvent is passed to command handlers.
type CommandEvent struct {
	// ID is the dispatched command id.
	ID string

	// Workspace is the workspace the command runs in.
	Workspace *Workspace

	// Editor is the active editor at dispatch time; nil when none is open.
	Editor *editor.TextEditor

	// Args holds optional arguments.
	Args map[string]any
}

// CommandHandler executes a command.
type CommandHandler func(ctx context.Context, ev *CommandEvent) error

// Command is one registered handler.
type Command struct {
	// ID is the command identifier (e.g., "autoprefixer:run").
	ID string

	// Target indicates who registered the command, e.g. "workspace" or
	// "lua:script.lua".
	Target string

	// Handler executes the command.
	Handler CommandHandler
}

// Commands is the workspace command registry.
type Commands struct {
	mu       sync.RWMutex
	ws       *Workspace
	commands map[string][]*Command
}

func newCommands(ws *Workspace) *Commands {
	return &Commands{ws: ws, commands: make(map[string][]*Command)}
}

// Add registers handler under id. Disposing the result unregisters it.
func (c *Commands) Add(target, id string, handler CommandHandler) (event.Disposable, error) {
	if id == "" || handler == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, id)
	}

	cmd := &Command{ID: id, Target: target, Handler: handler}
	c.mu.Lock()
	c.commands[id] = append(c.commands[id], cmd)
	c.mu.Unlock()

	return event.DisposableFunc(func() error {
		c.remove(cmd)
		return nil
	}), nil
}

func (c *Commands) remove(cmd *Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.commands[cmd.ID]
	for i, existing := range list {
		if existing == cmd {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.commands, cmd.ID)
		return
	}
	c.commands[cmd.ID] = list
}

// RemoveByTarget unregisters every handler registered by target.
// Returns the number removed.
func (c *Commands) RemoveByTarget(target string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for id, list := range c.commands {
		kept := list[:0:0]
		for _, cmd := range list {
			if cmd.Target == target {
				count++
				continue
			}
			kept = append(kept, cmd)
		}
		if len(kept) == 0 {
			delete(c.commands, id)
		} else {
			c.commands[id] = kept
		}
	}
	return count
}

// Has reports whether id has at least one handler.
func (c *Commands) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.commands[id]) > 0
}

// IDs returns the registered command ids, sorted.
func (c *Commands) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.commands))
	for id := range c.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch runs every handler of id with the active editor.
// Handler errors are combined; all handlers run.
func (c *Commands) Dispatch(ctx context.Context, id string, args map[string]any) error {
	c.mu.RLock()
	list := make([]*Command, len(c.commands[id]))
	copy(list, c.commands[id])
	c.mu.RUnlock()

	if len(list) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}

	ev := &CommandEvent{
		ID:        id,
		Workspace: c.ws,
		Editor:    c.ws.ActiveTextEditor(),
		Args:      args,
	}

	var err error
	for _, cmd := range list {
		err = multierr.Append(err, cmd.Handler(ctx, ev))
	}
	return err
}

// Clear removes every command.
func (c *Commands) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = make(map[string][]*Command)
}
