package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/event"
)

// Level represents the severity of a notification.
type Level string

const (
	// LevelInfo is an informational notification.
	LevelInfo Level = "info"
	// LevelSuccess is a success notification.
	LevelSuccess Level = "success"
	// LevelWarning is a warning notification.
	LevelWarning Level = "warning"
	// LevelError is an error notification.
	LevelError Level = "error"
)

// Notification is a message shown to the user.
type Notification struct {
	ID          string
	Level       Level
	Message     string
	Detail      string
	Dismissable bool
	Time        time.Time
}

// NotificationOptions carries the optional parts of a notification.
type NotificationOptions struct {
	Detail      string
	Dismissable bool
}

// maxNotifications bounds the retained history.
const maxNotifications = 500

// Notifications collects notifications and fans them out to observers.
type Notifications struct {
	mu    sync.RWMutex
	items []Notification
	log   *zap.Logger

	didAdd event.Emitter[Notification]
}

func newNotifications(log *zap.Logger) *Notifications {
	return &Notifications{log: log}
}

// Add records a notification and delivers it to observers.
func (n *Notifications) Add(level Level, message string, opts NotificationOptions) Notification {
	note := Notification{
		ID:          uuid.NewString(),
		Level:       level,
		Message:     message,
		Detail:      opts.Detail,
		Dismissable: opts.Dismissable,
		Time:        time.Now(),
	}

	n.mu.Lock()
	n.items = append(n.items, note)
	if len(n.items) > maxNotifications {
		n.items = n.items[len(n.items)-maxNotifications:]
	}
	n.mu.Unlock()

	if err := n.didAdd.Emit(note); err != nil {
		n.log.Warn("notification observer failed", zap.Error(err))
	}
	return note
}

// AddInfo adds an info notification.
func (n *Notifications) AddInfo(message string, opts NotificationOptions) Notification {
	return n.Add(LevelInfo, message, opts)
}

// AddSuccess adds a success notification.
func (n *Notifications) AddSuccess(message string, opts NotificationOptions) Notification {
	return n.Add(LevelSuccess, message, opts)
}

// AddWarning adds a warning notification.
func (n *Notifications) AddWarning(message string, opts NotificationOptions) Notification {
	return n.Add(LevelWarning, message, opts)
}

// AddError adds an error notification.
func (n *Notifications) AddError(message string, opts NotificationOptions) Notification {
	return n.Add(LevelError, message, opts)
}

// OnDidAdd calls fn for every notification added later.
func (n *Notifications) OnDidAdd(fn func(Notification)) event.Disposable {
	return n.didAdd.Listen(fn)
}

// All returns the retained notifications, oldest first.
func (n *Notifications) All() []Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Count returns the number of notifications with the given level.
func (n *Notifications) Count(level Level) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count := 0
	for _, note := range n.items {
		if note.Level == level {
			count++
		}
	}
	return count
}

// Clear drops the retained notifications.
func (n *Notifications) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = nil
}
