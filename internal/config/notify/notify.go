// Package notify delivers configuration change notifications.
//
// Observers subscribe to every change or to a key path; a path
// subscription also receives changes below it, so "autoprefixer" sees
// "autoprefixer.browsers". Reload events reach every observer.
package notify

import (
	"sort"
	"strings"
	"sync"
)

// ChangeType is the kind of configuration change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota
	// ChangeDelete indicates a value was removed.
	ChangeDelete
	// ChangeReload indicates a source file was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one configuration change.
type Change struct {
	// Path is the dot-separated key, empty for reloads.
	Path     string
	Type     ChangeType
	OldValue any
	NewValue any
	// Source names the layer or file the change came from.
	Source string
}

// Observer is called for each matching change.
type Observer func(Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
	once     sync.Once
}

// Dispose removes the observer. It is safe to call more than once.
func (s *Subscription) Dispose() error {
	s.once.Do(func() {
		s.notifier.unsubscribe(s.id)
	})
	return nil
}

type entry struct {
	path     string
	observer Observer
}

// Notifier fans changes out to observers in subscription order.
type Notifier struct {
	mu      sync.RWMutex
	entries map[uint64]entry
	nextID  uint64
	closed  bool
}

// New creates a notifier.
func New() *Notifier {
	return &Notifier{entries: make(map[uint64]entry)}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	return n.SubscribePath("", fn)
}

// SubscribePath registers an observer for changes at or below path.
func (n *Notifier) SubscribePath(path string, fn Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.entries[n.nextID] = entry{path: path, observer: fn}
	return &Subscription{id: n.nextID, notifier: n}
}

// Count returns the number of observers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Notify delivers c synchronously. Observers run outside the lock and may
// subscribe or unsubscribe.
func (n *Notifier) Notify(c Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	ids := make([]uint64, 0, len(n.entries))
	for id, e := range n.entries {
		if matches(e.path, c) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = n.entries[id].observer
	}
	n.mu.RUnlock()

	for _, fn := range observers {
		fn(c)
	}
}

// NotifySet reports a changed value.
func (n *Notifier) NotifySet(path string, oldValue, newValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

// NotifyDelete reports a removed value.
func (n *Notifier) NotifyDelete(path string, oldValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeDelete, OldValue: oldValue, Source: source})
}

// NotifyReload reports that source was reloaded.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Close drops all observers; later notifications are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.entries = make(map[uint64]entry)
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, id)
}

func matches(subscribed string, c Change) bool {
	if subscribed == "" || c.Path == "" {
		return true
	}
	return c.Path == subscribed || strings.HasPrefix(c.Path, subscribed+".")
}
