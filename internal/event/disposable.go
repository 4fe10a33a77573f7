package event

import (
	"sync"

	"go.uber.org/multierr"
)

// Disposable releases a subscription or any other registration.
// Dispose must be safe to call more than once.
type Disposable interface {
	Dispose() error
}

// DisposableFunc adapts a function to Disposable. The function runs at
// most once.
func DisposableFunc(fn func() error) Disposable {
	return &funcDisposable{fn: fn}
}

type funcDisposable struct {
	once sync.Once
	fn   func() error
}

func (d *funcDisposable) Dispose() error {
	var err error
	d.once.Do(func() {
		if d.fn != nil {
			err = d.fn()
		}
	})
	return err
}

// CompositeDisposable disposes a group of disposables together.
type CompositeDisposable struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// NewCompositeDisposable creates a composite holding ds.
func NewCompositeDisposable(ds ...Disposable) *CompositeDisposable {
	c := &CompositeDisposable{}
	for _, d := range ds {
		c.Add(d)
	}
	return c
}

// Add adds d to the group. Adding to a disposed group disposes d
// immediately and returns ErrDisposed combined with any error d reports.
func (c *CompositeDisposable) Add(d Disposable) error {
	if d == nil {
		return nil
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return multierr.Append(ErrDisposed, d.Dispose())
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
	return nil
}

// Remove drops d from the group without disposing it. Members are
// compared by identity, so d must be of a comparable type.
func (c *CompositeDisposable) Remove(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item == d {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return
		}
	}
}

// Len returns the number of members.
func (c *CompositeDisposable) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Disposed reports whether Dispose has been called.
func (c *CompositeDisposable) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Dispose disposes every member in reverse order of addition and combines
// their errors. Later calls do nothing.
func (c *CompositeDisposable) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	var err error
	for i := len(items) - 1; i >= 0; i-- {
		err = multierr.Append(err, items[i].Dispose())
	}
	return err
}
