package event

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

type handlerEntry[T any] struct {
	sub *Subscription
	fn  func(T) error
}

// Emitter is a typed synchronous event source.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu       sync.Mutex
	handlers []handlerEntry[T]
	nextID   uint64
}

// On registers fn. The returned subscription is also a Disposable.
func (e *Emitter[T]) On(fn func(T) error, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	cfg := SubscriptionConfig{Priority: PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	sub := &Subscription{id: e.nextID, config: cfg, remove: e.remove}
	e.handlers = append(e.handlers, handlerEntry[T]{sub: sub, fn: fn})
	sort.SliceStable(e.handlers, func(i, j int) bool {
		return e.handlers[i].sub.config.Priority < e.handlers[j].sub.config.Priority
	})
	return sub, nil
}

// Listen registers a handler that cannot fail.
func (e *Emitter[T]) Listen(fn func(T), opts ...SubscriptionOption) Disposable {
	if fn == nil {
		return DisposableFunc(nil)
	}
	sub, _ := e.On(func(v T) error {
		fn(v)
		return nil
	}, opts...)
	return sub
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, h := range e.handlers {
		if h.sub.id == id {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Emit delivers v to every active handler and returns their combined
// errors. Handlers registered during delivery see the next event only.
func (e *Emitter[T]) Emit(v T) error {
	e.mu.Lock()
	handlers := make([]handlerEntry[T], len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	var err error
	for _, h := range handlers {
		if !h.sub.IsActive() {
			continue
		}
		if h.sub.config.Once {
			h.sub.Dispose()
		}
		err = multierr.Append(err, call(h.fn, v))
	}
	return err
}

func call[T any](fn func(T) error, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return fn(v)
}

// Count returns the number of registered handlers.
func (e *Emitter[T]) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

// Clear cancels every handler.
func (e *Emitter[T]) Clear() {
	e.mu.Lock()
	handlers := e.handlers
	e.handlers = nil
	e.mu.Unlock()

	for _, h := range handlers {
		h.sub.state.Store(int32(SubscriptionStateCancelled))
	}
}
