package layer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors returned by Stack.
var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrReadOnly      = errors.New("layer is read-only")
)

// Stack manages configuration layers and provides merged access.
type Stack struct {
	mu     sync.RWMutex
	layers []*Layer // sorted by priority, ascending
	merged map[string]any
	dirty  bool
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{dirty: true}
}

// Put adds a layer, replacing any existing layer with the same name.
func (s *Stack) Put(l *Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(l.Name); i >= 0 {
		s.layers[i] = l
	} else {
		s.layers = append(s.layers, l)
	}
	s.sortLocked()
	s.dirty = true
}

// Remove removes a layer by name and reports whether it existed.
func (s *Stack) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(name)
	if i < 0 {
		return false
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	s.dirty = true
	return true
}

// Layer returns a copy of the named layer, or nil.
func (s *Stack) Layer(name string) *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(name); i >= 0 {
		return s.layers[i].Clone()
	}
	return nil
}

// Layers returns copies of all layers sorted by priority.
func (s *Stack) Layers() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Clone()
	}
	return out
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Merge combines all layers into one map. The result is a copy the
// caller may modify.
func (s *Stack) Merge() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMap(s.mergedLocked())
}

// Value returns the merged value at path.
func (s *Stack) Value(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := GetByPath(s.mergedLocked(), path)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Which returns the name of the highest layer that defines path.
func (s *Stack) Which(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.layers) - 1; i >= 0; i-- {
		if _, ok := GetByPath(s.layers[i].Data, path); ok {
			return s.layers[i].Name
		}
	}
	return ""
}

// Set writes a value into the named layer.
func (s *Stack) Set(name, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.writable(name)
	if err != nil {
		return err
	}
	SetByPath(l.Data, path, value)
	s.dirty = true
	return nil
}

// Delete removes a value from the named layer.
func (s *Stack) Delete(name, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.writable(name)
	if err != nil {
		return err
	}
	if DeleteByPath(l.Data, path) {
		s.dirty = true
	}
	return nil
}

// SetInSession writes a value into the session layer, creating it on
// first use.
func (s *Stack) SetInSession(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := StandardName(SourceSession)
	i := s.index(name)
	if i < 0 {
		s.layers = append(s.layers, New(name, SourceSession, PrioritySession))
		s.sortLocked()
		i = s.index(name)
	}
	SetByPath(s.layers[i].Data, path, value)
	s.dirty = true
}

func (s *Stack) writable(name string) (*Layer, error) {
	i := s.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	l := s.layers[i]
	if l.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if l.Data == nil {
		l.Data = make(map[string]any)
	}
	return l, nil
}

func (s *Stack) mergedLocked() map[string]any {
	if s.dirty || s.merged == nil {
		result := make(map[string]any)
		for _, l := range s.layers {
			result = DeepMerge(result, l.Data)
		}
		s.merged = result
		s.dirty = false
	}
	return s.merged
}

func (s *Stack) sortLocked() {
	sort.SliceStable(s.layers, func(i, j int) bool {
		return s.layers[i].Priority < s.layers[j].Priority
	})
}

func (s *Stack) index(name string) int {
	for i, l := range s.layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}
