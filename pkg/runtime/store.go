package runtime

import (
	"sort"
	"sync"
)

// Store is one variable namespace. A store may have a parent; lookups and
// assignments to existing names walk outward, which is how closures share the
// locals of the function that created them.
type Store struct {
	mu     sync.RWMutex
	values map[string]Value
	parent *Store
}

// NewStore creates a new store, optionally nested under a parent.
func NewStore(parent *Store) *Store {
	return &Store{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Parent exposes the enclosing store (nil for a root).
func (s *Store) Parent() *Store {
	return s.parent
}

// Define inserts or shadows a binding in this store only.
func (s *Store) Define(name string, value Value) {
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
}

// Get retrieves a binding, searching outward through the parents.
func (s *Store) Get(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.values[name]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether name is bound here or in a parent.
func (s *Store) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Set updates the nearest existing binding, or defines name here when no
// store in the chain has it.
func (s *Store) Set(name string, value Value) {
	if s.AssignExisting(name, value) {
		return
	}
	s.Define(name, value)
}

// AssignExisting updates the nearest binding of name and reports whether one
// was found.
func (s *Store) AssignExisting(name string, value Value) bool {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		if _, ok := cur.values[name]; ok {
			cur.values[name] = value
			cur.mu.Unlock()
			return true
		}
		cur.mu.Unlock()
	}
	return false
}

// Delete removes the nearest binding of name and reports whether one existed.
func (s *Store) Delete(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		if _, ok := cur.values[name]; ok {
			delete(cur.values, name)
			cur.mu.Unlock()
			return true
		}
		cur.mu.Unlock()
	}
	return false
}

// Keys returns this store's own bindings in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot copies this store's own bindings into a dictionary, in key order.
func (s *Store) Snapshot() *DictValue {
	out := NewDict()
	for _, k := range s.Keys() {
		if v, ok := s.Get(k); ok {
			out.Set(k, v)
		}
	}
	return out
}

// Extend creates a child store.
func (s *Store) Extend() *Store {
	return NewStore(s)
}
