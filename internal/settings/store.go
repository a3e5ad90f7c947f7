// Package settings is an in-memory key-value configuration store with
// change notification. The auth gate watches the auth-token key here.
package settings

import "sync"

// Store holds string settings and notifies watchers on change.
type Store struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[string][]func(string)
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]string),
		watchers: make(map[string][]func(string)),
	}
}

// Get returns the value for key and whether it is set.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value and notifies watchers when it changed.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	old, had := s.values[key]
	s.values[key] = value
	var fns []func(string)
	if !had || old != value {
		fns = append(fns, s.watchers[key]...)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Unset removes a key, notifying watchers with the empty value.
func (s *Store) Unset(key string) {
	s.mu.Lock()
	_, had := s.values[key]
	delete(s.values, key)
	var fns []func(string)
	if had {
		fns = append(fns, s.watchers[key]...)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn("")
	}
}

// OnChange subscribes to changes of a single key.
func (s *Store) OnChange(key string, fn func(value string)) {
	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], fn)
	s.mu.Unlock()
}
