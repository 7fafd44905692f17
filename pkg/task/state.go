package task

import (
	"sort"
	"sync"
)

// State is the working state of a task, saved in checkpoints.
//
// Values must be safe for checkpointing: nil, booleans, numbers, strings, bytes,
// and slices or string-keyed maps of those. Integers restored from a checkpoint
// come back as int64 (or uint64).
type State struct {
	mx     sync.Mutex
	values map[string]interface{}
}

// NewState builds an empty state
func NewState() *State {
	return &State{values: make(map[string]interface{})}
}

// Get a value
func (s *State) Get(name string) (interface{}, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// Set a value
func (s *State) Set(name string, value interface{}) {
	s.mx.Lock()
	s.values[name] = value
	s.mx.Unlock()
}

// Delete a value
func (s *State) Delete(name string) {
	s.mx.Lock()
	delete(s.values, name)
	s.mx.Unlock()
}

// Update applies changes to several values at once, with no checkpoint taken in between
func (s *State) Update(fn func(values map[string]interface{})) {
	s.mx.Lock()
	defer s.mx.Unlock()
	fn(s.values)
}

// Int64 returns an integer value, whichever integer type it is stored with
func (s *State) Int64(name string) (int64, bool) {
	v, ok := s.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true // #nosec
	case uint:
		return int64(n), true // #nosec
	default:
		return 0, false
	}
}

// Names of the values held, sorted
func (s *State) Names() []string {
	s.mx.Lock()
	defer s.mx.Unlock()
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot is a shallow copy of the values
func (s *State) Snapshot() map[string]interface{} {
	s.mx.Lock()
	defer s.mx.Unlock()
	snap := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	return snap
}

func (s *State) restore(fn func(map[string]interface{}) error) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return fn(s.values)
}
