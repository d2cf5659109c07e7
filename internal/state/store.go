package state

import (
	"sync"

	"premium-homes/internal/models"
)

// Store serializes dispatches to the listing reducer and fans the resulting
// state out to subscribers.
type Store struct {
	mu     sync.Mutex
	state  PropertiesState
	subs   map[int]func(PropertiesState)
	nextID int
}

func NewStore() *Store {
	return &Store{state: InitialPropertiesState(), subs: make(map[int]func(PropertiesState))}
}

// State returns a snapshot that callers may modify freely.
func (s *Store) State() PropertiesState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

// Dispatch applies a and returns the new state. Subscribers run after the
// lock is released, so they may dispatch themselves.
func (s *Store) Dispatch(a Action) PropertiesState {
	s.mu.Lock()
	s.state = ReduceProperties(s.state, a)
	next := snapshot(s.state)
	subs := make([]func(PropertiesState), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot(next))
	}
	return next
}

// Subscribe registers fn for every later transition. The returned func removes it.
func (s *Store) Subscribe(fn func(PropertiesState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func snapshot(st PropertiesState) PropertiesState {
	st.Properties = cloneAll(st.Properties)
	if st.Selected != nil {
		p := st.Selected.Clone()
		st.Selected = &p
	}
	return st
}

// Find returns the listing with id from the current state.
func (s *Store) Find(id int) (models.Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.state.Properties, id); i >= 0 {
		return s.state.Properties[i].Clone(), true
	}
	return models.Property{}, false
}
