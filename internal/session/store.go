package session

import (
	"sync"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
	nextSeat int
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*State),
	}
}

func (s *Store) Get(id string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

func (s *Store) GetAll() []*State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*State, 0, len(s.sessions))
	for _, st := range s.sessions {
		result = append(result, st.Clone())
	}
	return result
}

func (s *Store) Update(state *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked(state)
}

// UpdateAndNotify commits the state and invokes notify while still holding
// the write lock, so observers see the store and the notification in the
// same order the updates happened. notify must not call back into the store.
func (s *Store) UpdateAndNotify(state *State, notify func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked(state)
	if notify != nil {
		notify()
	}
}

// BatchUpdateAndNotify commits all states atomically, then invokes notify
// under the same write lock. Readers never observe a partially applied batch.
func (s *Store) BatchUpdateAndNotify(states []*State, notify func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range states {
		s.updateLocked(st)
	}
	if notify != nil {
		notify()
	}
}

func (s *Store) updateLocked(state *State) {
	if existing, ok := s.sessions[state.ID]; ok {
		state.Seat = existing.Seat
	} else {
		state.Seat = s.nextSeat
		s.nextSeat++
	}
	s.sessions[state.ID] = state.Clone()
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, st := range s.sessions {
		if !st.IsTerminal() {
			count++
		}
	}
	return count
}
