package memory

import (
	"context"
	"sort"
	"sync"

	"vankino/internal/domain"
)

type VenueStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.VenueState
}

func NewVenueStateStore() *VenueStateStore {
	return &VenueStateStore{states: make(map[string]domain.VenueState)}
}

func (s *VenueStateStore) Get(_ context.Context, sourceID string) (*domain.VenueState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sourceID]
	if !ok {
		return &domain.VenueState{SourceID: sourceID}, nil
	}
	return &state, nil
}

func (s *VenueStateStore) Update(_ context.Context, state *domain.VenueState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.SourceID] = *state
	return nil
}

func (s *VenueStateStore) List(_ context.Context) ([]domain.VenueState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]domain.VenueState, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].SourceID < states[j].SourceID
	})
	return states, nil
}
