// Package memory holds process-local stores used when no database is configured.
package memory

import (
	"context"
	"sync"

	"vankino/internal/domain"
)

// HypeStore keeps counts in a mutex-guarded map. Counts never go below zero.
type HypeStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewHypeStore() *HypeStore {
	return &HypeStore{counts: make(map[string]int)}
}

func (s *HypeStore) Increment(_ context.Context, req domain.HypeRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[req.EventID]++
	return s.counts[req.EventID], nil
}

func (s *HypeStore) Decrement(_ context.Context, req domain.HypeRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.counts[req.EventID]
	if !ok {
		return 0, nil
	}
	if current > 0 {
		current--
	}
	s.counts[req.EventID] = current
	return current, nil
}

func (s *HypeStore) Counts(_ context.Context, ids []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]int, len(ids))
	for _, id := range ids {
		if c, ok := s.counts[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}
