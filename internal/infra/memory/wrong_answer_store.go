package memory

import (
	"context"
	"sync"
)

// WrongAnswerStore counts wrong answers per user and question id.
type WrongAnswerStore struct {
	mu     sync.RWMutex
	counts map[string]map[string]int
}

func NewWrongAnswerStore() *WrongAnswerStore {
	return &WrongAnswerStore{counts: make(map[string]map[string]int)}
}

func (s *WrongAnswerStore) Increment(_ context.Context, userID string, questionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.counts[userID]
	if !ok {
		user = make(map[string]int)
		s.counts[userID] = user
	}
	for _, id := range questionIDs {
		user[id]++
	}
	return nil
}

func (s *WrongAnswerStore) Counts(_ context.Context, userID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.counts[userID]))
	for id, n := range s.counts[userID] {
		out[id] = n
	}
	return out, nil
}
