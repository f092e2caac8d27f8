package memory

import (
	"context"
	"sync"

	"exam-drill-service/internal/domain"
)

// HistoryStore keeps history records per user, newest first.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.HistoryRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string][]domain.HistoryRecord)}
}

func (s *HistoryStore) Save(_ context.Context, record domain.HistoryRecord, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]domain.HistoryRecord{record}, s.records[record.UserID]...)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	s.records[record.UserID] = list
	return nil
}

func (s *HistoryStore) List(_ context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.records[userID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]domain.HistoryRecord, len(list))
	copy(out, list)
	return out, nil
}

func (s *HistoryStore) Delete(_ context.Context, userID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.records[userID]
	for i, rec := range list {
		if rec.ID == recordID {
			s.records[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrHistoryNotFound
}

func (s *HistoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}
