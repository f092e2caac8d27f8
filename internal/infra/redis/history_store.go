package redis

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"exam-drill-service/internal/domain"
)

// HistoryStore keeps a capped list per user, newest at the head:
// LPUSH history:{userID} {json}; LTRIM history:{userID} 0 limit-1
type HistoryStore struct {
	client *redis.Client
}

func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func (s *HistoryStore) Save(ctx context.Context, record domain.HistoryRecord, limit int) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "failed to encode history record %s", record.ID)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key(record.UserID), payload)
	if limit > 0 {
		pipe.LTrim(ctx, s.key(record.UserID), 0, int64(limit-1))
	}
	_, err = pipe.Exec(ctx)
	return errors.Wrapf(err, "failed to save history record %s", record.ID)
}

func (s *HistoryStore) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	raw, err := s.client.LRange(ctx, s.key(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list history for %s", userID)
	}
	out := make([]domain.HistoryRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.HistoryRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, errors.Wrapf(err, "failed to decode history for %s", userID)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *HistoryStore) Delete(ctx context.Context, userID, recordID string) error {
	raw, err := s.client.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to list history for %s", userID)
	}
	for _, item := range raw {
		var rec domain.HistoryRecord
		if json.Unmarshal([]byte(item), &rec) != nil || rec.ID != recordID {
			continue
		}
		return errors.Wrapf(s.client.LRem(ctx, s.key(userID), 1, item).Err(), "failed to delete history record %s", recordID)
	}
	return domain.ErrHistoryNotFound
}

func (s *HistoryStore) Clear(ctx context.Context, userID string) error {
	return errors.Wrapf(s.client.Del(ctx, s.key(userID)).Err(), "failed to clear history for %s", userID)
}

func (s *HistoryStore) key(userID string) string {
	return "history:" + userID
}
