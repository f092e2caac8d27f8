package redis

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// WrongAnswerStore counts wrong answers in one hash per user:
// HINCRBY wrong:{userID} {questionID} 1
type WrongAnswerStore struct {
	client *redis.Client
}

func NewWrongAnswerStore(client *redis.Client) *WrongAnswerStore {
	return &WrongAnswerStore{client: client}
}

func (s *WrongAnswerStore) Increment(ctx context.Context, userID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, id := range questionIDs {
		pipe.HIncrBy(ctx, s.key(userID), id, 1)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrapf(err, "failed to record wrong answers for %s", userID)
}

func (s *WrongAnswerStore) Counts(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load wrong answers for %s", userID)
	}
	out := make(map[string]int, len(raw))
	for id, v := range raw {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (s *WrongAnswerStore) key(userID string) string {
	return "wrong:" + userID
}
