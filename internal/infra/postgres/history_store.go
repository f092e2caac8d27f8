package postgres

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"exam-drill-service/internal/domain"
)

// HistoryStore persists history records in the quiz_history table.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Save(ctx context.Context, record domain.HistoryRecord, limit int) error {
	names, err := json.Marshal(record.ExamNames)
	if err != nil {
		return errors.Wrapf(err, "failed to encode exam names for %s", record.ID)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin history tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
INSERT INTO quiz_history (id, user_id, created_at, total_questions, correct_count, score, time_taken_seconds, is_pass, exam_names)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.UserID, record.Timestamp, record.TotalQuestions, record.CorrectCount,
		record.Score, record.TimeTakenSeconds, record.IsPass, string(names),
	); err != nil {
		return errors.Wrapf(err, "failed to insert history record %s", record.ID)
	}
	if limit > 0 {
		if _, err := tx.Exec(ctx, `
DELETE FROM quiz_history WHERE user_id = $1 AND id NOT IN (
    SELECT id FROM quiz_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
)`, record.UserID, limit); err != nil {
			return errors.Wrapf(err, "failed to trim history for %s", record.UserID)
		}
	}
	return errors.Wrap(tx.Commit(ctx), "failed to commit history record")
}

func (s *HistoryStore) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	query := `
SELECT id, user_id, created_at, total_questions, correct_count, score, time_taken_seconds, is_pass, exam_names
FROM quiz_history WHERE user_id = $1 ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list history for %s", userID)
	}
	defer rows.Close()

	out := []domain.HistoryRecord{}
	for rows.Next() {
		var rec domain.HistoryRecord
		var names []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Timestamp, &rec.TotalQuestions, &rec.CorrectCount,
			&rec.Score, &rec.TimeTakenSeconds, &rec.IsPass, &names); err != nil {
			return nil, errors.Wrap(err, "failed to scan history record")
		}
		if err := json.Unmarshal(names, &rec.ExamNames); err != nil {
			return nil, errors.Wrapf(err, "failed to decode exam names for %s", rec.ID)
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "failed to list history")
}

func (s *HistoryStore) Delete(ctx context.Context, userID, recordID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quiz_history WHERE user_id = $1 AND id = $2`, userID, recordID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete history record %s", recordID)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHistoryNotFound
	}
	return nil
}

func (s *HistoryStore) Clear(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM quiz_history WHERE user_id = $1`, userID)
	return errors.Wrapf(err, "failed to clear history for %s", userID)
}
