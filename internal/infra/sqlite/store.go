// Package sqlite keeps history and wrong-answer counts in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // driver: sqlite

	"exam-drill-service/internal/domain"
)

const defaultDSN = "file:exam-drill.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS quiz_history (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  correct_count INTEGER NOT NULL,
  score INTEGER NOT NULL,
  time_taken_seconds INTEGER NOT NULL,
  is_pass INTEGER NOT NULL,
  exam_names TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS quiz_history_user_idx ON quiz_history (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS wrong_answers (
  user_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  wrong_count INTEGER NOT NULL,
  PRIMARY KEY (user_id, question_id)
);
`

// Store implements both app.HistoryRepository and app.WrongAnswerRepository.
type Store struct {
	db *sql.DB
}

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create sqlite schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, record domain.HistoryRecord, limit int) error {
	names, err := json.Marshal(record.ExamNames)
	if err != nil {
		return errors.Wrapf(err, "failed to encode exam names for %s", record.ID)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin history tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
INSERT INTO quiz_history (id, user_id, created_at, total_questions, correct_count, score, time_taken_seconds, is_pass, exam_names)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.Timestamp.UnixMilli(), record.TotalQuestions, record.CorrectCount,
		record.Score, record.TimeTakenSeconds, record.IsPass, string(names),
	); err != nil {
		return errors.Wrapf(err, "failed to insert history record %s", record.ID)
	}
	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM quiz_history WHERE user_id = ? AND id NOT IN (
  SELECT id FROM quiz_history WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
)`, record.UserID, record.UserID, limit); err != nil {
			return errors.Wrapf(err, "failed to trim history for %s", record.UserID)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit history record")
}

func (s *Store) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, created_at, total_questions, correct_count, score, time_taken_seconds, is_pass, exam_names
FROM quiz_history WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list history for %s", userID)
	}
	defer rows.Close()

	out := []domain.HistoryRecord{}
	for rows.Next() {
		var (
			rec     domain.HistoryRecord
			created int64
			names   string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &created, &rec.TotalQuestions, &rec.CorrectCount,
			&rec.Score, &rec.TimeTakenSeconds, &rec.IsPass, &names); err != nil {
			return nil, errors.Wrap(err, "failed to scan history record")
		}
		rec.Timestamp = time.UnixMilli(created).UTC()
		if err := json.Unmarshal([]byte(names), &rec.ExamNames); err != nil {
			return nil, errors.Wrapf(err, "failed to decode exam names for %s", rec.ID)
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "failed to list history")
}

func (s *Store) Delete(ctx context.Context, userID, recordID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_history WHERE user_id = ? AND id = ?`, userID, recordID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete history record %s", recordID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrHistoryNotFound
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quiz_history WHERE user_id = ?`, userID)
	return errors.Wrapf(err, "failed to clear history for %s", userID)
}

func (s *Store) Increment(ctx context.Context, userID string, questionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin wrong answers tx")
	}
	defer tx.Rollback() //nolint:errcheck
	for _, id := range questionIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO wrong_answers (user_id, question_id, wrong_count) VALUES (?, ?, 1)
ON CONFLICT (user_id, question_id) DO UPDATE SET wrong_count = wrong_count + 1`, userID, id); err != nil {
			return errors.Wrapf(err, "failed to record wrong answer %s", id)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit wrong answers")
}

func (s *Store) Counts(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT question_id, wrong_count FROM wrong_answers WHERE user_id = ?`, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load wrong answers for %s", userID)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan wrong answer")
		}
		out[id] = n
	}
	return out, errors.Wrap(rows.Err(), "failed to load wrong answers")
}
