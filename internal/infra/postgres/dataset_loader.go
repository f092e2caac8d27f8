package postgres

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"exam-drill-service/internal/domain"
)

// DatasetLoader loads question banks stored as JSONB from Postgres.
type DatasetLoader struct {
	pool *pgxpool.Pool
}

func NewDatasetLoader(pool *pgxpool.Pool) *DatasetLoader {
	return &DatasetLoader{pool: pool}
}

func (l *DatasetLoader) LoadDataset(ctx context.Context, datasetID string) (domain.Dataset, error) {
	ds := domain.Dataset{ID: datasetID}
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT name, exam_code, revision, data FROM datasets WHERE id=$1`, datasetID,
	).Scan(&ds.Name, &ds.ExamCode, &ds.Revision, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Dataset{}, domain.ErrDatasetNotFound
	}
	if err != nil {
		return domain.Dataset{}, errors.Wrapf(err, "failed to load dataset %s", datasetID)
	}
	if err := json.Unmarshal(raw, &ds.Questions); err != nil {
		return domain.Dataset{}, errors.Wrapf(err, "failed to decode dataset %s", datasetID)
	}
	return ds, nil
}

// ListDatasets summarizes every stored dataset.
func (l *DatasetLoader) ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, name, exam_code, jsonb_array_length(data) FROM datasets ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list datasets")
	}
	defer rows.Close()

	var out []domain.DatasetSummary
	for rows.Next() {
		var s domain.DatasetSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.ExamCode, &s.QuestionCount); err != nil {
			return nil, errors.Wrap(err, "failed to scan dataset")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "failed to list datasets")
}
