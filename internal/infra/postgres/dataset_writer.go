package postgres

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"exam-drill-service/internal/domain"
)

type datasetRow struct {
	bun.BaseModel `bun:"table:datasets"`

	ID        string               `bun:"id,pk"`
	Name      string               `bun:"name"`
	ExamCode  string               `bun:"exam_code"`
	Revision  string               `bun:"revision"`
	Data      []domain.RawQuestion `bun:"data,type:jsonb"`
	UpdatedAt time.Time            `bun:"updated_at"`
}

// DatasetWriter upserts question banks through bun.
type DatasetWriter struct {
	db  *bun.DB
	now func() time.Time
}

func NewDatasetWriter(db *bun.DB) *DatasetWriter {
	return &DatasetWriter{db: db, now: time.Now}
}

// Upsert stores ds, replacing any dataset with the same id.
func (w *DatasetWriter) Upsert(ctx context.Context, ds domain.Dataset) error {
	row := &datasetRow{
		ID:        ds.ID,
		Name:      ds.Name,
		ExamCode:  ds.ExamCode,
		Revision:  ds.Revision,
		Data:      ds.Questions,
		UpdatedAt: w.now(),
	}
	_, err := w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("exam_code = EXCLUDED.exam_code").
		Set("revision = EXCLUDED.revision").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.Wrapf(err, "failed to upsert dataset %s", ds.ID)
}
