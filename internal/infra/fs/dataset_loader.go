// Package fs loads question banks from a directory of JSON files.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"exam-drill-service/internal/bank"
	"exam-drill-service/internal/domain"
)

// DatasetLoader reads <dir>/<datasetID>.json.
type DatasetLoader struct {
	dir string
}

func NewDatasetLoader(dir string) *DatasetLoader {
	return &DatasetLoader{dir: dir}
}

func (l *DatasetLoader) LoadDataset(_ context.Context, datasetID string) (domain.Dataset, error) {
	if datasetID == "" || strings.ContainsAny(datasetID, `/\`) || strings.HasPrefix(datasetID, ".") {
		return domain.Dataset{}, domain.ErrDatasetNotFound
	}
	raw, err := os.ReadFile(filepath.Join(l.dir, datasetID+".json"))
	if os.IsNotExist(err) {
		return domain.Dataset{}, domain.ErrDatasetNotFound
	}
	if err != nil {
		return domain.Dataset{}, errors.Wrapf(err, "failed to read dataset %s", datasetID)
	}
	return bank.Parse(datasetID, "", raw)
}

// ListDatasets summarizes every dataset file in the directory.
func (l *DatasetLoader) ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset dir %s", l.dir)
	}
	var out []domain.DatasetSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ds, err := l.LoadDataset(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if ds.Name == "" {
			ds.Name = ds.ID
		}
		out = append(out, ds.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
