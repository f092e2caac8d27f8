package bank

import (
	"bytes"
	"encoding/hex"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"exam-drill-service/internal/domain"
)

// Fingerprint is the revision of a dataset payload.
func Fingerprint(raw []byte) string {
	sum := xxh3.Hash128(raw).Bytes()
	return hex.EncodeToString(sum[:])
}

// Parse decodes a dataset file. Both a bare array of questions and an object
// with a "questions" field are accepted.
func Parse(id, name string, raw []byte) (domain.Dataset, error) {
	ds := domain.Dataset{ID: id, Name: name, Revision: Fingerprint(raw)}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &ds.Questions); err != nil {
			return domain.Dataset{}, errors.Wrapf(err, "failed to decode dataset %s", id)
		}
		return ds, nil
	}

	var doc domain.Dataset
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return domain.Dataset{}, errors.Wrapf(err, "failed to decode dataset %s", id)
	}
	ds.Questions = doc.Questions
	if doc.Name != "" && name == "" {
		ds.Name = doc.Name
	}
	ds.ExamCode = doc.ExamCode
	return ds, nil
}
