package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/infra/memory"
)

// DatasetRepository caches datasets in Redis and falls back to a loader on cache miss.
// The current revision is stored as:   SET dataset:{id}:rev {revision}
// Payloads are stored per revision as: SET dataset:{id}:{revision} {json}
// The import command deletes the revision pointer, so the next read loads the
// new revision instead of serving the old payload until the TTL runs out.
type DatasetRepository struct {
	client *redis.Client
	loader memory.DatasetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewDatasetRepository(client *redis.Client, loader memory.DatasetLoader, ttl time.Duration) *DatasetRepository {
	return &DatasetRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DatasetRepository) GetDataset(ctx context.Context, datasetID string) (domain.Dataset, error) {
	if ds, ok := r.cached(ctx, datasetID); ok {
		return ds, nil
	}

	result, err, _ := r.sf.Do(datasetID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if ds, ok := r.cached(ctx, datasetID); ok {
			return ds, nil
		}

		ds, err := r.loader.LoadDataset(ctx, datasetID)
		if err != nil {
			return domain.Dataset{}, err
		}
		r.store(ctx, ds)
		return ds, nil
	})
	if err != nil {
		return domain.Dataset{}, err
	}
	return result.(domain.Dataset), nil
}

// Invalidate drops the revision pointer so the next read reloads.
func (r *DatasetRepository) Invalidate(ctx context.Context, datasetID string) error {
	return errors.Wrapf(r.client.Del(ctx, r.revisionKey(datasetID)).Err(), "failed to invalidate dataset %s", datasetID)
}

func (r *DatasetRepository) cached(ctx context.Context, datasetID string) (domain.Dataset, bool) {
	rev, err := r.client.Get(ctx, r.revisionKey(datasetID)).Result()
	if err != nil {
		return domain.Dataset{}, false
	}
	payload, err := r.client.Get(ctx, r.payloadKey(datasetID, rev)).Bytes()
	if err != nil {
		return domain.Dataset{}, false
	}
	var ds domain.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return domain.Dataset{}, false
	}
	return ds, true
}

// store is best effort; a failed write only costs a reload.
func (r *DatasetRepository) store(ctx context.Context, ds domain.Dataset) {
	payload, err := json.Marshal(ds)
	if err != nil {
		return
	}
	ttl := r.ttlWithJitter()
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.payloadKey(ds.ID, ds.Revision), payload, ttl)
	pipe.Set(ctx, r.revisionKey(ds.ID), ds.Revision, ttl)
	_, _ = pipe.Exec(ctx)
}

func (r *DatasetRepository) revisionKey(datasetID string) string {
	return "dataset:" + datasetID + ":rev"
}

func (r *DatasetRepository) payloadKey(datasetID, revision string) string {
	return "dataset:" + datasetID + ":" + revision
}

func (r *DatasetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
