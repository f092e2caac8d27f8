package cli

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"exam-drill-service/internal/config"
	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/infra/memory"
	redisstore "exam-drill-service/internal/infra/redis"
)

func bankRevision(rev, prompt string) domain.Dataset {
	return domain.Dataset{
		ID:       "saa-v1",
		Name:     "SAA v1",
		Revision: rev,
		Questions: []domain.RawQuestion{
			{Question: prompt, Options: []string{"A. one", "B. two"}, Answer: "A"},
		},
	}
}

func TestReimportServesNewRevision(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	// The store holds rev2 after the import; the server's cache still points at rev1.
	warm := redisstore.NewDatasetRepository(client, memory.NewStaticDatasetLoader(map[string]domain.Dataset{
		"saa-v1": bankRevision("rev1", "old"),
	}), time.Minute)
	if _, err := warm.GetDataset(ctx, "saa-v1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	server := redisstore.NewDatasetRepository(client, memory.NewStaticDatasetLoader(map[string]domain.Dataset{
		"saa-v1": bankRevision("rev2", "new"),
	}), time.Minute)
	if ds, _ := server.GetDataset(ctx, "saa-v1"); ds.Revision != "rev1" {
		t.Fatalf("expected cached rev1 before invalidation, got %s", ds.Revision)
	}

	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	if err := invalidateCachedDataset(ctx, cfg, "saa-v1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	ds, err := server.GetDataset(ctx, "saa-v1")
	if err != nil {
		t.Fatalf("get dataset: %v", err)
	}
	if ds.Revision != "rev2" || ds.Questions[0].Question != "new" {
		t.Fatalf("expected rev2 after re-import, got revision=%s prompt=%q", ds.Revision, ds.Questions[0].Question)
	}
}

func TestInvalidateWithoutRedisIsNoop(t *testing.T) {
	if err := invalidateCachedDataset(context.Background(), config.Default(), "saa-v1"); err != nil {
		t.Fatalf("expected no-op without redis, got %v", err)
	}
}
