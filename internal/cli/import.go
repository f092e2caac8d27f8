package cli

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"exam-drill-service/internal/bank"
	"exam-drill-service/internal/config"
	"exam-drill-service/internal/infra/postgres"
	redisstore "exam-drill-service/internal/infra/redis"
)

type importOptions struct {
	file     string
	id       string
	name     string
	examCode string
}

// NewImportCmd loads a dataset JSON file into postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a question bank JSON file into postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "path to the dataset JSON file")
	cmd.Flags().StringVar(&opts.id, "id", "", "dataset id (defaults to the file name)")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.examCode, "exam", "", "exam code the dataset belongs to")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, configPath string, opts importOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(opts.file)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", opts.file)
	}
	id := opts.id
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(opts.file), filepath.Ext(opts.file))
	}
	ds, err := bank.Parse(id, opts.name, raw)
	if err != nil {
		return err
	}
	if opts.examCode != "" {
		ds.ExamCode = opts.examCode
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.NewDatasetWriter(db).Upsert(ctx, ds); err != nil {
		return err
	}
	if err := invalidateCachedDataset(ctx, cfg, ds.ID); err != nil {
		return err
	}
	log.Printf("imported dataset %s (%d questions, revision %s)", ds.ID, len(ds.Questions), ds.Revision)
	return nil
}

// invalidateCachedDataset drops the shared cache's revision pointer so running
// servers load the imported revision on their next read.
func invalidateCachedDataset(ctx context.Context, cfg config.Config, datasetID string) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ttl := config.TTLDuration(cfg.Datasets.TTL, 10*time.Minute)
	return redisstore.NewDatasetRepository(client, nil, ttl).Invalidate(ctx, datasetID)
}
