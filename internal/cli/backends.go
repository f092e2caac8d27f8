package cli

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/config"
	"exam-drill-service/internal/domain"
	fsloader "exam-drill-service/internal/infra/fs"
	"exam-drill-service/internal/infra/memory"
	"exam-drill-service/internal/infra/postgres"
	redisstore "exam-drill-service/internal/infra/redis"
	"exam-drill-service/internal/infra/sqlite"
	"exam-drill-service/internal/input"
)

// loadConfig falls back to defaults when the file does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}

// backends holds the external connections a process opened.
type backends struct {
	redis  *redis.Client
	pool   *pgxpool.Pool
	sqlite *sqlite.Store
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, multierror.Append(err, b.Close()).ErrorOrNil()
		}
		b.pool = pool
	}
	if cfg.SQLite.Path != "" {
		store, err := sqlite.Open(ctx, "file:"+cfg.SQLite.Path+"?_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, multierror.Append(err, b.Close()).ErrorOrNil()
		}
		b.sqlite = store
	}
	return b, nil
}

// Close releases every connection and reports all failures together.
func (b *backends) Close() error {
	var result *multierror.Error
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if b.sqlite != nil {
		if err := b.sqlite.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type datasetSource interface {
	memory.DatasetLoader
	app.DatasetLister
}

// datasetSource prefers postgres, then a directory of JSON files, then the
// built-in sample bank.
func (b *backends) datasetSource(cfg config.Config) datasetSource {
	switch {
	case b.pool != nil:
		return postgres.NewDatasetLoader(b.pool)
	case cfg.Datasets.Dir != "":
		return fsloader.NewDatasetLoader(cfg.Datasets.Dir)
	default:
		return memory.NewStaticDatasetLoader(sampleDatasets())
	}
}

func (b *backends) deps(cfg config.Config) app.Deps {
	source := b.datasetSource(cfg)
	datasetTTL := config.TTLDuration(cfg.Datasets.TTL, 10*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	deps := app.Deps{Listing: source, Catalog: cfg.Exams}
	if b.redis != nil {
		deps.Datasets = redisstore.NewDatasetRepository(b.redis, source, datasetTTL)
		deps.Sessions = redisstore.NewSessionStore(b.redis, redisTTL)
	} else {
		deps.Datasets = memory.NewDatasetRepository(source, datasetTTL)
		deps.Sessions = memory.NewSessionStore()
	}

	switch {
	case b.pool != nil:
		deps.History = postgres.NewHistoryStore(b.pool)
	case b.sqlite != nil:
		deps.History = b.sqlite
	case b.redis != nil:
		deps.History = redisstore.NewHistoryStore(b.redis)
	default:
		deps.History = memory.NewHistoryStore()
	}

	switch {
	case b.sqlite != nil:
		deps.WrongAnswers = b.sqlite
	case b.redis != nil:
		deps.WrongAnswers = redisstore.NewWrongAnswerStore(b.redis)
	default:
		deps.WrongAnswers = memory.NewWrongAnswerStore()
	}
	return deps
}

func settingsFromConfig(cfg config.Config) app.Settings {
	s := app.DefaultSettings()
	s.PassMark = cfg.Quiz.PassMark
	s.HistoryLimit = cfg.Quiz.HistoryLimit
	s.DefaultTimeLimitMinutes = cfg.Quiz.DefaultTimeLimitMinutes
	s.DefaultQuestionCount = cfg.Quiz.DefaultQuestionCount
	s.SkipIntro = cfg.Quiz.SkipIntro
	return s
}

func gesturesFromConfig(cfg config.Config) input.Config {
	g := cfg.Gestures
	return input.Config{
		WheelThreshold:       g.WheelThreshold,
		WheelCooldown:        config.TTLDuration(g.WheelCooldown, 600*time.Millisecond),
		SwipeThreshold:       g.SwipeThreshold,
		BoundaryTolerance:    g.BoundaryTolerance,
		HorizontalResistance: g.HorizontalResistance,
		VerticalResistance:   g.VerticalResistance,
	}
}

// sampleDatasets is served when neither postgres nor a dataset directory is configured.
func sampleDatasets() map[string]domain.Dataset {
	return map[string]domain.Dataset{
		"sample": {
			ID:       "sample",
			Name:     "Sample questions",
			ExamCode: "SAMPLE",
			Questions: []domain.RawQuestion{
				{
					Question:    "Which service stores objects durably across Availability Zones?",
					Options:     []string{"A. Amazon EBS", "B. Amazon S3", "C. Instance store", "D. Amazon EFS One Zone"},
					Answer:      "B",
					Explanation: "S3 Standard replicates objects across at least three AZs.",
				},
				{
					Question:    "Which TWO services are serverless compute options? (Select TWO)",
					Options:     []string{"A. AWS Lambda", "B. Amazon EC2", "C. AWS Fargate", "D. Amazon Lightsail"},
					Answer:      []any{"A", "C"},
					Explanation: "Lambda and Fargate run code without managing servers.",
				},
				{
					Question:    "Which service provides a managed relational database?",
					Options:     []string{"A. Amazon DynamoDB", "B. Amazon RDS", "C. Amazon Redshift Spectrum"},
					Answer:      "B",
					Explanation: "RDS manages MySQL, PostgreSQL and other engines.",
				},
			},
		},
	}
}
