// Package app builds the shared dependencies used by the server and the CLI.
package app

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/config"
	"github.com/xavierca1/ligue-callbridge/internal/entity"
	"github.com/xavierca1/ligue-callbridge/internal/infra/database"
	"github.com/xavierca1/ligue-callbridge/internal/infra/integration/anthropic"
	"github.com/xavierca1/ligue-callbridge/internal/infra/integration/openai"
	"github.com/xavierca1/ligue-callbridge/internal/resilience"
	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

// LeadStore is the durable lead table regardless of driver.
type LeadStore interface {
	entity.LeadRepositoryInterface
	entity.LeadStatsRepository
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// OpenStore connects to the configured driver and migrates the schema.
// The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config) (LeadStore, func(), error) {
	var (
		store   LeadStore
		release func()
	)

	switch cfg.Store.Driver {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "open postgres")
		}
		store, release = database.NewLeadRepository(pool), pool.Close
	case "sqlite":
		db, err := database.NewSQLiteConnection(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "open sqlite")
		}
		store, release = database.NewSQLiteLeadRepository(db), func() { db.Close() }
	default:
		return nil, nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := store.Migrate(ctx); err != nil {
		release()
		return nil, nil, eris.Wrap(err, "migrate leads table")
	}

	zap.L().Info("lead store ready", zap.String("driver", cfg.Store.Driver))
	return store, release, nil
}

// NewExtractor picks the completion backend. ready is false when no API key
// is set; the extractor then always yields empty records.
func NewExtractor(cfg *config.Config, recorder usecase.Recorder) (extractor *usecase.LeadExtractor, ready bool) {
	var (
		client usecase.CompletionClient
		model  = cfg.Extraction.Model
	)

	switch cfg.Extraction.Provider {
	case "anthropic":
		if cfg.Anthropic.APIKey != "" {
			client = anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL)
		}
		if model == "" {
			model = anthropic.DefaultModel
		}
	default:
		if cfg.OpenAI.APIKey != "" {
			client = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
		}
	}

	if client == nil {
		zap.L().Warn("no extraction api key configured, leads will be stored without extracted fields",
			zap.String("provider", cfg.Extraction.Provider))
	}

	timeout := time.Duration(cfg.Extraction.TimeoutSecs) * time.Second
	return usecase.NewLeadExtractor(client, model, timeout, recorder), client != nil
}

func IntakePolicy(cfg *config.Config) usecase.IntakePolicy {
	return usecase.IntakePolicy{
		MinDurationSecs: cfg.Intake.MinDurationSecs,
		MaxNoiseTurns:   cfg.Intake.MaxNoiseTurns,
	}
}

// insertBudget covers the insert attempts themselves on top of the backoff.
const insertBudget = 15 * time.Second

func RetryConfig(cfg *config.Config) resilience.RetryConfig {
	return resilience.FromRetryConfig(cfg.Persist.MaxAttempts, cfg.Persist.InitialBackoffMs, cfg.Persist.MaxBackoffMs)
}

// DrainTimeout is how long shutdown waits for accepted calls. It never drops
// below one worst-case job: a full extraction, every retry delay and the
// insert attempts.
func DrainTimeout(cfg *config.Config) time.Duration {
	worst := time.Duration(cfg.Extraction.TimeoutSecs)*time.Second +
		resilience.MaxTotalDelay(RetryConfig(cfg)) +
		insertBudget

	if configured := time.Duration(cfg.Shutdown.DrainSecs) * time.Second; configured > worst {
		return configured
	}
	return worst
}
