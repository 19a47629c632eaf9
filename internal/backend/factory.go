package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payflow/internal/amqp"
	"payflow/internal/cache"
	"payflow/internal/core"
	"payflow/internal/sheets"
	gsheet "payflow/internal/sheets/google"
	"payflow/internal/sheets/memory"
	"payflow/internal/storage"
)

const cacheSweepInterval = 10 * time.Minute

// Factory opens backends from configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open connects SQLite and, when configured, AMQP and Redis. AMQP and Redis
// failures are logged and the backend continues without them.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	b := &Backend{Repo: repo}
	b.addCleanup(repo.Close)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			b.AMQP = client
			b.addCleanup(client.Close)
		}
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			f.logger.Warn("Failed to connect to Redis, caching reports in process", "error", err)
		} else {
			b.Redis = client
			b.addCleanup(client.Close)
		}
	}

	if b.Redis != nil {
		b.ReportCache = cache.NewRedisCache[core.Report](b.Redis, "payflow:report", cfg.ReportCacheTTL)
		b.CacheType = CacheRedis
	} else {
		size := cfg.ReportCacheSize
		if size <= 0 {
			size = defaultReportCacheSize
		}
		lru := cache.NewLRUCache[core.Report](size, cfg.ReportCacheTTL)
		b.Caches = cache.NewManager()
		b.Caches.Register(lru)
		b.Caches.StartCleanup(cacheSweepInterval)
		b.addCleanup(func() error {
			b.Caches.Stop()
			return nil
		})
		b.ReportCache = lru
		b.CacheType = CacheMemory
	}

	f.logger.Info("Initialized backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", b.AMQP != nil,
		"report_cache", b.CacheType.String())
	return b, nil
}

// OpenSheetWriter returns the Google Sheets writer, or an in-memory one
// when no spreadsheet is configured.
func (f *Factory) OpenSheetWriter(ctx context.Context, cfg Config) (sheets.ShiftWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, appending rows in memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets writer", "sheet", cfg.GoogleSheetName)
	return client, nil
}
