package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

const cacheSweepInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromSlog(nil, log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. On error everything opened
// so far is closed again.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (_ *BackendResult, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = cleanup()
		}
	}()

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	closers = append(closers, repo.Close)

	store, closeCache, err := f.createCache(ctx, config)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeCache)

	b := &Backend{Repository: repo, Cache: store}

	opts := services.TransactionOptions{
		OwnerID: config.OwnerID,
		TTL:     config.CacheTTL,
		Logger:  f.logger.WithComponent(log.ComponentTransactions),
	}

	// AMQP is optional; a broker outage at startup only disables events.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			b.Events = client
			opts.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	b.Transactions = services.NewTransactionService(repo, store, opts)
	b.Reports = services.NewReportService(repo, config.OwnerID, f.logger.WithComponent(log.ComponentReports), nil)

	f.logger.Info("Initialized backend",
		"db_path", config.SQLiteDBPath,
		"cache", config.CacheType,
		"events_enabled", b.Events != nil)

	return &BackendResult{Backend: b, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) createCache(ctx context.Context, config Config) (cache.Store, func() error, error) {
	switch config.CacheType {
	case RedisCache:
		store, err := cache.NewRedisStore(ctx, config.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
		f.logger.Info("Initialized Redis cache")
		return store, store.Close, nil
	default:
		store := cache.NewMemoryStore(config.CacheMaxEntries, config.CacheTTL)
		manager := cache.NewManager(f.logger.WithComponent(log.ComponentCache).Logger)
		manager.Register(store)
		manager.StartCleanup(cacheSweepInterval)
		f.logger.Info("Initialized in-memory cache", "max_entries", config.CacheMaxEntries)
		return store, func() error {
			manager.Stop()
			return nil
		}, nil
	}
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (sheets.LedgerMirror, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Google Sheets client initialized", "spreadsheet_id", config.GoogleSpreadsheetID)
	return client, nil
}

// Ping checks the dependencies readiness depends on.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.Repository.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if p, ok := b.Cache.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}
