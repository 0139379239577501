package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/assets"
	"buchhaltung/internal/cache"
	"buchhaltung/internal/depreciation"
	"buchhaltung/internal/ledger"
	"buchhaltung/internal/provisions"
	"buchhaltung/internal/reports"
	"buchhaltung/internal/storage"
	"buchhaltung/internal/storage/memory"
)

const cacheCleanupInterval = 5 * time.Minute

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store, seeds the chart of accounts and wires the
// services. The report cache is purged whenever the ledger posts.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	chart, err := accounts.LoadChart(config.ChartFile)
	if err != nil {
		return nil, fmt.Errorf("load chart of accounts: %w", err)
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	registry := accounts.NewRegistry(store)
	if _, err := registry.Seed(ctx, chart); err != nil {
		return nil, multierr.Append(err, store.Close())
	}

	b := &Backend{
		Store:      store,
		Accounts:   registry,
		Ledger:     ledger.NewService(store, ledger.WithEntryPrefix(config.EntryNumberPrefix)),
		Assets:     assets.NewService(store),
		Provisions: provisions.NewService(store),
	}

	engineOpts := []depreciation.Option{depreciation.WithWorkers(config.DepreciationWorkers)}
	if config.DepreciationPostLedger {
		engineOpts = append(engineOpts, depreciation.WithLedger(b.Ledger))
	}
	b.Engine = depreciation.NewEngine(store, engineOpts...)

	var reportOpts []reports.Option
	if config.ReportCacheTTL > 0 {
		reportCache := cache.NewLRUCache[any](config.ReportCacheSize, config.ReportCacheTTL)
		b.cacheManager = cache.NewManager()
		b.cacheManager.Register(reportCache)
		b.cacheManager.StartCleanup(cacheCleanupInterval)
		reportOpts = append(reportOpts, reports.WithCache(reportCache))
	}
	b.Reports = reports.NewGenerator(b.Ledger, store, reportOpts...)
	b.Ledger.Subscribe(b.Reports)
	b.Accounts.OnChange(b.Reports.AccountChanged)

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"accounts", len(chart),
		"post_depreciation", config.DepreciationPostLedger,
		"report_cache", config.ReportCacheTTL > 0)
	return b, nil
}

func (f *DefaultFactory) openStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL store")
		return repo, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory store, data is lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Close stops the cache cleanup and closes the store.
func (b *Backend) Close() error {
	if b.cacheManager != nil {
		b.cacheManager.Stop()
	}
	return b.Store.Close()
}
