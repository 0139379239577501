// Package backend assembles the accounting core on the configured store.
// Every binary builds its services through CreateBackend.
package backend

import (
	"context"
	"time"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/assets"
	"buchhaltung/internal/cache"
	"buchhaltung/internal/depreciation"
	"buchhaltung/internal/ledger"
	"buchhaltung/internal/provisions"
	"buchhaltung/internal/reports"
	"buchhaltung/internal/storage"
)

// Backend bundles the store and the services operating on it.
type Backend struct {
	Store      storage.Store
	Accounts   *accounts.Registry
	Ledger     *ledger.Service
	Assets     *assets.Service
	Provisions *provisions.Service
	Engine     *depreciation.Engine
	Reports    *reports.Generator

	cacheManager *cache.Manager
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	ChartFile         string
	EntryNumberPrefix string

	DepreciationWorkers    int
	DepreciationPostLedger bool

	ReportCacheTTL  time.Duration
	ReportCacheSize int
}

// BackendType names the storage driver.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
