// Package storage persists the accounting core. Store is implemented by the
// SQL repository in this package (SQLite and PostgreSQL) and by the in-memory
// store in storage/memory.
package storage

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

// Sequence names used with NextSequence.
const (
	SeqLedgerEntry = "ledger_entry"
	seqAssetPrefix = "asset_"
)

// AssetSequence names the per-year asset number sequence.
func AssetSequence(year int) string {
	return seqAssetPrefix + strconv.Itoa(year)
}

// InsertResult tags the outcome of TryInsertDepreciationEntry.
type InsertResult int

const (
	Inserted InsertResult = iota + 1
	AlreadyExists
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	}
	return "unknown"
}

type AccountStore interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	GetAccount(ctx context.Context, number string) (core.Account, error)
	// CreateAccount fails with a ConflictError when the number is taken.
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	// EnsureAccount inserts a if its number is unknown and reports whether it did.
	EnsureAccount(ctx context.Context, a core.Account) (bool, error)
	SetAccountActive(ctx context.Context, number string, active bool) error
	DeleteAccount(ctx context.Context, number string) error
	// AccountInUse reports whether any ledger entry or asset references number.
	AccountInUse(ctx context.Context, number string) (bool, error)
}

type LedgerStore interface {
	NextSequence(ctx context.Context, name string) (int64, error)
	InsertEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
	GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error)
	// FindReversal returns the storno of id, if one exists.
	FindReversal(ctx context.Context, id int64) (core.LedgerEntry, bool, error)
	// FindBySource returns the non-storno entry booked for a source reference.
	FindBySource(ctx context.Context, st core.SourceType, sourceID string) (core.LedgerEntry, bool, error)
	// QueryEntries returns matching entries newest first, honouring f.Limit.
	QueryEntries(ctx context.Context, f core.EntryFilter) ([]core.LedgerEntry, error)
	// LedgerWatermark returns the id of the newest committed entry, 0 for an
	// empty ledger. Entries are never deleted, so it only grows.
	LedgerWatermark(ctx context.Context) (int64, error)
}

type AssetStore interface {
	CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error)
	GetAsset(ctx context.Context, id int64) (core.Asset, error)
	// FindAssetBySource returns the asset registered for a source reference.
	FindAssetBySource(ctx context.Context, sourceID string) (core.Asset, bool, error)
	// ListAssets filters by status; the empty status lists every asset.
	ListAssets(ctx context.Context, status core.AssetStatus) ([]core.Asset, error)
	// ListDepreciable returns ACTIVE assets that are not fully depreciated.
	ListDepreciable(ctx context.Context) ([]core.Asset, error)
	UpdateAssetBookValue(ctx context.Context, id int64, bookValue decimal.Decimal, fullyDepreciated bool) error
	SetAssetStatus(ctx context.Context, id int64, status core.AssetStatus) error
	// TryInsertDepreciationEntry inserts d unless an entry for the same
	// (asset, year, month) exists. On AlreadyExists the stored entry is returned.
	TryInsertDepreciationEntry(ctx context.Context, d core.DepreciationEntry) (InsertResult, core.DepreciationEntry, error)
	LinkDepreciationEntry(ctx context.Context, id, ledgerEntryID int64) error
	ListDepreciationEntries(ctx context.Context, assetID int64) ([]core.DepreciationEntry, error)
}

// ProvisionFilter selects provisions. Zero fields do not filter.
type ProvisionFilter struct {
	Year    int
	MinYear int
	Type    core.ProvisionType
}

func (f ProvisionFilter) Matches(p core.Provision) bool {
	if f.Year != 0 && p.Year != f.Year {
		return false
	}
	if f.MinYear != 0 && p.Year < f.MinYear {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	return true
}

type ProvisionStore interface {
	CreateProvision(ctx context.Context, p core.Provision) (core.Provision, error)
	GetProvision(ctx context.Context, id int64) (core.Provision, error)
	ListProvisions(ctx context.Context, f ProvisionFilter) ([]core.Provision, error)
}

// Store is the full persistence surface of the accounting core.
type Store interface {
	AccountStore
	LedgerStore
	AssetStore
	ProvisionStore

	// InTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transactional view runs fn in the same transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
