package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

const assetColumns = `id, asset_number, name, category, account_number, acquisition_date,
	acquisition_cost, useful_life, depreciation_method, residual_value,
	annual_depreciation, book_value, status, fully_depreciated, source_id, created_at`

const depreciationColumns = `id, asset_id, year, month, amount, book_value, ledger_entry_id, notes, created_at`

func scanAsset(s rowScanner) (core.Asset, error) {
	var (
		a                 core.Asset
		source            sql.NullString
		acquired, created sqlTime
	)
	err := s.Scan(&a.ID, &a.AssetNumber, &a.Name, &a.Category, &a.AccountNumber, &acquired,
		&a.AcquisitionCost, &a.UsefulLife, &a.DepreciationMethod, &a.ResidualValue,
		&a.AnnualDepreciation, &a.BookValue, &a.Status, &a.FullyDepreciated, &source, &created)
	a.SourceID = source.String
	a.AcquisitionDate = acquired.Time
	a.CreatedAt = created.Time
	return a, err
}

func scanDepreciation(s rowScanner) (core.DepreciationEntry, error) {
	var (
		d       core.DepreciationEntry
		ledger  sql.NullInt64
		created sqlTime
	)
	err := s.Scan(&d.ID, &d.AssetID, &d.Year, &d.Month, &d.Amount, &d.BookValue, &ledger, &d.Notes, &created)
	if ledger.Valid {
		id := ledger.Int64
		d.LedgerEntryID = &id
	}
	d.CreatedAt = created.Time
	return d, err
}

func (r *SQLRepository) CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	err := r.queries.queryRow(ctx, `
		INSERT INTO assets (asset_number, name, category, account_number, acquisition_date,
			acquisition_cost, useful_life, depreciation_method, residual_value,
			annual_depreciation, book_value, status, fully_depreciated, source_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.AssetNumber, a.Name, a.Category, a.AccountNumber, date(a.AcquisitionDate),
		a.AcquisitionCost, a.UsefulLife, a.DepreciationMethod, a.ResidualValue,
		a.AnnualDepreciation, a.BookValue, a.Status, a.FullyDepreciated, nullString(a.SourceID),
		r.queries.timestamp(a.CreatedAt)).Scan(&a.ID)
	if isUniqueViolation(err) {
		return core.Asset{}, &core.ConflictError{Entity: "asset", Key: a.AssetNumber, Reason: "asset number or source reference already registered"}
	}
	if err != nil {
		return core.Asset{}, fmt.Errorf("create asset %s: %w", a.AssetNumber, err)
	}
	a.AcquisitionDate = core.DateOf(a.AcquisitionDate)
	return a, nil
}

func (r *SQLRepository) GetAsset(ctx context.Context, id int64) (core.Asset, error) {
	a, err := scanAsset(r.queries.queryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Asset{}, &core.NotFoundError{Entity: "asset", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return core.Asset{}, fmt.Errorf("get asset %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLRepository) FindAssetBySource(ctx context.Context, sourceID string) (core.Asset, bool, error) {
	a, err := scanAsset(r.queries.queryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE source_id = ?`, sourceID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Asset{}, false, nil
	}
	if err != nil {
		return core.Asset{}, false, fmt.Errorf("find asset by source %s: %w", sourceID, err)
	}
	return a, true, nil
}

func (r *SQLRepository) ListAssets(ctx context.Context, status core.AssetStatus) ([]core.Asset, error) {
	if status == "" {
		return r.listAssets(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY id`)
	}
	return r.listAssets(ctx, `SELECT `+assetColumns+` FROM assets WHERE status = ? ORDER BY id`, status)
}

func (r *SQLRepository) ListDepreciable(ctx context.Context) ([]core.Asset, error) {
	return r.listAssets(ctx, `SELECT `+assetColumns+` FROM assets
		WHERE status = ? AND fully_depreciated = ? ORDER BY id`, core.AssetActive, false)
}

func (r *SQLRepository) listAssets(ctx context.Context, query string, args ...interface{}) ([]core.Asset, error) {
	rows, err := r.queries.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *SQLRepository) UpdateAssetBookValue(ctx context.Context, id int64, bookValue decimal.Decimal, fullyDepreciated bool) error {
	res, err := r.queries.exec(ctx, `UPDATE assets SET book_value = ?, fully_depreciated = ? WHERE id = ?`,
		bookValue, fullyDepreciated, id)
	if err != nil {
		return fmt.Errorf("update asset %d book value: %w", id, err)
	}
	return requireOne(res, "asset", strconv.FormatInt(id, 10))
}

func (r *SQLRepository) SetAssetStatus(ctx context.Context, id int64, status core.AssetStatus) error {
	res, err := r.queries.exec(ctx, `UPDATE assets SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update asset %d status: %w", id, err)
	}
	return requireOne(res, "asset", strconv.FormatInt(id, 10))
}

func (r *SQLRepository) TryInsertDepreciationEntry(ctx context.Context, d core.DepreciationEntry) (InsertResult, core.DepreciationEntry, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now().UTC()
	}
	err := r.queries.queryRow(ctx, `
		INSERT INTO depreciation_entries (asset_id, year, month, amount, book_value, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (asset_id, year, month) DO NOTHING
		RETURNING id`,
		d.AssetID, d.Year, d.Month, d.Amount, d.BookValue, d.Notes, r.queries.timestamp(d.CreatedAt)).Scan(&d.ID)
	switch {
	case err == nil:
		return Inserted, d, nil
	case errors.Is(err, sql.ErrNoRows):
		existing, err := scanDepreciation(r.queries.queryRow(ctx, `SELECT `+depreciationColumns+`
			FROM depreciation_entries WHERE asset_id = ? AND year = ? AND month = ?`, d.AssetID, d.Year, d.Month))
		if err != nil {
			return 0, core.DepreciationEntry{}, fmt.Errorf("load existing depreciation entry: %w", err)
		}
		return AlreadyExists, existing, nil
	default:
		return 0, core.DepreciationEntry{}, fmt.Errorf("insert depreciation entry asset=%d %04d-%02d: %w", d.AssetID, d.Year, d.Month, err)
	}
}

func (r *SQLRepository) LinkDepreciationEntry(ctx context.Context, id, ledgerEntryID int64) error {
	res, err := r.queries.exec(ctx, `UPDATE depreciation_entries SET ledger_entry_id = ? WHERE id = ?`, ledgerEntryID, id)
	if err != nil {
		return fmt.Errorf("link depreciation entry %d: %w", id, err)
	}
	return requireOne(res, "depreciation entry", strconv.FormatInt(id, 10))
}

func (r *SQLRepository) ListDepreciationEntries(ctx context.Context, assetID int64) ([]core.DepreciationEntry, error) {
	rows, err := r.queries.query(ctx, `SELECT `+depreciationColumns+`
		FROM depreciation_entries WHERE asset_id = ? ORDER BY year, month`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list depreciation entries: %w", err)
	}
	defer rows.Close()

	var entries []core.DepreciationEntry
	for rows.Next() {
		d, err := scanDepreciation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan depreciation entry: %w", err)
		}
		entries = append(entries, d)
	}
	return entries, rows.Err()
}
