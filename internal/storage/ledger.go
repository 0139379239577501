package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

const entryColumns = `id, entry_number, booking_date, debit_account, credit_account, amount,
	vat_rate, vat_amount, net_amount, description, source_type, source_id,
	is_storno, reverses_id, created_at`

func scanEntry(s rowScanner) (core.LedgerEntry, error) {
	var (
		e                core.LedgerEntry
		booking, created sqlTime
		rate, vat, net   decimal.NullDecimal
		sourceID         sql.NullString
		reverses         sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.EntryNumber, &booking, &e.DebitAccount, &e.CreditAccount, &e.Amount,
		&rate, &vat, &net, &e.Description, &e.SourceType, &sourceID,
		&e.IsStorno, &reverses, &created)
	if err != nil {
		return e, err
	}
	e.BookingDate = booking.Time
	e.CreatedAt = created.Time
	e.VATRate, e.VATAmount, e.NetAmount = decimalPtr(rate), decimalPtr(vat), decimalPtr(net)
	e.SourceID = sourceID.String
	if reverses.Valid {
		id := reverses.Int64
		e.ReversesID = &id
	}
	return e, nil
}

func (r *SQLRepository) NextSequence(ctx context.Context, name string) (int64, error) {
	var v int64
	err := r.queries.queryRow(ctx, `
		INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return v, nil
}

func (r *SQLRepository) InsertEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	var reverses sql.NullInt64
	if e.ReversesID != nil {
		reverses = sql.NullInt64{Int64: *e.ReversesID, Valid: true}
	}
	err := r.queries.queryRow(ctx, `
		INSERT INTO ledger_entries (entry_number, booking_date, debit_account, credit_account, amount,
			vat_rate, vat_amount, net_amount, description, source_type, source_id,
			is_storno, reverses_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		e.EntryNumber, date(e.BookingDate), e.DebitAccount, e.CreditAccount, e.Amount,
		nullDecimal(e.VATRate), nullDecimal(e.VATAmount), nullDecimal(e.NetAmount),
		e.Description, e.SourceType, nullString(e.SourceID),
		e.IsStorno, reverses, r.queries.timestamp(e.CreatedAt)).Scan(&e.ID)
	if isUniqueViolation(err) {
		return core.LedgerEntry{}, &core.ConflictError{Entity: "ledger entry", Key: e.EntryNumber, Reason: "entry number, source reference or reversal already booked"}
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert ledger entry %s: %w", e.EntryNumber, err)
	}
	e.BookingDate = core.DateOf(e.BookingDate)
	return e, nil
}

func (r *SQLRepository) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	e, err := scanEntry(r.queries.queryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, &core.NotFoundError{Entity: "ledger entry", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get ledger entry %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLRepository) FindReversal(ctx context.Context, id int64) (core.LedgerEntry, bool, error) {
	return r.findOne(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE reverses_id = ?`, id)
}

func (r *SQLRepository) FindBySource(ctx context.Context, st core.SourceType, sourceID string) (core.LedgerEntry, bool, error) {
	return r.findOne(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE source_type = ? AND source_id = ? AND is_storno = ?`, st, sourceID, false)
}

func (r *SQLRepository) findOne(ctx context.Context, query string, args ...interface{}) (core.LedgerEntry, bool, error) {
	e, err := scanEntry(r.queries.queryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, false, nil
	}
	if err != nil {
		return core.LedgerEntry{}, false, fmt.Errorf("find ledger entry: %w", err)
	}
	return e, true, nil
}

func (r *SQLRepository) QueryEntries(ctx context.Context, f core.EntryFilter) ([]core.LedgerEntry, error) {
	where, args := entryWhere(f)
	query := `SELECT ` + entryColumns + ` FROM ledger_entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY booking_date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := r.queries.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLRepository) LedgerWatermark(ctx context.Context) (int64, error) {
	var mark int64
	if err := r.queries.queryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM ledger_entries`).Scan(&mark); err != nil {
		return 0, fmt.Errorf("ledger watermark: %w", err)
	}
	return mark, nil
}

func entryWhere(f core.EntryFilter) ([]string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, a ...interface{}) {
		where = append(where, clause)
		args = append(args, a...)
	}
	if !f.From.IsZero() {
		add(`booking_date >= ?`, date(f.From))
	}
	if !f.To.IsZero() {
		add(`booking_date <= ?`, date(f.To))
	}
	if f.AccountFrom != "" || f.AccountTo != "" {
		lo, hi := f.AccountFrom, f.AccountTo
		if lo == "" {
			lo = "0000"
		}
		if hi == "" {
			hi = "9999"
		}
		add(`((debit_account >= ? AND debit_account <= ?) OR (credit_account >= ? AND credit_account <= ?))`, lo, hi, lo, hi)
	}
	if f.MinAmount != nil {
		add(`CAST(amount AS NUMERIC) >= CAST(? AS NUMERIC)`, f.MinAmount.String())
	}
	if f.MaxAmount != nil {
		add(`CAST(amount AS NUMERIC) <= CAST(? AS NUMERIC)`, f.MaxAmount.String())
	}
	if f.SourceType != "" {
		add(`source_type = ?`, f.SourceType)
	}
	if f.SourceID != "" {
		add(`source_id = ?`, f.SourceID)
	}
	if f.Storno != nil {
		add(`is_storno = ?`, *f.Storno)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		like := "%" + escapeLike(q) + "%"
		add(`(LOWER(entry_number) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR debit_account LIKE ? ESCAPE '\' OR credit_account LIKE ? ESCAPE '\')`,
			like, like, like, like)
	}
	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
