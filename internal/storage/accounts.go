package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buchhaltung/internal/core"
)

const accountColumns = `number, name, type, category, is_active, created_at`

func scanAccount(s rowScanner) (core.Account, error) {
	var (
		a       core.Account
		created sqlTime
	)
	err := s.Scan(&a.Number, &a.Name, &a.Type, &a.Category, &a.IsActive, &created)
	a.CreatedAt = created.Time
	return a, err
}

func (r *SQLRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLRepository) GetAccount(ctx context.Context, number string) (core.Account, error) {
	a, err := scanAccount(r.queries.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, &core.NotFoundError{Entity: "account", Key: number}
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", number, err)
	}
	return a, nil
}

func (r *SQLRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	_, err := r.queries.exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Number, a.Name, a.Type, a.Category, a.IsActive, r.queries.timestamp(a.CreatedAt))
	if isUniqueViolation(err) {
		return core.Account{}, &core.ConflictError{Entity: "account", Key: a.Number, Reason: "account number already exists"}
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("create account %s: %w", a.Number, err)
	}
	return a, nil
}

func (r *SQLRepository) EnsureAccount(ctx context.Context, a core.Account) (bool, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	res, err := r.queries.exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (number) DO NOTHING`,
		a.Number, a.Name, a.Type, a.Category, a.IsActive, r.queries.timestamp(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("ensure account %s: %w", a.Number, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure account %s: %w", a.Number, err)
	}
	return n > 0, nil
}

func (r *SQLRepository) SetAccountActive(ctx context.Context, number string, active bool) error {
	res, err := r.queries.exec(ctx, `UPDATE accounts SET is_active = ? WHERE number = ?`, active, number)
	if err != nil {
		return fmt.Errorf("update account %s: %w", number, err)
	}
	return requireOne(res, "account", number)
}

func (r *SQLRepository) DeleteAccount(ctx context.Context, number string) error {
	res, err := r.queries.exec(ctx, `DELETE FROM accounts WHERE number = ?`, number)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", number, err)
	}
	return requireOne(res, "account", number)
}

func (r *SQLRepository) AccountInUse(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.queries.queryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ledger_entries WHERE debit_account = ? OR credit_account = ?) +
			(SELECT COUNT(*) FROM assets WHERE account_number = ?)`,
		number, number, number).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count account references %s: %w", number, err)
	}
	return n > 0, nil
}

func requireOne(res sql.Result, entity, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: entity, Key: key}
	}
	return nil
}
