// Package accounts is the chart of accounts registry.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

// Query filters List. Zero fields do not filter.
type Query struct {
	Search string
	Type   core.AccountType
	Active *bool
}

type CreateRequest struct {
	Number string           `json:"number"`
	Name   string           `json:"name"`
	Type   core.AccountType `json:"type"`
}

// ChangeFunc is called after an account was created, deleted, activated or
// deactivated.
type ChangeFunc func(ctx context.Context, number string)

type Registry struct {
	store storage.Store

	mu        sync.RWMutex
	onChanges []ChangeFunc
}

func NewRegistry(store storage.Store) *Registry {
	return &Registry{store: store}
}

// Seed inserts every chart account that is not stored yet and returns how
// many were added. Existing accounts are left untouched.
func (r *Registry) Seed(ctx context.Context, chart []core.Account) (int, error) {
	added := 0
	err := r.store.InTx(ctx, func(tx storage.Store) error {
		for _, a := range chart {
			inserted, err := tx.EnsureAccount(ctx, a)
			if err != nil {
				return err
			}
			if inserted {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed chart of accounts: %w", err)
	}
	slog.InfoContext(ctx, "Chart of accounts seeded", "accounts", len(chart), "added", added)
	return added, nil
}

// OnChange registers fn for account state changes.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChanges = append(r.onChanges, fn)
}

func (r *Registry) changed(ctx context.Context, number string) {
	r.mu.RLock()
	fns := append([]ChangeFunc(nil), r.onChanges...)
	r.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, number)
	}
}

func (r *Registry) List(ctx context.Context, q Query) ([]core.Account, error) {
	all, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if q.Type != "" && !q.Type.IsValid() {
		return nil, &core.InvalidTypeError{Kind: "account type", Value: string(q.Type)}
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]core.Account, 0, len(all))
	for _, a := range all {
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		if q.Active != nil && a.IsActive != *q.Active {
			continue
		}
		if search != "" && !strings.HasPrefix(a.Number, search) && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Registry) Get(ctx context.Context, number string) (core.Account, error) {
	return r.store.GetAccount(ctx, number)
}

// Create adds an account. The report category is derived from the number.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (core.Account, error) {
	a := core.Account{
		Number:   strings.TrimSpace(req.Number),
		Name:     strings.TrimSpace(req.Name),
		Type:     core.AccountType(strings.ToUpper(string(req.Type))),
		IsActive: true,
	}
	a.Category = core.ClassifyAccount(a.Number)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	created, err := r.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Account created", "number", created.Number, "type", created.Type, "category", created.Category)
	r.changed(ctx, created.Number)
	return created, nil
}

// Delete removes an account that no ledger entry or asset references.
// Referenced accounts can only be deactivated.
func (r *Registry) Delete(ctx context.Context, number string) error {
	err := r.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetAccount(ctx, number); err != nil {
			return err
		}
		inUse, err := tx.AccountInUse(ctx, number)
		if err != nil {
			return err
		}
		if inUse {
			return &core.ConflictError{Entity: "account", Key: number, Reason: "account is referenced by bookings and can only be deactivated"}
		}
		return tx.DeleteAccount(ctx, number)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deleted", "number", number)
	r.changed(ctx, number)
	return nil
}

func (r *Registry) Deactivate(ctx context.Context, number string) error {
	if err := r.store.SetAccountActive(ctx, number, false); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account deactivated", "number", number)
	r.changed(ctx, number)
	return nil
}

func (r *Registry) Activate(ctx context.Context, number string) error {
	if err := r.store.SetAccountActive(ctx, number, true); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account activated", "number", number)
	r.changed(ctx, number)
	return nil
}

// RequireActive returns the account if it exists and accepts postings.
func RequireActive(ctx context.Context, s storage.AccountStore, number string) (core.Account, error) {
	if !core.ValidAccountNumber(number) {
		return core.Account{}, &core.InvalidAccountError{Number: number, Reason: "malformed account number"}
	}
	a, err := s.GetAccount(ctx, number)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Account{}, &core.InvalidAccountError{Number: number, Reason: "unknown account"}
		}
		return core.Account{}, err
	}
	if !a.IsActive {
		return core.Account{}, &core.InvalidAccountError{Number: number, Reason: "account is inactive"}
	}
	return a, nil
}
