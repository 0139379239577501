// Package depreciation runs the monthly AfA batch over the fixed assets.
package depreciation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"buchhaltung/internal/core"
	"buchhaltung/internal/ledger"
	"buchhaltung/internal/storage"
)

// ExpenseAccount is debited by every depreciation posting.
const ExpenseAccount = "6220"

// Scheduler runs the depreciation of one target month. The time based
// trigger and manual or test runs all go through it.
type Scheduler interface {
	RunPeriod(ctx context.Context, p core.Period) (RunSummary, error)
}

// AssetError records a per-asset failure of a run.
type AssetError struct {
	AssetID     int64  `json:"assetId"`
	AssetNumber string `json:"assetNumber"`
	Error       string `json:"error"`
}

// RunSummary reports the outcome of one run. Processed counts assets that
// received a new entry; Skipped those already done for the month or not
// yet acquired.
type RunSummary struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Processed   int             `json:"processed"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Errors      []AssetError    `json:"errors,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	Duration    time.Duration   `json:"duration"`
}

func (s RunSummary) Period() core.Period {
	return core.Period{Year: s.Year, Month: s.Month}
}

type Engine struct {
	store   storage.Store
	ledger  *ledger.Service
	workers int
	now     func() time.Time
}

var _ Scheduler = (*Engine)(nil)

type Option func(*Engine)

// WithLedger posts a DEPRECIATION ledger entry with every monthly step.
func WithLedger(l *ledger.Service) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithWorkers sets how many assets are processed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store storage.Store, opts ...Option) *Engine {
	e := &Engine{store: store, workers: 1, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCurrent depreciates the current month.
func (e *Engine) RunCurrent(ctx context.Context) (RunSummary, error) {
	return e.RunPeriod(ctx, core.PeriodOf(e.now()))
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
)

// RunPeriod depreciates every active, not fully depreciated asset for p.
// Each asset is handled in its own transaction. A failing asset is logged
// and counted; the run continues with the others. Re-running a period only
// skips.
func (e *Engine) RunPeriod(ctx context.Context, p core.Period) (RunSummary, error) {
	summary := RunSummary{Year: p.Year, Month: p.Month, TotalAmount: decimal.Zero, StartedAt: e.now()}
	if err := p.Validate(); err != nil {
		return summary, err
	}

	assets, err := e.store.ListDepreciable(ctx)
	if err != nil {
		return summary, fmt.Errorf("list depreciable assets: %w", err)
	}

	slog.InfoContext(ctx, "Starting depreciation run",
		"period", p.String(),
		"assets", len(assets),
		"workers", e.workers)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.workers)
	for _, a := range assets {
		g.Go(func() error {
			res, amount, err := e.depreciate(ctx, a, p)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				summary.Errors = append(summary.Errors, AssetError{AssetID: a.ID, AssetNumber: a.AssetNumber, Error: err.Error()})
				slog.ErrorContext(ctx, "Failed to depreciate asset",
					"asset_id", a.ID,
					"asset_number", a.AssetNumber,
					"period", p.String(),
					"error", err)
			case res == outcomeSkipped:
				summary.Skipped++
			default:
				summary.Processed++
				summary.TotalAmount = summary.TotalAmount.Add(amount)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = e.now().Sub(summary.StartedAt)
	slog.InfoContext(ctx, "Depreciation run complete",
		"period", p.String(),
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"total_amount", summary.TotalAmount.StringFixed(2))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// depreciate performs the read-check-write sequence of one asset inside one
// transaction.
func (e *Engine) depreciate(ctx context.Context, a core.Asset, p core.Period) (outcome, decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return 0, decimal.Zero, err
	}
	if core.DateOf(a.AcquisitionDate).After(p.End()) {
		return outcomeSkipped, decimal.Zero, nil
	}

	var (
		res    = outcomeSkipped
		amount decimal.Decimal
		posted *core.LedgerEntry
	)
	err := e.store.InTx(ctx, func(tx storage.Store) error {
		cur, err := tx.GetAsset(ctx, a.ID)
		if err != nil {
			return err
		}
		if !cur.Depreciable() {
			return nil
		}

		monthly := core.MonthlyShare(cur.AnnualDepreciation)
		newBookValue := core.Max(cur.ResidualValue, cur.BookValue.Sub(monthly))
		fully := newBookValue.LessThanOrEqual(cur.ResidualValue)
		step := cur.BookValue.Sub(newBookValue)
		if !step.IsPositive() {
			// nothing left to write off; close the asset without an entry
			return tx.UpdateAssetBookValue(ctx, cur.ID, cur.BookValue, true)
		}

		inserted, dep, err := tx.TryInsertDepreciationEntry(ctx, core.DepreciationEntry{
			AssetID:   cur.ID,
			Year:      p.Year,
			Month:     p.Month,
			Amount:    step,
			BookValue: newBookValue,
			Notes:     fmt.Sprintf("AfA %02d/%d %s", p.Month, p.Year, cur.DepreciationMethod),
		})
		if err != nil {
			return err
		}
		if inserted == storage.AlreadyExists {
			return nil
		}

		if err := tx.UpdateAssetBookValue(ctx, cur.ID, newBookValue, fully); err != nil {
			return err
		}

		if e.ledger != nil {
			entry, err := e.ledger.PostWithin(ctx, tx, ledger.PostRequest{
				BookingDate:   p.End(),
				DebitAccount:  ExpenseAccount,
				CreditAccount: cur.AccountNumber,
				Amount:        step,
				Description:   fmt.Sprintf("AfA %02d/%d %s %.200s", p.Month, p.Year, cur.AssetNumber, cur.Name),
				SourceType:    core.SourceDepreciation,
				SourceID:      fmt.Sprintf("%s/%s", cur.AssetNumber, p),
			})
			if err != nil {
				return fmt.Errorf("post depreciation entry: %w", err)
			}
			if err := tx.LinkDepreciationEntry(ctx, dep.ID, entry.ID); err != nil {
				return err
			}
			posted = &entry
		}

		res, amount = outcomeProcessed, step
		return nil
	})
	if err != nil {
		return 0, decimal.Zero, err
	}
	if posted != nil {
		e.ledger.Notify(ctx, *posted)
	}
	return res, amount, nil
}
