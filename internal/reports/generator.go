// Package reports aggregates ledger entries into the statutory reports:
// EÜR, UStVA and the Summen- und Saldenliste.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buchhaltung/internal/cache"
	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

const (
	KindIncomeStatement = "income-statement"
	KindVATReturn       = "vat-return"
	KindTrialBalance    = "trial-balance"
)

// EntrySource delivers every committed entry booked inside a range.
type EntrySource interface {
	AllEntries(ctx context.Context, r core.DateRange) ([]core.LedgerEntry, error)
}

// Watermarker is implemented by entry sources that can tell whether the
// ledger changed, including commits made by other processes.
type Watermarker interface {
	Watermark(ctx context.Context) (int64, error)
}

// Generator builds reports on demand. It keeps no state besides an optional
// result cache. Cached reports are purged on local commits and account
// changes. When the entry source is a Watermarker, each hit is also checked
// against the current watermark, so commits made by other processes are
// never hidden.
type Generator struct {
	entries  EntrySource
	accounts storage.AccountStore
	cache    cache.Cache[any]
	now      func() time.Time
}

type Option func(*Generator)

// WithCache caches results per report and range. A nil cache disables it.
func WithCache(c cache.Cache[any]) Option {
	return func(g *Generator) { g.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(entries EntrySource, accounts storage.AccountStore, opts ...Option) *Generator {
	g := &Generator{entries: entries, accounts: accounts, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EntryPosted purges the cache; it subscribes the generator to the ledger.
func (g *Generator) EntryPosted(ctx context.Context, e core.LedgerEntry) {
	if g.cache != nil {
		g.cache.Purge()
	}
}

// AccountChanged purges the cache; it subscribes the generator to the
// account registry.
func (g *Generator) AccountChanged(ctx context.Context, number string) {
	g.Invalidate()
}

// Invalidate drops all cached reports.
func (g *Generator) Invalidate() {
	if g.cache != nil {
		g.cache.Purge()
	}
}

// snapshot is the input every report aggregates over.
type snapshot struct {
	entries  []core.LedgerEntry
	accounts map[string]core.Account
}

// category resolves the report classification of an account number. Numbers
// missing from the chart fall back to the number based classification.
func (s snapshot) category(number string) core.AccountCategory {
	if a, ok := s.accounts[number]; ok && a.Category.IsValid() {
		return a.Category
	}
	return core.ClassifyAccount(number)
}

func (g *Generator) load(ctx context.Context, r core.DateRange) (snapshot, error) {
	entries, err := g.entries.AllEntries(ctx, r)
	if err != nil {
		return snapshot{}, fmt.Errorf("load entries: %w", err)
	}
	list, err := g.accounts.ListAccounts(ctx)
	if err != nil {
		return snapshot{}, fmt.Errorf("load accounts: %w", err)
	}
	accounts := make(map[string]core.Account, len(list))
	for _, a := range list {
		accounts[a.Number] = a
	}
	return snapshot{entries: entries, accounts: accounts}, nil
}

// cachedReport is a cache value together with the watermark it was built at.
type cachedReport struct {
	mark   int64
	report any
}

// watermark returns the ledger watermark of the entry source. ok is false
// when the source cannot provide one or the lookup failed; the cache is then
// bypassed.
func (g *Generator) watermark(ctx context.Context) (mark int64, ok bool) {
	w, isW := g.entries.(Watermarker)
	if !isW {
		return 0, true
	}
	mark, err := w.Watermark(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Ledger watermark unavailable, bypassing report cache", "error", err)
		return 0, false
	}
	return mark, true
}

// cached returns a cached report for kind and r or builds and stores it.
func cached[T any](ctx context.Context, g *Generator, kind string, r core.DateRange, build func(core.DateRange, snapshot) T) (T, error) {
	var zero T
	r, err := core.NewDateRange(r.Start, r.End)
	if err != nil {
		return zero, err
	}

	key := kind + "|" + r.String()
	var (
		mark     int64
		useCache bool
	)
	if g.cache != nil {
		// read before the snapshot so a concurrent commit can only make
		// the stored mark older than the data, never newer
		mark, useCache = g.watermark(ctx)
	}
	if useCache {
		if v, ok := g.cache.Get(key); ok {
			if c, ok := v.(cachedReport); ok && c.mark == mark {
				if report, ok := c.report.(T); ok {
					return report, nil
				}
			}
		}
	}

	start := g.now()
	snap, err := g.load(ctx, r)
	if err != nil {
		return zero, err
	}
	report := build(r, snap)
	slog.DebugContext(ctx, "Report generated",
		"report", kind,
		"range", r.String(),
		"entries", len(snap.entries),
		"duration", g.now().Sub(start))

	if useCache {
		g.cache.Set(key, cachedReport{mark: mark, report: report})
	}
	return report, nil
}
