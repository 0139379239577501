package depreciation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buchhaltung/internal/core"
)

// Ticker triggers RunCurrent once at start and then on every interval
// until its context is cancelled. Runs are idempotent, so an interval
// shorter than a month only produces skips.
type Ticker struct {
	engine   *Engine
	interval time.Duration
	onRun    func(context.Context, RunSummary)
}

// NewTicker creates a ticker; onRun, if not nil, receives every successful
// summary.
func NewTicker(engine *Engine, interval time.Duration, onRun func(context.Context, RunSummary)) *Ticker {
	return &Ticker{engine: engine, interval: interval, onRun: onRun}
}

// Run blocks until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Running initial depreciation run...")
	t.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.runOnce(ctx)
			slog.InfoContext(ctx, "Next depreciation check scheduled",
				"next_check", now.Add(t.interval).Format("2006-01-02 15:04:05"))
		}
	}
}

func (t *Ticker) runOnce(ctx context.Context) {
	summary, err := t.engine.RunCurrent(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Depreciation run failed", "error", err)
		return
	}
	if t.onRun != nil {
		t.onRun(ctx, summary)
	}
}

// Backfill runs every month from from to to inclusive, in order, and hands
// each summary to progress. It stops at the first run level error; per
// asset failures are part of the summaries.
func Backfill(ctx context.Context, s Scheduler, from, to core.Period, progress func(core.Period, RunSummary)) ([]RunSummary, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, &core.ValidationError{Field: "to", Message: "backfill end lies before its start"}
	}

	var summaries []RunSummary
	for p := from; !to.Before(p); p = p.Next() {
		summary, err := s.RunPeriod(ctx, p)
		if err != nil {
			return summaries, fmt.Errorf("depreciation %s: %w", p, err)
		}
		summaries = append(summaries, summary)
		if progress != nil {
			progress(p, summary)
		}
	}
	return summaries, nil
}

// Months counts the periods of an inclusive range.
func Months(from, to core.Period) int {
	if to.Before(from) {
		return 0
	}
	return (to.Year-from.Year)*12 + to.Month - from.Month + 1
}
