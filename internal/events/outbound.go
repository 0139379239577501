package events

import (
	"context"
	"log/slog"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/core"
	"buchhaltung/internal/depreciation"
	"buchhaltung/internal/ledger"
)

// Outbound announces committed entries and finished depreciation runs.
// Publishing is best effort: the booking is already committed, so failures
// are logged and never reach the caller.
type Outbound struct {
	pub Publisher
}

var _ ledger.Listener = (*Outbound)(nil)

func NewOutbound(pub Publisher) *Outbound {
	return &Outbound{pub: pub}
}

// EntryPosted publishes ledger.entry.posted, or ledger.entry.reversed for a
// storno.
func (o *Outbound) EntryPosted(ctx context.Context, e core.LedgerEntry) {
	key := EntryPosted
	if e.IsStorno {
		key = EntryReversed
	}
	o.publish(ctx, key, e)
}

// RunCompleted publishes depreciation.run.completed.
func (o *Outbound) RunCompleted(ctx context.Context, s depreciation.RunSummary) {
	o.publish(ctx, DepreciationCompleted, s)
}

func (o *Outbound) publish(ctx context.Context, key string, payload any) {
	msg, err := amqp.NewMessage(key, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build event", "type", key, "error", err)
		return
	}
	if err := o.pub.Publish(ctx, key, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "type", key, "message_id", msg.ID, "error", err)
	}
}
