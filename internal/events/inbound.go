package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/assets"
	"buchhaltung/internal/core"
	"buchhaltung/internal/ledger"
)

// Inbound turns marketplace events into postings and registered assets.
type Inbound struct {
	ledger *ledger.Service
	assets *assets.Service
	now    func() time.Time
}

func NewInbound(l *ledger.Service, a *assets.Service) *Inbound {
	return &Inbound{ledger: l, assets: a, now: time.Now}
}

// Handle is an amqp.Handler. A source that was already booked is
// acknowledged as a duplicate delivery. Malformed or rejected events are
// dropped, everything else is retried.
func (h *Inbound) Handle(ctx context.Context, msg *amqp.Message) error {
	err := h.dispatch(ctx, msg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrConflict):
		slog.InfoContext(ctx, "Duplicate event ignored", "message_id", msg.ID, "type", msg.Type, "reason", err)
		return nil
	case rejected(err):
		return amqp.Permanent(err)
	default:
		return err
	}
}

func (h *Inbound) dispatch(ctx context.Context, msg *amqp.Message) error {
	if msg.Type == AssetPurchased {
		return h.assetPurchased(ctx, msg)
	}
	st, ok := sourceTypes[msg.Type]
	if !ok {
		return &core.InvalidTypeError{Kind: "event", Value: msg.Type}
	}

	var ev PaymentEvent
	if err := msg.Decode(&ev); err != nil {
		return &core.ValidationError{Field: "payload", Message: err.Error()}
	}
	date, err := parseEventDate(ev.Date, h.now())
	if err != nil {
		return err
	}

	entry, err := h.ledger.PostFromSource(ctx, ledger.SourcePosting{
		SourceType:  st,
		SourceID:    ev.SourceID,
		Amount:      ev.Amount,
		Date:        date,
		Description: ev.Description,
	})
	if err != nil {
		return fmt.Errorf("post %s %s: %w", st, ev.SourceID, err)
	}
	slog.InfoContext(ctx, "Event booked",
		"message_id", msg.ID,
		"type", msg.Type,
		"entry_number", entry.EntryNumber)
	return nil
}

func (h *Inbound) assetPurchased(ctx context.Context, msg *amqp.Message) error {
	var ev AssetEvent
	if err := msg.Decode(&ev); err != nil {
		return &core.ValidationError{Field: "payload", Message: err.Error()}
	}
	date, err := parseEventDate(ev.AcquisitionDate, h.now())
	if err != nil {
		return err
	}
	source := strings.TrimSpace(ev.SourceID)
	if source == "" {
		source = "msg:" + msg.ID
	}
	a, err := h.assets.CreateAsset(ctx, assets.CreateRequest{
		Name:               ev.Name,
		Category:           ev.Category,
		AccountNumber:      ev.AccountNumber,
		AcquisitionDate:    date,
		AcquisitionCost:    ev.AcquisitionCost,
		UsefulLife:         ev.UsefulLife,
		DepreciationMethod: core.DepreciationMethod(ev.DepreciationMethod),
		ResidualValue:      ev.ResidualValue,
		SourceID:           source,
	})
	if err != nil {
		return fmt.Errorf("register asset %q: %w", ev.Name, err)
	}
	slog.InfoContext(ctx, "Asset event registered", "message_id", msg.ID, "asset_number", a.AssetNumber)
	return nil
}

// rejected reports errors that a redelivery cannot fix.
func rejected(err error) bool {
	var (
		invalidAccount *core.InvalidAccountError
		sameAccount    *core.SameAccountError
	)
	return errors.Is(err, core.ErrValidation) ||
		errors.Is(err, core.ErrNotFound) ||
		errors.As(err, &invalidAccount) ||
		errors.As(err, &sameAccount)
}
