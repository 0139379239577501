// Package ledger is the double-entry journal. Entries are append only; a
// correction is a storno entry that swaps debit and credit of the original.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

const DefaultEntryPrefix = "BU"

// PostRequest describes a new posting. SourceType defaults to MANUAL and
// BookingDate to today.
type PostRequest struct {
	BookingDate   time.Time        `json:"bookingDate"`
	DebitAccount  string           `json:"debitAccount"`
	CreditAccount string           `json:"creditAccount"`
	Amount        decimal.Decimal  `json:"amount"`
	VATRate       *decimal.Decimal `json:"vatRate,omitempty"`
	VATAmount     *decimal.Decimal `json:"vatAmount,omitempty"`
	NetAmount     *decimal.Decimal `json:"netAmount,omitempty"`
	Description   string           `json:"description"`
	SourceType    core.SourceType  `json:"sourceType,omitempty"`
	SourceID      string           `json:"sourceId,omitempty"`
}

// Listener is told about every committed entry, stornos included.
type Listener interface {
	EntryPosted(ctx context.Context, e core.LedgerEntry)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, e core.LedgerEntry)

func (f ListenerFunc) EntryPosted(ctx context.Context, e core.LedgerEntry) { f(ctx, e) }

type Service struct {
	store  storage.Store
	prefix string
	now    func() time.Time

	mu        sync.RWMutex
	listeners []Listener
}

type Option func(*Service)

// WithEntryPrefix sets the entry number prefix ("BU" gives BU-000001).
func WithEntryPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, prefix: DefaultEntryPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Notify hands committed entries to the listeners. PostEntry and
// ReverseEntry call it themselves; callers of PostWithin call it after
// their transaction committed.
func (s *Service) Notify(ctx context.Context, entries ...core.LedgerEntry) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, e := range entries {
		for _, l := range listeners {
			l.EntryPosted(ctx, e)
		}
	}
}

// PostEntry validates and stores a posting in its own transaction.
func (s *Service) PostEntry(ctx context.Context, req PostRequest) (core.LedgerEntry, error) {
	var posted core.LedgerEntry
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		posted, err = s.PostWithin(ctx, tx, req)
		return err
	})
	if err != nil {
		return core.LedgerEntry{}, err
	}
	slog.InfoContext(ctx, "Ledger entry posted",
		"entry_number", posted.EntryNumber,
		"debit", posted.DebitAccount,
		"credit", posted.CreditAccount,
		"amount", posted.Amount.StringFixed(2),
		"source_type", posted.SourceType)
	s.Notify(ctx, posted)
	return posted, nil
}

// PostWithin posts inside a transaction owned by the caller.
func (s *Service) PostWithin(ctx context.Context, tx storage.Store, req PostRequest) (core.LedgerEntry, error) {
	e := core.LedgerEntry{
		BookingDate:   req.BookingDate,
		DebitAccount:  strings.TrimSpace(req.DebitAccount),
		CreditAccount: strings.TrimSpace(req.CreditAccount),
		Amount:        core.Round2(req.Amount),
		VATRate:       req.VATRate,
		VATAmount:     req.VATAmount,
		NetAmount:     req.NetAmount,
		Description:   strings.TrimSpace(req.Description),
		SourceType:    req.SourceType,
		SourceID:      strings.TrimSpace(req.SourceID),
	}
	if e.BookingDate.IsZero() {
		e.BookingDate = s.now()
	}
	e.BookingDate = core.DateOf(e.BookingDate)
	if e.SourceType == "" {
		e.SourceType = core.SourceManual
	}
	if e.VATRate != nil && e.VATAmount == nil && e.NetAmount == nil && e.Amount.IsPositive() {
		net, vat := core.SplitGross(e.Amount, *e.VATRate)
		e.NetAmount, e.VATAmount = &net, &vat
	}
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	if _, err := accounts.RequireActive(ctx, tx, e.DebitAccount); err != nil {
		return core.LedgerEntry{}, err
	}
	if _, err := accounts.RequireActive(ctx, tx, e.CreditAccount); err != nil {
		return core.LedgerEntry{}, err
	}
	if e.SourceID != "" {
		if existing, ok, err := tx.FindBySource(ctx, e.SourceType, e.SourceID); err != nil {
			return core.LedgerEntry{}, err
		} else if ok {
			return core.LedgerEntry{}, &core.ConflictError{
				Entity: "ledger entry",
				Key:    string(e.SourceType) + "/" + e.SourceID,
				Reason: "already booked as " + existing.EntryNumber,
			}
		}
	}
	return s.insert(ctx, tx, e)
}

func (s *Service) insert(ctx context.Context, tx storage.Store, e core.LedgerEntry) (core.LedgerEntry, error) {
	n, err := tx.NextSequence(ctx, storage.SeqLedgerEntry)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("assign entry number: %w", err)
	}
	e.EntryNumber = fmt.Sprintf("%s-%06d", s.prefix, n)
	e.CreatedAt = s.now().UTC()
	return tx.InsertEntry(ctx, e)
}

// ReverseEntry posts the storno of an entry on the original booking date.
func (s *Service) ReverseEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	return s.ReverseEntryOn(ctx, id, time.Time{})
}

// ReverseEntryOn posts the storno on date, or on the original booking date
// when date is zero. A storno cannot be reversed and an entry is reversed at
// most once.
func (s *Service) ReverseEntryOn(ctx context.Context, id int64, date time.Time) (core.LedgerEntry, error) {
	var storno core.LedgerEntry
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		orig, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if orig.IsStorno {
			return &core.ConflictError{Entity: "ledger entry", Key: orig.EntryNumber, Reason: "a storno entry cannot be reversed"}
		}
		if rev, ok, err := tx.FindReversal(ctx, id); err != nil {
			return err
		} else if ok {
			return &core.ConflictError{Entity: "ledger entry", Key: orig.EntryNumber, Reason: "already reversed by " + rev.EntryNumber}
		}

		booking := orig.BookingDate
		if !date.IsZero() {
			booking = core.DateOf(date)
			if booking.Before(orig.BookingDate) {
				return &core.ValidationError{Field: "bookingDate", Message: "storno must not be booked before the original entry"}
			}
		}
		// inactive accounts still accept the storno of an earlier posting
		for _, n := range []string{orig.DebitAccount, orig.CreditAccount} {
			if _, err := tx.GetAccount(ctx, n); err != nil {
				return err
			}
		}

		origID := orig.ID
		e := core.LedgerEntry{
			BookingDate:   booking,
			DebitAccount:  orig.CreditAccount,
			CreditAccount: orig.DebitAccount,
			Amount:        orig.Amount,
			VATRate:       orig.VATRate,
			VATAmount:     orig.VATAmount,
			NetAmount:     orig.NetAmount,
			Description:   truncate("Storno "+orig.EntryNumber+": "+orig.Description, 255),
			SourceType:    orig.SourceType,
			SourceID:      orig.SourceID,
			IsStorno:      true,
			ReversesID:    &origID,
		}
		storno, err = s.insert(ctx, tx, e)
		return err
	})
	if err != nil {
		return core.LedgerEntry{}, err
	}
	slog.InfoContext(ctx, "Ledger entry reversed",
		"entry_number", storno.EntryNumber,
		"reverses_id", id,
		"amount", storno.Amount.StringFixed(2))
	s.Notify(ctx, storno)
	return storno, nil
}

func (s *Service) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	return s.store.GetEntry(ctx, id)
}

// QueryEntries is the interactive listing; at most core.DefaultEntryLimit
// entries are returned.
func (s *Service) QueryEntries(ctx context.Context, f core.EntryFilter) ([]core.LedgerEntry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Limit <= 0 || f.Limit > core.DefaultEntryLimit {
		f.Limit = core.DefaultEntryLimit
	}
	entries, err := s.store.QueryEntries(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return entries, nil
}

// Watermark identifies the committed state of the ledger. It changes with
// every entry committed through any process sharing the store.
func (s *Service) Watermark(ctx context.Context) (int64, error) {
	return s.store.LedgerWatermark(ctx)
}

// AllEntries returns every entry booked in r without a cap.
func (s *Service) AllEntries(ctx context.Context, r core.DateRange) ([]core.LedgerEntry, error) {
	entries, err := s.store.QueryEntries(ctx, core.EntryFilter{From: r.Start, To: r.End})
	if err != nil {
		return nil, fmt.Errorf("load entries %s: %w", r, err)
	}
	return entries, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
