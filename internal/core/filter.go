package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryFilter selects ledger entries. Zero fields do not filter.
type EntryFilter struct {
	From        time.Time
	To          time.Time
	AccountFrom string
	AccountTo   string
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	SourceType  SourceType
	SourceID    string
	Storno      *bool
	Search      string
	// Limit <= 0 means unbounded; callers set DefaultEntryLimit for
	// interactive queries.
	Limit int
}

// Matches applies every filter criterion except Limit.
func (f EntryFilter) Matches(e LedgerEntry) bool {
	day := DateOf(e.BookingDate)
	if !f.From.IsZero() && day.Before(DateOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(DateOf(f.To)) {
		return false
	}
	if f.AccountFrom != "" || f.AccountTo != "" {
		if !f.accountInRange(e.DebitAccount) && !f.accountInRange(e.CreditAccount) {
			return false
		}
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.SourceType != "" && e.SourceType != f.SourceType {
		return false
	}
	if f.SourceID != "" && e.SourceID != f.SourceID {
		return false
	}
	if f.Storno != nil && e.IsStorno != *f.Storno {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(strings.Join([]string{e.EntryNumber, e.Description, e.DebitAccount, e.CreditAccount}, "\x00"))
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// account numbers are fixed width, so string order is numeric order
func (f EntryFilter) accountInRange(n string) bool {
	if f.AccountFrom != "" && n < f.AccountFrom {
		return false
	}
	if f.AccountTo != "" && n > f.AccountTo {
		return false
	}
	return true
}

// Validate rejects inverted ranges.
func (f EntryFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return &ValidationError{Field: "to", Message: "end date must not be before start date"}
	}
	if f.AccountFrom != "" && f.AccountTo != "" && f.AccountTo < f.AccountFrom {
		return &ValidationError{Field: "accountTo", Message: "account range is inverted"}
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MaxAmount.LessThan(*f.MinAmount) {
		return &ValidationError{Field: "maxAmount", Message: "amount range is inverted"}
	}
	if f.SourceType != "" && !f.SourceType.IsValid() {
		return &InvalidTypeError{Kind: "source type", Value: string(f.SourceType)}
	}
	return nil
}

// LessEntry orders entries by booking date descending, newest entry first
// within a day.
func LessEntry(a, b LedgerEntry) bool {
	if !a.BookingDate.Equal(b.BookingDate) {
		return a.BookingDate.After(b.BookingDate)
	}
	return a.ID > b.ID
}
