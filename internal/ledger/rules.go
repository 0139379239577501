package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

// PostingRule fixes the account pair booked for a source type.
type PostingRule struct {
	Debit       string
	Credit      string
	VATRate     *decimal.Decimal // nil books without VAT breakdown
	Description string           // prefix, the source reference is appended
}

var standardVAT = decimal.NewFromInt(19)

// Rules maps the event driven source types to their postings.
var Rules = map[core.SourceType]PostingRule{
	// Provisionsforderung an den Werkstattpartner
	core.SourceCommission: {
		Debit:       "1200",
		Credit:      core.AccountCommissionRevenue,
		VATRate:     &standardVAT,
		Description: "Provision Buchung",
	},
	core.SourceInfluencerPayout: {
		Debit:       core.AccountCommissions,
		Credit:      "1800",
		Description: "Auszahlung Influencer",
	},
	// Einzug der Provisionsforderung per SEPA-Lastschrift
	core.SourceSEPACollection: {
		Debit:       "1800",
		Credit:      "1200",
		Description: "SEPA-Lastschrift",
	},
	core.SourcePaymentFee: {
		Debit:       "4970",
		Credit:      "1800",
		Description: "Zahlungsgebühr",
	},
}

// SourcePosting is a posting derived from an external collaborator's event.
type SourcePosting struct {
	SourceType  core.SourceType `json:"sourceType"`
	SourceID    string          `json:"sourceId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}

// PostFromSource books p through the rule of its source type. The same
// source reference can only be booked once.
func (s *Service) PostFromSource(ctx context.Context, p SourcePosting) (core.LedgerEntry, error) {
	rule, ok := Rules[p.SourceType]
	if !ok {
		return core.LedgerEntry{}, &core.InvalidTypeError{Kind: "posting source", Value: string(p.SourceType)}
	}
	if strings.TrimSpace(p.SourceID) == "" {
		return core.LedgerEntry{}, &core.ValidationError{Field: "sourceId", Message: "source reference is required"}
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = fmt.Sprintf("%s %s", rule.Description, p.SourceID)
	}
	return s.PostEntry(ctx, PostRequest{
		BookingDate:   p.Date,
		DebitAccount:  rule.Debit,
		CreditAccount: rule.Credit,
		Amount:        p.Amount,
		VATRate:       rule.VATRate,
		Description:   desc,
		SourceType:    p.SourceType,
		SourceID:      p.SourceID,
	})
}

// PostCommissionEntry books the gross commission of a booking as revenue
// with 19 % VAT.
func (s *Service) PostCommissionEntry(ctx context.Context, bookingID string, amount decimal.Decimal, date time.Time) (core.LedgerEntry, error) {
	return s.PostFromSource(ctx, SourcePosting{SourceType: core.SourceCommission, SourceID: bookingID, Amount: amount, Date: date})
}

func (s *Service) PostInfluencerPayout(ctx context.Context, payoutID string, amount decimal.Decimal, date time.Time) (core.LedgerEntry, error) {
	return s.PostFromSource(ctx, SourcePosting{SourceType: core.SourceInfluencerPayout, SourceID: payoutID, Amount: amount, Date: date})
}

func (s *Service) PostSEPACollection(ctx context.Context, collectionID string, amount decimal.Decimal, date time.Time) (core.LedgerEntry, error) {
	return s.PostFromSource(ctx, SourcePosting{SourceType: core.SourceSEPACollection, SourceID: collectionID, Amount: amount, Date: date})
}

func (s *Service) PostPaymentFee(ctx context.Context, paymentID string, amount decimal.Decimal, date time.Time) (core.LedgerEntry, error) {
	return s.PostFromSource(ctx, SourcePosting{SourceType: core.SourcePaymentFee, SourceID: paymentID, Amount: amount, Date: date})
}
