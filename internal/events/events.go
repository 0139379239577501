// Package events connects the accounting core to the marketplace over AMQP:
// inbound accounting events become postings and assets, committed postings
// and depreciation runs are announced back.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/core"
)

// Inbound routing keys.
const (
	CommissionPayable = "commission.payable"
	InfluencerPayout  = "influencer.payout"
	SEPACollection    = "sepa.collection"
	PaymentFee        = "payment.fee"
	AssetPurchased    = "asset.purchased"
)

// Outbound routing keys.
const (
	EntryPosted           = "ledger.entry.posted"
	EntryReversed         = "ledger.entry.reversed"
	DepreciationCompleted = "depreciation.run.completed"
)

// InboundKeys lists every routing key the events worker binds.
func InboundKeys() []string {
	return []string{CommissionPayable, InfluencerPayout, SEPACollection, PaymentFee, AssetPurchased}
}

var sourceTypes = map[string]core.SourceType{
	CommissionPayable: core.SourceCommission,
	InfluencerPayout:  core.SourceInfluencerPayout,
	SEPACollection:    core.SourceSEPACollection,
	PaymentFee:        core.SourcePaymentFee,
}

// Publisher is the outbound side of the AMQP client.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg *amqp.Message) error
}

// PaymentEvent is the payload of the four payment related events. Date
// accepts YYYY-MM-DD or RFC 3339 and defaults to the receive time.
type PaymentEvent struct {
	SourceID    string          `json:"sourceId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
	Description string          `json:"description,omitempty"`
}

// AssetEvent is the payload of asset.purchased. SourceID is the purchase
// reference; without one the message id guards against redelivery.
type AssetEvent struct {
	SourceID           string          `json:"sourceId,omitempty"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	AccountNumber      string          `json:"accountNumber,omitempty"`
	AcquisitionDate    string          `json:"acquisitionDate"`
	AcquisitionCost    decimal.Decimal `json:"acquisitionCost"`
	UsefulLife         int             `json:"usefulLife"`
	DepreciationMethod string          `json:"depreciationMethod,omitempty"`
	ResidualValue      decimal.Decimal `json:"residualValue"`
}

func parseEventDate(s string, fallback time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.DateOf(fallback), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return core.DateOf(t), nil
	}
	return core.ParseDate(s)
}
