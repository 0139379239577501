package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/amqp"
	"buchhaltung/internal/assets"
	"buchhaltung/internal/core"
	"buchhaltung/internal/depreciation"
	"buchhaltung/internal/ledger"
	"buchhaltung/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newInbound(t *testing.T) (*Inbound, *ledger.Service, *assets.Service) {
	t.Helper()
	store := memory.New()
	chart, err := accounts.LoadChart("")
	require.NoError(t, err)
	_, err = accounts.NewRegistry(store).Seed(context.Background(), chart)
	require.NoError(t, err)
	l := ledger.NewService(store)
	a := assets.NewService(store)
	return NewInbound(l, a), l, a
}

func message(t *testing.T, key string, payload any) *amqp.Message {
	t.Helper()
	msg, err := amqp.NewMessage(key, payload)
	require.NoError(t, err)
	return msg
}

func TestInboundPostsPaymentEvents(t *testing.T) {
	ctx := context.Background()
	h, l, _ := newInbound(t)

	cases := []struct {
		key           string
		debit, credit string
	}{
		{CommissionPayable, "1200", "8400"},
		{InfluencerPayout, "4650", "1800"},
		{SEPACollection, "1800", "1200"},
		{PaymentFee, "4970", "1800"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			msg := message(t, tc.key, PaymentEvent{SourceID: "REF-" + tc.key, Amount: dec("119"), Date: "2025-05-02"})
			require.NoError(t, h.Handle(ctx, msg))

			entries, err := l.QueryEntries(ctx, core.EntryFilter{SourceID: "REF-" + tc.key})
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.debit, entries[0].DebitAccount)
			assert.Equal(t, tc.credit, entries[0].CreditAccount)
			assert.Equal(t, core.NewDate(2025, 5, 2), entries[0].BookingDate)
		})
	}

	commission, err := l.QueryEntries(ctx, core.EntryFilter{SourceType: core.SourceCommission})
	require.NoError(t, err)
	require.Len(t, commission, 1)
	require.NotNil(t, commission[0].VATAmount)
	assert.True(t, commission[0].VATAmount.Equal(dec("19")))
}

func TestInboundAcknowledgesDuplicates(t *testing.T) {
	ctx := context.Background()
	h, l, _ := newInbound(t)

	ev := PaymentEvent{SourceID: "BK-1001", Amount: dec("59.50"), Date: "2025-05-02T10:15:00Z"}
	require.NoError(t, h.Handle(ctx, message(t, CommissionPayable, ev)))
	require.NoError(t, h.Handle(ctx, message(t, CommissionPayable, ev)), "redelivery is acknowledged")

	entries, err := l.QueryEntries(ctx, core.EntryFilter{SourceID: "BK-1001"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInboundDropsInvalidEvents(t *testing.T) {
	ctx := context.Background()
	h, _, _ := newInbound(t)

	bad := []*amqp.Message{
		message(t, CommissionPayable, PaymentEvent{SourceID: "X", Amount: dec("0"), Date: "2025-05-02"}),
		message(t, CommissionPayable, PaymentEvent{SourceID: "", Amount: dec("10"), Date: "2025-05-02"}),
		message(t, PaymentFee, PaymentEvent{SourceID: "Y", Amount: dec("1"), Date: "02.05.2025"}),
		message(t, "booking.created", PaymentEvent{SourceID: "Z", Amount: dec("1")}),
		message(t, CommissionPayable, []int{1, 2}),
		message(t, AssetPurchased, AssetEvent{Name: "Hebebühne", Category: "equipment", AcquisitionDate: "2025-01-01", AcquisitionCost: dec("5000"), UsefulLife: 0}),
	}
	for i, msg := range bad {
		err := h.Handle(ctx, msg)
		assert.ErrorIs(t, err, amqp.ErrPermanent, "case %d", i)
	}
}

func TestInboundRegistersAssets(t *testing.T) {
	ctx := context.Background()
	h, _, a := newInbound(t)

	msg := message(t, AssetPurchased, AssetEvent{
		Name: "Reifenmontiermaschine", Category: "equipment",
		AcquisitionDate: "2025-04-01", AcquisitionCost: dec("6000"), UsefulLife: 5,
	})
	require.NoError(t, h.Handle(ctx, msg))

	list, err := a.List(ctx, core.AssetActive)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "AV-2025-0001", list[0].AssetNumber)
	assert.True(t, list[0].AnnualDepreciation.Equal(dec("1200")))
}

func TestInboundAssetRedeliveryRegistersOnce(t *testing.T) {
	ctx := context.Background()
	h, _, a := newInbound(t)

	withRef := message(t, AssetPurchased, AssetEvent{
		SourceID: "PO-4711", Name: "Reifenmontiermaschine", Category: "equipment",
		AcquisitionDate: "2025-04-01", AcquisitionCost: dec("6000"), UsefulLife: 5,
	})
	withoutRef := message(t, AssetPurchased, AssetEvent{
		Name: "Wuchtmaschine", Category: "equipment",
		AcquisitionDate: "2025-04-01", AcquisitionCost: dec("3000"), UsefulLife: 5,
	})
	for _, msg := range []*amqp.Message{withRef, withRef, withoutRef, withoutRef} {
		require.NoError(t, h.Handle(ctx, msg), "redelivery is acknowledged")
	}

	list, err := a.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "PO-4711", list[0].SourceID)
	assert.Equal(t, "msg:"+withoutRef.ID, list[1].SourceID)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	msgs []*amqp.Message
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, msg *amqp.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestOutboundAnnouncesEntries(t *testing.T) {
	ctx := context.Background()
	_, l, _ := newInbound(t)
	pub := &recordingPublisher{}
	l.Subscribe(NewOutbound(pub))

	e, err := l.PostCommissionEntry(ctx, "BK-7", dec("119"), core.NewDate(2025, 5, 2))
	require.NoError(t, err)
	_, err = l.ReverseEntry(ctx, e.ID)
	require.NoError(t, err)

	require.Equal(t, []string{EntryPosted, EntryReversed}, pub.keys)
	var got core.LedgerEntry
	require.NoError(t, pub.msgs[0].Decode(&got))
	assert.Equal(t, e.EntryNumber, got.EntryNumber)
	assert.True(t, got.Amount.Equal(dec("119")))
}

func TestOutboundSwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	o := NewOutbound(pub)
	o.RunCompleted(context.Background(), depreciation.RunSummary{Year: 2025, Month: 5, Processed: 3})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, DepreciationCompleted, pub.keys[0])
	var s depreciation.RunSummary
	require.NoError(t, pub.msgs[0].Decode(&s))
	assert.Equal(t, 3, s.Processed)
}
