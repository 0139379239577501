package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/core"
	"buchhaltung/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	chart, err := accounts.LoadChart("")
	require.NoError(t, err)
	_, err = accounts.NewRegistry(store).Seed(context.Background(), chart)
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	return NewService(store, WithClock(clock)), store
}

func TestPostEntry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	e, err := svc.PostEntry(ctx, PostRequest{
		DebitAccount:  "4120",
		CreditAccount: "1800",
		Amount:        dec("3000"),
		Description:   "Gehälter Juni",
	})
	require.NoError(t, err)
	assert.Equal(t, "BU-000001", e.EntryNumber)
	assert.Equal(t, core.NewDate(2025, 6, 15), e.BookingDate)
	assert.Equal(t, core.SourceManual, e.SourceType)
	assert.False(t, e.HasVAT())

	e2, err := svc.PostEntry(ctx, PostRequest{
		BookingDate: core.NewDate(2025, 6, 1), DebitAccount: "4210", CreditAccount: "1800",
		Amount: dec("900"), Description: "Miete Juni",
	})
	require.NoError(t, err)
	assert.Equal(t, "BU-000002", e2.EntryNumber)
}

func TestPostEntryRejects(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	require.NoError(t, store.SetAccountActive(ctx, "4630", false))

	cases := []struct {
		name  string
		req   PostRequest
		check func(error) bool
	}{
		{"unknown account", PostRequest{DebitAccount: "4121", CreditAccount: "1800", Amount: dec("1"), Description: "x"},
			func(err error) bool { var e *core.InvalidAccountError; return errors.As(err, &e) }},
		{"inactive account", PostRequest{DebitAccount: "4630", CreditAccount: "1800", Amount: dec("1"), Description: "x"},
			func(err error) bool { var e *core.InvalidAccountError; return errors.As(err, &e) }},
		{"same account", PostRequest{DebitAccount: "1800", CreditAccount: "1800", Amount: dec("1"), Description: "x"},
			func(err error) bool { var e *core.SameAccountError; return errors.As(err, &e) }},
		{"zero amount", PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("0"), Description: "x"},
			func(err error) bool { var e *core.InvalidAmountError; return errors.As(err, &e) }},
		{"negative amount", PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("-5"), Description: "x"},
			func(err error) bool { var e *core.InvalidAmountError; return errors.As(err, &e) }},
		{"vat mismatch", PostRequest{DebitAccount: "1200", CreditAccount: "8400", Amount: dec("119"),
			VATRate: core.Ptr(dec("19")), NetAmount: core.Ptr(dec("100")), VATAmount: core.Ptr(dec("20")), Description: "x"},
			func(err error) bool { return errors.Is(err, core.ErrValidation) }},
		{"missing description", PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("1")},
			func(err error) bool { return errors.Is(err, core.ErrValidation) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PostEntry(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error type: %v", err)
		})
	}

	entries, err := svc.QueryEntries(ctx, core.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected postings leave no entry")

	e, err := svc.PostEntry(ctx, PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("1"), Description: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "BU-000001", e.EntryNumber, "failed postings do not consume entry numbers")
}

func TestPostEntryDerivesVAT(t *testing.T) {
	svc, _ := newTestService(t)
	e, err := svc.PostEntry(context.Background(), PostRequest{
		DebitAccount: "1200", CreditAccount: "8300", Amount: dec("107"),
		VATRate: core.Ptr(dec("7")), Description: "Reifeneinlagerung",
	})
	require.NoError(t, err)
	require.True(t, e.HasVAT())
	assert.True(t, e.NetAmount.Equal(dec("100")))
	assert.True(t, e.VATAmount.Equal(dec("7")))
	assert.True(t, core.VATConsistent(e.Amount, *e.NetAmount, *e.VATAmount))
}

func TestReverseEntry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	orig, err := svc.PostCommissionEntry(ctx, "booking-7", dec("119"), core.NewDate(2025, 5, 3))
	require.NoError(t, err)

	storno, err := svc.ReverseEntry(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, storno.IsStorno)
	require.NotNil(t, storno.ReversesID)
	assert.Equal(t, orig.ID, *storno.ReversesID)
	assert.Equal(t, orig.DebitAccount, storno.CreditAccount)
	assert.Equal(t, orig.CreditAccount, storno.DebitAccount)
	assert.True(t, orig.Amount.Equal(storno.Amount))
	assert.Equal(t, orig.BookingDate, storno.BookingDate)
	assert.Contains(t, storno.Description, orig.EntryNumber)

	// the original is untouched
	again, err := svc.GetEntry(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, orig, again)

	_, err = svc.ReverseEntry(ctx, orig.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.ReverseEntry(ctx, storno.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.ReverseEntry(ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReverseEntryNetsAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	totals := func() map[string]decimal.Decimal {
		entries, err := svc.AllEntries(ctx, core.DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 12, 31)})
		require.NoError(t, err)
		net := map[string]decimal.Decimal{}
		for _, e := range entries {
			net[e.DebitAccount] = net[e.DebitAccount].Add(e.Amount)
			net[e.CreditAccount] = net[e.CreditAccount].Sub(e.Amount)
		}
		return net
	}

	_, err := svc.PostEntry(ctx, PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("3000"), Description: "Gehälter", BookingDate: core.NewDate(2025, 2, 28)})
	require.NoError(t, err)
	before := totals()

	e, err := svc.PostEntry(ctx, PostRequest{DebitAccount: "4210", CreditAccount: "1800", Amount: dec("850.50"), Description: "Miete falsch", BookingDate: core.NewDate(2025, 3, 1)})
	require.NoError(t, err)
	_, err = svc.ReverseEntryOn(ctx, e.ID, core.NewDate(2025, 3, 5))
	require.NoError(t, err)

	after := totals()
	for _, acct := range []string{"4120", "4210", "1800"} {
		assert.True(t, before[acct].Equal(after[acct]), "account %s: before %s after %s", acct, before[acct], after[acct])
	}

	_, err = svc.ReverseEntryOn(ctx, 1, core.NewDate(2025, 1, 1))
	assert.ErrorIs(t, err, core.ErrValidation, "storno before the original date")
}

func TestNamedPostingsAreIdempotentPerSource(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	date := core.NewDate(2025, 4, 10)

	e, err := svc.PostCommissionEntry(ctx, "booking-1", dec("59.50"), date)
	require.NoError(t, err)
	assert.Equal(t, "1200", e.DebitAccount)
	assert.Equal(t, "8400", e.CreditAccount)
	assert.True(t, e.NetAmount.Equal(dec("50")))
	assert.True(t, e.VATAmount.Equal(dec("9.5")))

	_, err = svc.PostCommissionEntry(ctx, "booking-1", dec("59.50"), date)
	assert.ErrorIs(t, err, core.ErrConflict)

	for _, post := range []func(context.Context, string, decimal.Decimal, time.Time) (core.LedgerEntry, error){
		svc.PostInfluencerPayout, svc.PostSEPACollection, svc.PostPaymentFee,
	} {
		_, err := post(ctx, "ref-1", dec("10"), date)
		require.NoError(t, err)
	}

	_, err = svc.PostFromSource(ctx, SourcePosting{SourceType: core.SourceManual, SourceID: "x", Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.PostFromSource(ctx, SourcePosting{SourceType: core.SourceCommission, Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestQueryEntries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 1; i <= 120; i++ {
		_, err := svc.PostEntry(ctx, PostRequest{
			BookingDate:   core.NewDate(2025, 1, 1).AddDate(0, 0, i%28),
			DebitAccount:  "4900",
			CreditAccount: "1800",
			Amount:        decimal.NewFromInt(int64(i)),
			Description:   fmt.Sprintf("Beleg %d", i),
		})
		require.NoError(t, err)
	}

	entries, err := svc.QueryEntries(ctx, core.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, core.DefaultEntryLimit)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].BookingDate.After(entries[i-1].BookingDate), "ordered by booking date desc")
	}

	entries, err = svc.QueryEntries(ctx, core.EntryFilter{MinAmount: core.Ptr(dec("100")), MaxAmount: core.Ptr(dec("110"))})
	require.NoError(t, err)
	assert.Len(t, entries, 11)

	entries, err = svc.QueryEntries(ctx, core.EntryFilter{Search: "beleg 7"})
	require.NoError(t, err)
	assert.Len(t, entries, 11) // 7 and 70-79

	_, err = svc.QueryEntries(ctx, core.EntryFilter{From: core.NewDate(2025, 2, 1), To: core.NewDate(2025, 1, 1)})
	assert.ErrorIs(t, err, core.ErrValidation)

	all, err := svc.AllEntries(ctx, core.DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 12, 31)})
	require.NoError(t, err)
	assert.Len(t, all, 120)
}

func TestListenersSeeCommittedEntries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var seen []core.LedgerEntry
	svc.Subscribe(ListenerFunc(func(_ context.Context, e core.LedgerEntry) { seen = append(seen, e) }))

	e, err := svc.PostEntry(ctx, PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("1"), Description: "x"})
	require.NoError(t, err)
	_, err = svc.PostEntry(ctx, PostRequest{DebitAccount: "4120", CreditAccount: "4120", Amount: dec("1"), Description: "x"})
	require.Error(t, err)
	_, err = svc.ReverseEntry(ctx, e.ID)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.False(t, seen[0].IsStorno)
	assert.True(t, seen[1].IsStorno)
}
