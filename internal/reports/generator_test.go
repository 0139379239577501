package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/cache"
	"buchhaltung/internal/core"
	"buchhaltung/internal/ledger"
	"buchhaltung/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var march = core.Period{Year: 2025, Month: 3}.Range()

type fixture struct {
	store  *memory.Store
	ledger *ledger.Service
	gen    *Generator
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	store := memory.New()
	chart, err := accounts.LoadChart("")
	require.NoError(t, err)
	_, err = accounts.NewRegistry(store).Seed(context.Background(), chart)
	require.NoError(t, err)

	l := ledger.NewService(store, ledger.WithClock(func() time.Time { return time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC) }))
	g := NewGenerator(l, store, opts...)
	l.Subscribe(g)
	return fixture{store: store, ledger: l, gen: g}
}

func (f fixture) post(t *testing.T, req ledger.PostRequest) core.LedgerEntry {
	t.Helper()
	if req.BookingDate.IsZero() {
		req.BookingDate = core.NewDate(2025, 3, 10)
	}
	if req.Description == "" {
		req.Description = "Testbuchung"
	}
	e, err := f.ledger.PostEntry(context.Background(), req)
	require.NoError(t, err)
	return e
}

func TestIncomeStatementWages(t *testing.T) {
	f := newFixture(t)
	f.post(t, ledger.PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("3000")})
	// outside the range
	f.post(t, ledger.PostRequest{BookingDate: core.NewDate(2025, 4, 1), DebitAccount: "4120", CreditAccount: "1800", Amount: dec("3000")})

	rep, err := f.gen.IncomeStatement(context.Background(), march)
	require.NoError(t, err)
	assert.True(t, rep.Expenses.Wages.Equal(dec("3000")))
	assert.True(t, rep.TotalExpenses.Equal(dec("3000")))
	assert.True(t, rep.TotalRevenue.IsZero())
	assert.True(t, rep.ProfitLoss.Equal(dec("-3000")))
	assert.True(t, rep.Profit.IsZero())
	assert.True(t, rep.Loss.Equal(dec("3000")))
	assert.Equal(t, 1, rep.EntryCount)
}

func TestIncomeStatementBuckets(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		debit, credit, amount string
	}{
		{"1200", "8400", "1190"}, // commission
		{"1200", "8100", "500"},  // other revenue
		{"4130", "1800", "600"},  // social security
		{"4650", "1800", "200"},  // influencer commissions
		{"4670", "1800", "80"},   // travel
		{"6300", "1800", "150"},  // vehicle costs
		{"6310", "1800", "50"},   // vehicle costs
		{"4210", "1800", "900"},  // rent
		{"4360", "1800", "120"},  // insurance
		{"4630", "1800", "300"},  // marketing
		{"4970", "1800", "10"},   // other
		{"6220", "0690", "100"},  // depreciation counts as other expense
		{"1800", "1200", "1000"}, // balance sheet only
	}
	for _, c := range cases {
		f.post(t, ledger.PostRequest{DebitAccount: c.debit, CreditAccount: c.credit, Amount: dec(c.amount)})
	}

	rep, err := f.gen.IncomeStatement(context.Background(), march)
	require.NoError(t, err)
	want := map[string]decimal.Decimal{
		"commission":     rep.Revenue.Commission,
		"other revenue":  rep.Revenue.Other,
		"social":         rep.Expenses.SocialSecurity,
		"commissions":    rep.Expenses.Commissions,
		"travel":         rep.Expenses.Travel,
		"vehicle":        rep.Expenses.Vehicle,
		"rent":           rep.Expenses.Rent,
		"insurance":      rep.Expenses.Insurance,
		"marketing":      rep.Expenses.Marketing,
		"other expenses": rep.Expenses.Other,
	}
	expected := map[string]string{
		"commission": "1190", "other revenue": "500", "social": "600", "commissions": "200",
		"travel": "80", "vehicle": "200", "rent": "900", "insurance": "120", "marketing": "300",
		"other expenses": "110",
	}
	for k, v := range expected {
		assert.True(t, want[k].Equal(dec(v)), "%s: want %s got %s", k, v, want[k])
	}
	assert.True(t, rep.TotalRevenue.Equal(dec("1690")))
	assert.True(t, rep.TotalExpenses.Equal(dec("2510")))
	assert.True(t, rep.Loss.Equal(dec("820")))
}

func TestVATReturnLine20(t *testing.T) {
	f := newFixture(t)
	f.post(t, ledger.PostRequest{
		DebitAccount: "1200", CreditAccount: "8400", Amount: dec("119"),
		VATRate: core.Ptr(dec("19")), NetAmount: core.Ptr(dec("100")), VATAmount: core.Ptr(dec("19")),
	})

	rep, err := f.gen.VATReturn(context.Background(), march)
	require.NoError(t, err)
	assert.True(t, rep.Line20.Base.Equal(dec("100")))
	assert.True(t, rep.Line20.VAT.Equal(dec("19")))
	assert.True(t, rep.TotalOutputVAT.Equal(dec("19")))
	assert.True(t, rep.Payable.Equal(dec("19")))
	assert.True(t, rep.Refundable.IsZero())
}

func TestVATReturnBucketsAndInputVAT(t *testing.T) {
	f := newFixture(t)
	// 7 % with only the rate given: the ledger derives net and VAT
	f.post(t, ledger.PostRequest{DebitAccount: "1200", CreditAccount: "8300", Amount: dec("107"), VATRate: core.Ptr(dec("7"))})
	// other positive rate
	f.post(t, ledger.PostRequest{DebitAccount: "1200", CreditAccount: "8100", Amount: dec("116"), VATRate: core.Ptr(dec("16"))})
	// tax free revenue
	f.post(t, ledger.PostRequest{DebitAccount: "1200", CreditAccount: "8120", Amount: dec("250")})
	// purchase with input VAT
	f.post(t, ledger.PostRequest{DebitAccount: "4900", CreditAccount: "1800", Amount: dec("595"), VATRate: core.Ptr(dec("19"))})

	rep, err := f.gen.VATReturn(context.Background(), march)
	require.NoError(t, err)
	assert.True(t, rep.Line21.Base.Equal(dec("100")), rep.Line21.Base.String())
	assert.True(t, rep.Line21.VAT.Equal(dec("7")))
	assert.True(t, rep.Line22.Base.Equal(dec("100")))
	assert.True(t, rep.Line22.VAT.Equal(dec("16")))
	assert.True(t, rep.TaxFree.Equal(dec("250")))
	assert.True(t, rep.InputVAT.Equal(dec("95")))
	assert.True(t, rep.Balance.Equal(dec("-72")))
	assert.True(t, rep.Refundable.Equal(dec("72")))
	assert.True(t, rep.Payable.IsZero())
}

func TestVATBreakdownDerivesMissingParts(t *testing.T) {
	rate := dec("19")
	cases := []struct {
		name     string
		entry    core.LedgerEntry
		net, vat string
	}{
		{"both", core.LedgerEntry{Amount: dec("119"), NetAmount: core.Ptr(dec("100")), VATAmount: core.Ptr(dec("19"))}, "100", "19"},
		{"vat only", core.LedgerEntry{Amount: dec("119"), VATAmount: core.Ptr(dec("19"))}, "100", "19"},
		{"net only", core.LedgerEntry{Amount: dec("119"), NetAmount: core.Ptr(dec("100"))}, "100", "19"},
		{"rate only", core.LedgerEntry{Amount: dec("119")}, "100", "19"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			net, vat := vatBreakdown(tc.entry, rate)
			assert.True(t, net.Equal(dec(tc.net)), net.String())
			assert.True(t, vat.Equal(dec(tc.vat)), vat.String())
		})
	}
}

func TestReversalsNetOutOfReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.post(t, ledger.PostRequest{
		DebitAccount: "1200", CreditAccount: "8400", Amount: dec("119"), VATRate: core.Ptr(dec("19")),
	})
	_, err := f.ledger.ReverseEntryOn(ctx, e.ID, core.NewDate(2025, 3, 20))
	require.NoError(t, err)

	income, err := f.gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	assert.True(t, income.Revenue.Commission.IsZero())
	assert.Equal(t, 2, income.EntryCount)

	vat, err := f.gen.VATReturn(ctx, march)
	require.NoError(t, err)
	assert.True(t, vat.Line20.Base.IsZero())
	assert.True(t, vat.Line20.VAT.IsZero())

	tb, err := f.gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	for _, l := range tb.Lines {
		assert.True(t, l.Balance.IsZero(), l.AccountNumber)
		assert.True(t, l.DebitTotal.Equal(l.CreditTotal))
		assert.Equal(t, SideSettled, l.Side, "settled account %s carries no side", l.AccountNumber)
	}
}

func TestTrialBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, ledger.PostRequest{DebitAccount: "1200", CreditAccount: "8400", Amount: dec("1190")})
	f.post(t, ledger.PostRequest{DebitAccount: "1800", CreditAccount: "1200", Amount: dec("1000")})
	f.post(t, ledger.PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("300")})
	require.NoError(t, f.store.SetAccountActive(ctx, "4120", false))

	tb, err := f.gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	require.Len(t, tb.Lines, 4, "accounts without postings are left out")
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(dec("2490")))
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))

	byNumber := make(map[string]TrialBalanceLine)
	for _, l := range tb.Lines {
		byNumber[l.AccountNumber] = l
	}
	assert.Equal(t, "1200", tb.Lines[0].AccountNumber)

	receivables := byNumber["1200"]
	assert.True(t, receivables.DebitTotal.Equal(dec("1190")))
	assert.True(t, receivables.CreditTotal.Equal(dec("1000")))
	assert.True(t, receivables.Balance.Equal(dec("190")))
	assert.Equal(t, SideDebit, receivables.Side)

	revenue := byNumber["8400"]
	assert.Equal(t, SideCredit, revenue.Side)
	assert.True(t, revenue.Balance.Equal(dec("-1190")))

	wages := byNumber["4120"]
	assert.False(t, wages.Active)
	assert.True(t, wages.DebitTotal.Equal(dec("300")))
}

func TestTrialBalanceInvariantHoldsForManyPostings(t *testing.T) {
	f := newFixture(t)
	pairs := [][2]string{{"1200", "8400"}, {"4650", "1800"}, {"1800", "1200"}, {"4970", "1800"}, {"6220", "0690"}}
	for i := 0; i < 50; i++ {
		p := pairs[i%len(pairs)]
		amount := decimal.NewFromInt(int64(i + 1)).Mul(dec("13.37"))
		f.post(t, ledger.PostRequest{BookingDate: core.NewDate(2025, 3, 1+i%28), DebitAccount: p[0], CreditAccount: p[1], Amount: amount})
	}

	tb, err := f.gen.TrialBalance(context.Background(), march)
	require.NoError(t, err)
	assert.True(t, tb.Balanced)

	sumDebit, sumCredit, sumBalance := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range tb.Lines {
		sumDebit = sumDebit.Add(l.DebitTotal)
		sumCredit = sumCredit.Add(l.CreditTotal)
		sumBalance = sumBalance.Add(l.Balance)
	}
	assert.True(t, sumDebit.Equal(sumCredit))
	assert.True(t, sumBalance.IsZero())
}

func TestReportsRejectInvalidRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.gen.TrialBalance(context.Background(), core.DateRange{Start: core.NewDate(2025, 3, 31), End: core.NewDate(2025, 3, 1)})
	assert.ErrorIs(t, err, core.ErrValidation)
}

type countingSource struct {
	EntrySource
	calls int
}

func (c *countingSource) AllEntries(ctx context.Context, r core.DateRange) ([]core.LedgerEntry, error) {
	c.calls++
	return c.EntrySource.AllEntries(ctx, r)
}

func TestCachePurgedOnNewEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	src := &countingSource{EntrySource: f.ledger}
	gen := NewGenerator(src, f.store, WithCache(cache.NewLRUCache[any](16, time.Hour)))
	f.ledger.Subscribe(gen)

	f.post(t, ledger.PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("3000")})

	first, err := gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	again, err := gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, src.calls, "second call is served from the cache")

	f.post(t, ledger.PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("500")})
	after, err := gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.True(t, after.Expenses.Wages.Equal(dec("3500")))
}

type countingLedger struct {
	*ledger.Service
	calls int
}

func (c *countingLedger) AllEntries(ctx context.Context, r core.DateRange) ([]core.LedgerEntry, error) {
	c.calls++
	return c.Service.AllEntries(ctx, r)
}

func TestCacheSeesCommitsFromOtherProcesses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	src := &countingLedger{Service: f.ledger}
	gen := NewGenerator(src, f.store, WithCache(cache.NewLRUCache[any](16, time.Hour)))
	f.ledger.Subscribe(gen)

	first, err := gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	assert.True(t, first.Expenses.Wages.IsZero())

	_, err = gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "unchanged ledger is served from the cache")

	// a second service on the same store stands in for a worker process;
	// the generator is not subscribed to it
	worker := ledger.NewService(f.store)
	_, err = worker.PostEntry(ctx, ledger.PostRequest{
		BookingDate: core.NewDate(2025, 3, 20), DebitAccount: "4120", CreditAccount: "1800",
		Amount: dec("3000"), Description: "Gehalt März",
	})
	require.NoError(t, err)

	after, err := gen.IncomeStatement(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.True(t, after.Expenses.Wages.Equal(dec("3000")), "wages after committed posting: %s", after.Expenses.Wages)
}

func TestCachePurgedOnAccountChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gen := NewGenerator(f.ledger, f.store, WithCache(cache.NewLRUCache[any](16, time.Hour)))
	registry := accounts.NewRegistry(f.store)
	registry.OnChange(gen.AccountChanged)

	f.post(t, ledger.PostRequest{DebitAccount: "4120", CreditAccount: "1800", Amount: dec("300")})

	tb, err := gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	require.Len(t, tb.Lines, 2)
	assert.True(t, tb.Lines[1].Active)

	require.NoError(t, registry.Deactivate(ctx, "4120"))
	tb, err = gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	var wages TrialBalanceLine
	for _, l := range tb.Lines {
		if l.AccountNumber == "4120" {
			wages = l
		}
	}
	assert.False(t, wages.Active)

	require.NoError(t, registry.Activate(ctx, "4120"))
	tb, err = gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	for _, l := range tb.Lines {
		assert.True(t, l.Active, l.AccountNumber)
	}
}

func TestTrialBalanceHitsDoNotShareLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithCache(cache.NewLRUCache[any](16, time.Hour)))
	f.post(t, ledger.PostRequest{DebitAccount: "1200", CreditAccount: "8400", Amount: dec("119")})

	tb, err := f.gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	require.Len(t, tb.Lines, 2)
	tb.Lines[0].AccountName = "geändert"
	tb.Lines[0].Balance = dec("1")

	again, err := f.gen.TrialBalance(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, "1200", again.Lines[0].AccountNumber)
	assert.NotEqual(t, "geändert", again.Lines[0].AccountName)
	assert.True(t, again.Lines[0].Balance.Equal(dec("119")))
}
