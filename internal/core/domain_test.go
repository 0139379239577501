package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() LedgerEntry {
	return LedgerEntry{
		BookingDate:   NewDate(2025, 3, 1),
		DebitAccount:  "1800",
		CreditAccount: "8400",
		Amount:        dec("119"),
		VATRate:       Ptr(dec("19")),
		NetAmount:     Ptr(dec("100")),
		VATAmount:     Ptr(dec("19")),
		Description:   "Provision Buchung 42",
		SourceType:    SourceCommission,
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	require.NoError(t, validEntry().Validate())

	same := validEntry()
	same.CreditAccount = same.DebitAccount
	var sameErr *SameAccountError
	assert.True(t, errors.As(same.Validate(), &sameErr))

	zero := validEntry()
	zero.Amount = dec("0")
	var amtErr *InvalidAmountError
	assert.True(t, errors.As(zero.Validate(), &amtErr))

	badVAT := validEntry()
	badVAT.VATAmount = Ptr(dec("20"))
	assert.ErrorIs(t, badVAT.Validate(), ErrValidation)

	noNet := validEntry()
	noNet.NetAmount = nil
	assert.ErrorIs(t, noNet.Validate(), ErrValidation)

	badAcct := validEntry()
	badAcct.DebitAccount = "18"
	var acctErr *InvalidAccountError
	assert.True(t, errors.As(badAcct.Validate(), &acctErr))

	badSource := validEntry()
	badSource.SourceType = "BOGUS"
	var typeErr *InvalidTypeError
	assert.True(t, errors.As(badSource.Validate(), &typeErr))
}

func TestClassifyAccount(t *testing.T) {
	cases := map[string]AccountCategory{
		"8400": CategoryRevenueCommission,
		"8300": CategoryRevenueOther,
		"4120": CategoryExpenseWages,
		"4130": CategoryExpenseSocialSecurity,
		"4650": CategoryExpenseCommissions,
		"4670": CategoryExpenseTravel,
		"6310": CategoryExpenseVehicle,
		"4210": CategoryExpenseRent,
		"4360": CategoryExpenseInsurance,
		"4630": CategoryExpenseMarketing,
		"6220": CategoryExpenseOther,
		"4900": CategoryExpenseOther,
		"1800": CategoryBalanceSheet,
		"3806": CategoryBalanceSheet,
	}
	for number, want := range cases {
		assert.Equal(t, want, ClassifyAccount(number), number)
	}
	assert.True(t, CategoryExpenseVehicle.IsExpense())
	assert.True(t, CategoryRevenueOther.IsRevenue())
	assert.False(t, CategoryBalanceSheet.IsExpense())
}

func TestAssetValidate(t *testing.T) {
	good := Asset{
		Name:               "Reifenmontiermaschine",
		Category:           "equipment",
		AcquisitionDate:    NewDate(2025, 1, 10),
		AcquisitionCost:    dec("6000"),
		UsefulLife:         5,
		DepreciationMethod: MethodLinear,
		BookValue:          dec("6000"),
	}
	require.NoError(t, good.Validate())

	bads := []func(a *Asset){
		func(a *Asset) { a.Name = "" },
		func(a *Asset) { a.AcquisitionCost = dec("0") },
		func(a *Asset) { a.UsefulLife = 0 },
		func(a *Asset) { a.DepreciationMethod = "SUM_OF_YEARS" },
		func(a *Asset) { a.ResidualValue = dec("6000") },
		func(a *Asset) { a.BookValue = dec("6000.01") },
	}
	for i, mutate := range bads {
		a := good
		mutate(&a)
		assert.Error(t, a.Validate(), "case %d expected error", i)
	}
}

func TestEntryFilterMatches(t *testing.T) {
	e := validEntry()
	e.EntryNumber = "BU-000042"
	yes, no := true, false

	assert.True(t, EntryFilter{}.Matches(e))
	assert.True(t, EntryFilter{From: NewDate(2025, 3, 1), To: NewDate(2025, 3, 1)}.Matches(e))
	assert.False(t, EntryFilter{From: NewDate(2025, 3, 2)}.Matches(e))
	assert.True(t, EntryFilter{AccountFrom: "8000", AccountTo: "8999"}.Matches(e))
	assert.False(t, EntryFilter{AccountFrom: "4000", AccountTo: "4999"}.Matches(e))
	assert.True(t, EntryFilter{MinAmount: Ptr(dec("119")), MaxAmount: Ptr(dec("119"))}.Matches(e))
	assert.False(t, EntryFilter{MinAmount: Ptr(dec("119.01"))}.Matches(e))
	assert.True(t, EntryFilter{Storno: &no}.Matches(e))
	assert.False(t, EntryFilter{Storno: &yes}.Matches(e))
	assert.True(t, EntryFilter{Search: "000042"}.Matches(e))
	assert.True(t, EntryFilter{Search: "provision"}.Matches(e))
	assert.False(t, EntryFilter{Search: "miete"}.Matches(e))
	assert.False(t, EntryFilter{SourceType: SourceManual}.Matches(e))
}

func TestPeriod(t *testing.T) {
	p := Period{Year: 2024, Month: 2}
	assert.Equal(t, NewDate(2024, 2, 29), p.End())
	assert.Equal(t, Period{Year: 2024, Month: 3}, p.Next())
	assert.Equal(t, Period{Year: 2025, Month: 1}, Period{Year: 2024, Month: 12}.Next())
	assert.True(t, p.Before(Period{Year: 2024, Month: 3}))
	assert.Error(t, Period{Year: 2024, Month: 13}.Validate())

	parsed, err := ParsePeriod("2025-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-07", parsed.String())
}
