package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

type Revenue struct {
	Commission decimal.Decimal `json:"commission"`
	Other      decimal.Decimal `json:"other"`
	Total      decimal.Decimal `json:"total"`
}

type Expenses struct {
	Wages          decimal.Decimal `json:"wages"`
	SocialSecurity decimal.Decimal `json:"socialSecurity"`
	Commissions    decimal.Decimal `json:"commissions"`
	Travel         decimal.Decimal `json:"travel"`
	Vehicle        decimal.Decimal `json:"vehicle"`
	Rent           decimal.Decimal `json:"rent"`
	Insurance      decimal.Decimal `json:"insurance"`
	Marketing      decimal.Decimal `json:"marketing"`
	Other          decimal.Decimal `json:"other"`
	Total          decimal.Decimal `json:"total"`
}

// IncomeStatement is the EÜR of a date range.
type IncomeStatement struct {
	Period        core.DateRange  `json:"period"`
	Revenue       Revenue         `json:"revenue"`
	Expenses      Expenses        `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
	Profit        decimal.Decimal `json:"profit"`
	Loss          decimal.Decimal `json:"loss"`
	EntryCount    int             `json:"entryCount"`
}

// IncomeStatement sums credits to revenue accounts and debits to expense
// accounts. Postings on the opposite side of such an account, stornos and
// refunds, are subtracted from the same line.
func (g *Generator) IncomeStatement(ctx context.Context, r core.DateRange) (IncomeStatement, error) {
	return cached(ctx, g, KindIncomeStatement, r, buildIncomeStatement)
}

func buildIncomeStatement(r core.DateRange, s snapshot) IncomeStatement {
	rep := IncomeStatement{Period: r, EntryCount: len(s.entries)}
	lines := map[core.AccountCategory]*decimal.Decimal{
		core.CategoryRevenueCommission:     &rep.Revenue.Commission,
		core.CategoryRevenueOther:          &rep.Revenue.Other,
		core.CategoryExpenseWages:          &rep.Expenses.Wages,
		core.CategoryExpenseSocialSecurity: &rep.Expenses.SocialSecurity,
		core.CategoryExpenseCommissions:    &rep.Expenses.Commissions,
		core.CategoryExpenseTravel:         &rep.Expenses.Travel,
		core.CategoryExpenseVehicle:        &rep.Expenses.Vehicle,
		core.CategoryExpenseRent:           &rep.Expenses.Rent,
		core.CategoryExpenseInsurance:      &rep.Expenses.Insurance,
		core.CategoryExpenseMarketing:      &rep.Expenses.Marketing,
		core.CategoryExpenseOther:          &rep.Expenses.Other,
	}
	for _, d := range lines {
		*d = decimal.Zero
	}

	book := func(c core.AccountCategory, amount decimal.Decimal) {
		if line, ok := lines[c]; ok {
			*line = line.Add(amount)
		}
	}
	for _, e := range s.entries {
		debit, credit := s.category(e.DebitAccount), s.category(e.CreditAccount)
		switch {
		case credit.IsRevenue():
			book(credit, e.Amount)
		case credit.IsExpense():
			book(credit, e.Amount.Neg())
		}
		switch {
		case debit.IsExpense():
			book(debit, e.Amount)
		case debit.IsRevenue():
			book(debit, e.Amount.Neg())
		}
	}

	rep.Revenue.Total = rep.Revenue.Commission.Add(rep.Revenue.Other)
	x := &rep.Expenses
	x.Total = decimal.Sum(x.Wages, x.SocialSecurity, x.Commissions, x.Travel,
		x.Vehicle, x.Rent, x.Insurance, x.Marketing, x.Other)

	rep.TotalRevenue = rep.Revenue.Total
	rep.TotalExpenses = x.Total
	rep.ProfitLoss = rep.TotalRevenue.Sub(rep.TotalExpenses)
	rep.Profit = decimal.Max(rep.ProfitLoss, decimal.Zero)
	rep.Loss = decimal.Max(rep.ProfitLoss.Neg(), decimal.Zero)
	return rep
}
