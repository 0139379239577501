package reports

import (
	"context"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

// Balance sides of a trial balance line: Soll (debit) and Haben (credit).
// A settled account carries no side.
const (
	SideDebit   = "S"
	SideCredit  = "H"
	SideSettled = ""
)

// TrialBalanceLine is one account of the list. Balance is the debit total
// minus the credit total; Side tells which side carries it.
type TrialBalanceLine struct {
	AccountNumber string           `json:"accountNumber"`
	AccountName   string           `json:"accountName"`
	AccountType   core.AccountType `json:"accountType,omitempty"`
	Active        bool             `json:"active"`
	DebitTotal    decimal.Decimal  `json:"debitTotal"`
	CreditTotal   decimal.Decimal  `json:"creditTotal"`
	Balance       decimal.Decimal  `json:"balance"`
	Side          string           `json:"side,omitempty"`
}

// TrialBalance is the Summen- und Saldenliste of a date range.
type TrialBalance struct {
	Period      core.DateRange     `json:"period"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"totalDebit"`
	TotalCredit decimal.Decimal    `json:"totalCredit"`
	Balanced    bool               `json:"balanced"`
}

// TrialBalance sums every account's debit and credit postings. Accounts
// without activity in the range are left out. Deactivated accounts with
// postings stay in and are flagged, so the grand totals always match.
func (g *Generator) TrialBalance(ctx context.Context, r core.DateRange) (TrialBalance, error) {
	tb, err := cached(ctx, g, KindTrialBalance, r, buildTrialBalance)
	if err != nil {
		return TrialBalance{}, err
	}
	// cached reports share their lines
	tb.Lines = slices.Clone(tb.Lines)
	return tb, nil
}

func buildTrialBalance(r core.DateRange, s snapshot) TrialBalance {
	rep := TrialBalance{Period: r, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}

	lines := make(map[string]*TrialBalanceLine)
	line := func(number string) *TrialBalanceLine {
		if l, ok := lines[number]; ok {
			return l
		}
		l := &TrialBalanceLine{AccountNumber: number, DebitTotal: decimal.Zero, CreditTotal: decimal.Zero}
		if a, ok := s.accounts[number]; ok {
			l.AccountName, l.AccountType, l.Active = a.Name, a.Type, a.IsActive
		}
		lines[number] = l
		return l
	}

	for _, e := range s.entries {
		d := line(e.DebitAccount)
		d.DebitTotal = d.DebitTotal.Add(e.Amount)
		c := line(e.CreditAccount)
		c.CreditTotal = c.CreditTotal.Add(e.Amount)
		rep.TotalDebit = rep.TotalDebit.Add(e.Amount)
		rep.TotalCredit = rep.TotalCredit.Add(e.Amount)
	}

	rep.Lines = make([]TrialBalanceLine, 0, len(lines))
	for _, l := range lines {
		l.Balance = l.DebitTotal.Sub(l.CreditTotal)
		switch l.Balance.Sign() {
		case 1:
			l.Side = SideDebit
		case -1:
			l.Side = SideCredit
		default:
			l.Side = SideSettled
		}
		rep.Lines = append(rep.Lines, *l)
	}
	sort.Slice(rep.Lines, func(i, j int) bool { return rep.Lines[i].AccountNumber < rep.Lines[j].AccountNumber })

	rep.Balanced = rep.TotalDebit.Equal(rep.TotalCredit)
	return rep
}
