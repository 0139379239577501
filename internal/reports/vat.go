package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

var (
	rateStandard = decimal.NewFromInt(19)
	rateReduced  = decimal.NewFromInt(7)
)

// VATLine is a tax base with the VAT due on it.
type VATLine struct {
	Base decimal.Decimal `json:"base"`
	VAT  decimal.Decimal `json:"vat"`
}

func (l *VATLine) add(base, vat decimal.Decimal) {
	l.Base = l.Base.Add(base)
	l.VAT = l.VAT.Add(vat)
}

// VATReturn is the UStVA of a date range. Line20 carries revenue taxed at
// 19 %, Line21 at 7 %, Line22 at any other positive rate.
type VATReturn struct {
	Period         core.DateRange  `json:"period"`
	Line20         VATLine         `json:"line20"`
	Line21         VATLine         `json:"line21"`
	Line22         VATLine         `json:"line22"`
	TaxFree        decimal.Decimal `json:"taxFree"`
	TotalOutputVAT decimal.Decimal `json:"totalOutputVat"`
	InputVAT       decimal.Decimal `json:"inputVat"`
	Balance        decimal.Decimal `json:"balance"`
	Payable        decimal.Decimal `json:"payable"`
	Refundable     decimal.Decimal `json:"refundable"`
}

// VATReturn buckets revenue postings by VAT rate and collects the input VAT
// of expense postings. Reversals net out against the original line.
func (g *Generator) VATReturn(ctx context.Context, r core.DateRange) (VATReturn, error) {
	return cached(ctx, g, KindVATReturn, r, buildVATReturn)
}

func buildVATReturn(r core.DateRange, s snapshot) VATReturn {
	rep := VATReturn{
		Period:  r,
		Line20:  VATLine{Base: decimal.Zero, VAT: decimal.Zero},
		Line21:  VATLine{Base: decimal.Zero, VAT: decimal.Zero},
		Line22:  VATLine{Base: decimal.Zero, VAT: decimal.Zero},
		TaxFree: decimal.Zero, InputVAT: decimal.Zero,
	}

	for _, e := range s.entries {
		debit, credit := s.category(e.DebitAccount), s.category(e.CreditAccount)

		switch {
		case credit.IsRevenue():
			rep.output(e, decimal.NewFromInt(1))
		case debit.IsRevenue():
			rep.output(e, decimal.NewFromInt(-1))
		}

		if e.VATAmount != nil && e.VATAmount.IsPositive() {
			switch {
			case debit.IsExpense():
				rep.InputVAT = rep.InputVAT.Add(*e.VATAmount)
			case credit.IsExpense():
				rep.InputVAT = rep.InputVAT.Sub(*e.VATAmount)
			}
		}
	}

	rep.TotalOutputVAT = decimal.Sum(rep.Line20.VAT, rep.Line21.VAT, rep.Line22.VAT)
	rep.Balance = rep.TotalOutputVAT.Sub(rep.InputVAT)
	rep.Payable = decimal.Max(rep.Balance, decimal.Zero)
	rep.Refundable = decimal.Max(rep.Balance.Neg(), decimal.Zero)
	return rep
}

// output books the revenue side of e with sign +1 or -1.
func (rep *VATReturn) output(e core.LedgerEntry, sign decimal.Decimal) {
	rate := decimal.Zero
	if e.VATRate != nil {
		rate = *e.VATRate
	}
	if !rate.IsPositive() {
		rep.TaxFree = rep.TaxFree.Add(e.Amount.Mul(sign))
		return
	}

	net, vat := vatBreakdown(e, rate)
	net, vat = net.Mul(sign), vat.Mul(sign)
	switch {
	case rate.Equal(rateStandard):
		rep.Line20.add(net, vat)
	case rate.Equal(rateReduced):
		rep.Line21.add(net, vat)
	default:
		rep.Line22.add(net, vat)
	}
}

// vatBreakdown uses the stored net and VAT amounts and derives them from the
// gross amount when the entry only carries a rate.
func vatBreakdown(e core.LedgerEntry, rate decimal.Decimal) (net, vat decimal.Decimal) {
	switch {
	case e.NetAmount != nil && e.VATAmount != nil:
		return *e.NetAmount, *e.VATAmount
	case e.VATAmount != nil:
		return e.Amount.Sub(*e.VATAmount), *e.VATAmount
	case e.NetAmount != nil:
		return *e.NetAmount, e.Amount.Sub(*e.NetAmount)
	}
	return core.SplitGross(e.Amount, rate)
}
