// Package export turns reports into tables and writes them to files.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
	"buchhaltung/internal/reports"
)

// Row is a table line: leading text cells followed by amounts.
type Row struct {
	Text    []string
	Amounts []decimal.Decimal
	Total   bool
}

// Table is a report laid out for printing, CSV files and spreadsheet tabs.
// Name is the short report name (EUER, USTVA, SUSA).
type Table struct {
	Name    string
	Title   string
	Period  core.DateRange
	Columns []string
	Rows    []Row
}

// Report names.
const (
	NameIncomeStatement = "EUER"
	NameVATReturn       = "USTVA"
	NameTrialBalance    = "SUSA"
)

func periodLabel(r core.DateRange) string {
	return fmt.Sprintf("%s bis %s", r.Start.Format("02.01.2006"), r.End.Format("02.01.2006"))
}

// Heading is the title line including the period.
func (t Table) Heading() string {
	return fmt.Sprintf("%s %s", t.Title, periodLabel(t.Period))
}

func line(label string, amounts ...decimal.Decimal) Row {
	return Row{Text: []string{label}, Amounts: amounts}
}

func total(label string, amounts ...decimal.Decimal) Row {
	return Row{Text: []string{label}, Amounts: amounts, Total: true}
}

func IncomeStatementTable(s reports.IncomeStatement) Table {
	return Table{
		Name:    NameIncomeStatement,
		Title:   "Einnahmen-Überschuss-Rechnung",
		Period:  s.Period,
		Columns: []string{"Position", "Betrag"},
		Rows: []Row{
			line("Provisionserlöse", s.Revenue.Commission),
			line("Sonstige Erlöse", s.Revenue.Other),
			total("Summe Einnahmen", s.TotalRevenue),
			line("Löhne und Gehälter", s.Expenses.Wages),
			line("Soziale Abgaben", s.Expenses.SocialSecurity),
			line("Provisionen", s.Expenses.Commissions),
			line("Reisekosten", s.Expenses.Travel),
			line("Kfz-Kosten", s.Expenses.Vehicle),
			line("Miete", s.Expenses.Rent),
			line("Versicherungen", s.Expenses.Insurance),
			line("Werbekosten", s.Expenses.Marketing),
			line("Sonstige Ausgaben", s.Expenses.Other),
			total("Summe Ausgaben", s.TotalExpenses),
			total("Gewinn/Verlust", s.ProfitLoss),
		},
	}
}

func VATReturnTable(v reports.VATReturn) Table {
	return Table{
		Name:    NameVATReturn,
		Title:   "Umsatzsteuer-Voranmeldung",
		Period:  v.Period,
		Columns: []string{"Zeile", "Bemessungsgrundlage", "Steuer"},
		Rows: []Row{
			line("Zeile 20 (19 %)", v.Line20.Base, v.Line20.VAT),
			line("Zeile 21 (7 %)", v.Line21.Base, v.Line21.VAT),
			line("Zeile 22 (andere Steuersätze)", v.Line22.Base, v.Line22.VAT),
			line("Steuerfreie Umsätze", v.TaxFree, decimal.Zero),
			total("Umsatzsteuer", decimal.Zero, v.TotalOutputVAT),
			line("Abziehbare Vorsteuer", decimal.Zero, v.InputVAT),
			total("Zahllast/Erstattung", decimal.Zero, v.Balance),
		},
	}
}

func TrialBalanceTable(tb reports.TrialBalance) Table {
	t := Table{
		Name:    NameTrialBalance,
		Title:   "Summen- und Saldenliste",
		Period:  tb.Period,
		Columns: []string{"Konto", "Bezeichnung", "S/H", "Soll", "Haben", "Saldo"},
	}
	for _, l := range tb.Lines {
		name := l.AccountName
		if !l.Active {
			name += " (inaktiv)"
		}
		t.Rows = append(t.Rows, Row{
			Text:    []string{l.AccountNumber, name, l.Side},
			Amounts: []decimal.Decimal{l.DebitTotal, l.CreditTotal, l.Balance.Abs()},
		})
	}
	t.Rows = append(t.Rows, Row{
		Text:    []string{"", "Summe", ""},
		Amounts: []decimal.Decimal{tb.TotalDebit, tb.TotalCredit, tb.TotalDebit.Sub(tb.TotalCredit).Abs()},
		Total:   true,
	})
	return t
}
