package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"buchhaltung/internal/core"
	"buchhaltung/internal/reports"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var q2 = core.DateRange{Start: core.NewDate(2025, 4, 1), End: core.NewDate(2025, 6, 30)}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"119", "119,00"},
		{"1234.5", "1.234,50"},
		{"-98765.432", "-98.765,43"},
		{"1000000", "1.000.000,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(dec(tt.in)), tt.in)
	}
}

func TestTrialBalanceTableAddsTotals(t *testing.T) {
	tb := reports.TrialBalance{
		Period: q2,
		Lines: []reports.TrialBalanceLine{
			{AccountNumber: "1800", AccountName: "Bank", Active: true, DebitTotal: dec("119"), CreditTotal: dec("0"), Balance: dec("119"), Side: reports.SideDebit},
			{AccountNumber: "4400", AccountName: "Erlöse 19 % USt", Active: false, DebitTotal: dec("0"), CreditTotal: dec("119"), Balance: dec("-119"), Side: reports.SideCredit},
		},
		TotalDebit:  dec("119"),
		TotalCredit: dec("119"),
		Balanced:    true,
	}
	table := TrialBalanceTable(tb)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, NameTrialBalance, table.Name)
	assert.Equal(t, "Erlöse 19 % USt (inaktiv)", table.Rows[1].Text[1])
	assert.True(t, table.Rows[1].Amounts[2].Equal(dec("119")))
	last := table.Rows[2]
	assert.True(t, last.Total)
	assert.True(t, last.Amounts[2].IsZero())
	assert.Equal(t, "Summen- und Saldenliste 01.04.2025 bis 30.06.2025", table.Heading())
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ustva.json")
	v := reports.VATReturn{Period: q2, Line20: reports.VATLine{Base: dec("100"), VAT: dec("19")}, Payable: dec("19")}
	require.NoError(t, WriteJSON(path, v))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "19", got["payable"])

	require.Error(t, WriteJSON(filepath.Join(t.TempDir(), "missing", "x.json"), v))
}

func TestWriteCSVUsesWindows1252(t *testing.T) {
	path := filepath.Join(t.TempDir(), "euer.csv")
	s := reports.IncomeStatement{Period: q2, TotalRevenue: dec("1234.5"), ProfitLoss: dec("1234.5")}
	require.NoError(t, WriteCSV(path, IncomeStatementTable(s)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(decoded)), "\n")
	assert.Equal(t, "Position;Betrag", lines[0])
	assert.Contains(t, lines, "Summe Einnahmen;1234,50")
	assert.Contains(t, string(decoded), "Provisionserlöse;0,00")
	assert.NotContains(t, string(raw), "ö", "umlauts are single byte encoded")
}
