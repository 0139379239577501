package sheets

import (
	"fmt"
	"strings"

	"buchhaltung/internal/core"
	"buchhaltung/internal/export"
)

// TabName names the tab a table is written to: "2025 SUSA" for a calendar
// year, "2025-05 USTVA" for a month and "20250401-20250630 EUER" otherwise.
func TabName(t export.Table) string {
	r := t.Period
	switch {
	case isYear(r):
		return fmt.Sprintf("%d %s", r.Start.Year(), t.Name)
	case sameRange(core.PeriodOf(r.Start).Range(), r):
		return fmt.Sprintf("%s %s", core.PeriodOf(r.Start), t.Name)
	default:
		return fmt.Sprintf("%s-%s %s", r.Start.Format("20060102"), r.End.Format("20060102"), t.Name)
	}
}

func isYear(r core.DateRange) bool {
	y := r.Start.Year()
	return sameRange(r, core.DateRange{Start: core.NewDate(y, 1, 1), End: core.NewDate(y, 12, 31)})
}

func sameRange(a, b core.DateRange) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// Values lays a table out as sheet rows: the heading, a blank row, the
// column titles and the lines. Amounts become numbers.
func Values(t export.Table) [][]any {
	values := [][]any{{t.Heading()}, {}}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	values = append(values, header)
	for _, r := range t.Rows {
		row := make([]any, 0, len(r.Text)+len(r.Amounts))
		for _, s := range r.Text {
			row = append(row, s)
		}
		for _, a := range r.Amounts {
			row = append(row, a.Round(2).InexactFloat64())
		}
		values = append(values, row)
	}
	return values
}

// CellRef returns the A1 reference of a 1-based column and row.
func CellRef(col, row int) string {
	var letters strings.Builder
	var rev []byte
	for col > 0 {
		col--
		rev = append(rev, byte('A'+col%26))
		col /= 26
	}
	for i := len(rev) - 1; i >= 0; i-- {
		letters.WriteByte(rev[i])
	}
	return fmt.Sprintf("%s%d", letters.String(), row)
}
