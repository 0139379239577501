package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"buchhaltung/internal/export"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

// printTable renders t with right aligned German amounts. Total rows are
// bold and negative amounts red. Padding is computed on the plain text so
// colour codes do not shift the columns.
func printTable(w io.Writer, t export.Table) error {
	cells := make([][]string, 0, len(t.Rows)+1)
	cells = append(cells, t.Columns)
	for _, r := range t.Rows {
		row := append([]string(nil), r.Text...)
		for _, a := range r.Amounts {
			row = append(row, export.FormatAmount(a))
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(t.Columns))
	for _, row := range cells {
		for i, c := range row {
			if n := utf8.RuneCountInString(c); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	if _, err := fmt.Fprintln(w, bold.Sprint(t.Heading())); err != nil {
		return err
	}
	for i, row := range cells {
		var (
			textCols = len(t.Columns)
			rowSpec  export.Row
		)
		if i > 0 {
			rowSpec = t.Rows[i-1]
			textCols = len(rowSpec.Text)
		}
		parts := make([]string, len(row))
		for j, c := range row {
			pad := strings.Repeat(" ", widths[j]-utf8.RuneCountInString(c))
			if j < textCols {
				parts[j] = c + pad
			} else {
				parts[j] = pad + c
			}
			if i == 0 || rowSpec.Total {
				parts[j] = bold.Sprint(parts[j])
			}
			if j >= textCols && rowSpec.Amounts[j-textCols].IsNegative() {
				parts[j] = red.Sprint(parts[j])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}
