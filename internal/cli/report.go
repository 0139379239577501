package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"buchhaltung/internal/core"
	"buchhaltung/internal/export"
	"buchhaltung/internal/reports"
)

type reportFlags struct {
	from, to string
	jsonFile string
	csvFile  string
	sheet    bool
}

// builder produces the report data for --json and its table.
type builder func(ctx context.Context, g *reports.Generator, r core.DateRange) (any, export.Table, error)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print and export the EÜR, UStVA or Summen- und Saldenliste",
	}
	cmd.AddCommand(
		newReportSubCmd(app, "euer", "Einnahmen-Überschuss-Rechnung", func(ctx context.Context, g *reports.Generator, r core.DateRange) (any, export.Table, error) {
			s, err := g.IncomeStatement(ctx, r)
			return s, export.IncomeStatementTable(s), err
		}, summarizeIncome),
		newReportSubCmd(app, "ustva", "Umsatzsteuer-Voranmeldung", func(ctx context.Context, g *reports.Generator, r core.DateRange) (any, export.Table, error) {
			v, err := g.VATReturn(ctx, r)
			return v, export.VATReturnTable(v), err
		}, summarizeVAT),
		newReportSubCmd(app, "susa", "Summen- und Saldenliste", func(ctx context.Context, g *reports.Generator, r core.DateRange) (any, export.Table, error) {
			tb, err := g.TrialBalance(ctx, r)
			return tb, export.TrialBalanceTable(tb), err
		}, summarizeTrialBalance),
	)
	return cmd
}

func newReportSubCmd(app *App, use, short string, build builder, summarize func(any) string) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.sheet && app.Sheets == nil {
				return errors.New("sheet export is not configured, set GOOGLE_SPREADSHEET_ID")
			}
			r, err := reportRange(f.from, f.to, app)
			if err != nil {
				return err
			}
			data, table, err := build(cmd.Context(), app.Backend.Reports, r)
			if err != nil {
				return err
			}
			if err := printTable(cmd.OutOrStdout(), table); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summarize(data))
			return exportReport(cmd, app, f, data, table)
		},
	}
	cmd.Flags().StringVar(&f.from, "from", "", "first booking date as YYYY-MM-DD, 1 January by default")
	cmd.Flags().StringVar(&f.to, "to", "", "last booking date as YYYY-MM-DD, 31 December by default")
	cmd.Flags().StringVar(&f.jsonFile, "json", "", "also write the report as JSON to `FILE`")
	cmd.Flags().StringVar(&f.csvFile, "csv", "", "also write the table as CSV to `FILE`")
	cmd.Flags().BoolVar(&f.sheet, "sheet", false, "also write the table to the configured Google spreadsheet")
	return cmd
}

// reportRange defaults open bounds to the current calendar year.
func reportRange(from, to string, app *App) (core.DateRange, error) {
	year := app.Now().Year()
	start, end := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
	var err error
	if from != "" {
		if start, err = core.ParseDate(from); err != nil {
			return core.DateRange{}, err
		}
	}
	if to != "" {
		if end, err = core.ParseDate(to); err != nil {
			return core.DateRange{}, err
		}
	}
	return core.NewDateRange(start, end)
}

// exportReport runs every requested export and reports all failures.
func exportReport(cmd *cobra.Command, app *App, f reportFlags, data any, table export.Table) error {
	var errs error
	if f.jsonFile != "" {
		if err := export.WriteJSON(f.jsonFile, data); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", f.jsonFile)
		}
	}
	if f.csvFile != "" {
		if err := export.WriteCSV(f.csvFile, table); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", f.csvFile)
		}
	}
	if f.sheet {
		ref, err := app.Sheets.WriteReport(cmd.Context(), table)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sheet export: %w", err))
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", ref)
		}
	}
	return errs
}

func summarizeIncome(data any) string {
	s := data.(reports.IncomeStatement)
	if s.ProfitLoss.IsNegative() {
		return red.Sprintf("Verlust: %s EUR", export.FormatAmount(s.Loss))
	}
	return green.Sprintf("Gewinn: %s EUR", export.FormatAmount(s.Profit))
}

func summarizeVAT(data any) string {
	v := data.(reports.VATReturn)
	switch {
	case v.Payable.IsPositive():
		return yellow.Sprintf("Zahllast: %s EUR", export.FormatAmount(v.Payable))
	case v.Refundable.IsPositive():
		return green.Sprintf("Erstattung: %s EUR", export.FormatAmount(v.Refundable))
	default:
		return "Keine Zahllast"
	}
}

func summarizeTrialBalance(data any) string {
	tb := data.(reports.TrialBalance)
	if tb.Balanced {
		return green.Sprintf("Soll = Haben: %s EUR", export.FormatAmount(tb.TotalDebit))
	}
	return red.Sprintf("Differenz Soll/Haben: %s EUR", export.FormatAmount(tb.TotalDebit.Sub(tb.TotalCredit)))
}
