package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/cheggaaa/pb/v3"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"buchhaltung/internal/core"
	"buchhaltung/internal/depreciation"
	"buchhaltung/internal/export"
)

func newDepreciationCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depreciation",
		Short: "Run AfA depreciation",
	}
	cmd.AddCommand(newDepreciationRunCmd(app), newDepreciationBackfillCmd(app))
	return cmd
}

func newDepreciationRunCmd(app *App) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Depreciate one month, the current one by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := core.PeriodOf(app.Now())
			if period != "" {
				var err error
				if p, err = core.ParsePeriod(period); err != nil {
					return err
				}
			}
			summary, err := app.Backend.Engine.RunPeriod(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printSummaries(cmd, []depreciation.RunSummary{summary})
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "target month as YYYY-MM")
	return cmd
}

func newDepreciationBackfillCmd(app *App) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Depreciate every month of a range in order",
		Long:  `Depreciate every month from --from to --to inclusive. Months that were already booked are skipped, so a backfill can be repeated safely.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := core.ParsePeriod(from)
			if err != nil {
				return err
			}
			end := core.PeriodOf(app.Now())
			if to != "" {
				if end, err = core.ParsePeriod(to); err != nil {
					return err
				}
			}

			bar := pb.New(depreciation.Months(start, end)).SetWriter(cmd.ErrOrStderr())
			bar.Start()
			summaries, err := depreciation.Backfill(cmd.Context(), app.Backend.Engine, start, end,
				func(core.Period, depreciation.RunSummary) { bar.Increment() })
			bar.Finish()
			if perr := printSummaries(cmd, summaries); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first month as YYYY-MM")
	cmd.Flags().StringVar(&to, "to", "", "last month as YYYY-MM, the current month by default")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func printSummaries(cmd *cobra.Command, summaries []depreciation.RunSummary) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Periode\tgebucht\tübersprungen\tFehler\tBetrag\tDauer\t")
	failed := 0
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\t\n", s.Period(), s.Processed, s.Skipped, s.Failed,
			export.FormatAmount(s.TotalAmount), durafmt.Parse(s.Duration).LimitFirstN(1))
		failed += s.Failed
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, s := range summaries {
		for _, e := range s.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), red.Sprintf("%s %s: %s", s.Period(), e.AssetNumber, e.Error))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d asset runs failed", failed)
	}
	return nil
}
