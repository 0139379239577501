package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/core"
)

func newAccountsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect the chart of accounts",
	}
	cmd.AddCommand(newAccountsListCmd(app))
	return cmd
}

func newAccountsListCmd(app *App) *cobra.Command {
	var (
		search, typ string
		all         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List SKR04 accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := accounts.Query{Search: search, Type: core.AccountType(strings.ToUpper(typ))}
			if q.Type != "" && !q.Type.IsValid() {
				return &core.InvalidTypeError{Kind: "account type", Value: typ}
			}
			if !all {
				active := true
				q.Active = &active
			}
			list, err := app.Backend.Accounts.List(cmd.Context(), q)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "Konto\tBezeichnung\tTyp\tKategorie\tAktiv")
			for _, a := range list {
				activeMark := "ja"
				if !a.IsActive {
					activeMark = "nein"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Number, a.Name, a.Type, a.Category, activeMark)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d accounts\n", len(list))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "match number or name")
	cmd.Flags().StringVar(&typ, "type", "", "asset, liability, equity, revenue or expense")
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated accounts")
	return cmd
}
