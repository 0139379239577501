package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"buchhaltung/internal/backend"
	"buchhaltung/internal/config"
	"buchhaltung/internal/log"
	"buchhaltung/internal/sheets"
)

// App is what the commands operate on.
type App struct {
	Backend *backend.Backend
	Sheets  sheets.ReportWriter
	Now     func() time.Time
}

// Opener builds the App before a command runs. The returned function
// releases it afterwards.
type Opener func(ctx context.Context) (*App, func() error, error)

// Open is the production Opener: .env, environment config, backend and the
// optional sheet exporter. Logs go to stderr so report output stays clean.
func Open(ctx context.Context) (*App, func() error, error) {
	LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logCfg := log.ConfigFromEnv(cfg.LogLevel, cfg.LogFormat, log.ComponentCLI)
	logCfg.Output = os.Stderr
	logger := log.Setup(logCfg)

	b, err := OpenBackend(ctx, cfg, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	w, err := OpenReportWriter(ctx, cfg)
	if err != nil {
		return nil, nil, multierr.Append(err, b.Close())
	}
	return &App{Backend: b, Sheets: w, Now: time.Now}, b.Close, nil
}

// NewRootCmd creates the buchctl command tree.
func NewRootCmd(open Opener) *cobra.Command {
	var (
		app     = &App{}
		release func() error
		colored bool
	)
	root := &cobra.Command{
		Use:           "buchctl",
		Short:         "buchctl operates the accounting core",
		Long:          `buchctl lists accounts, runs depreciation and prints or exports the EÜR, the UStVA and the Summen- und Saldenliste.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			color.NoColor = !colored
			a, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if a.Now == nil {
				a.Now = time.Now
			}
			*app = *a
			release = closeFn
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if release == nil {
				return nil
			}
			return release()
		},
	}
	root.PersistentFlags().BoolVar(&colored, "color", !color.NoColor, "highlight totals, losses and payables")

	root.AddCommand(newAccountsCmd(app))
	root.AddCommand(newDepreciationCmd(app))
	root.AddCommand(newReportCmd(app))
	return root
}

// Execute runs buchctl and exits non-zero on failure.
func Execute() {
	root := NewRootCmd(Open)
	cc.Init(&cc.Config{
		RootCmd:  root,
		Headings: cc.HiCyan + cc.Bold + cc.Underline,
		Commands: cc.HiYellow + cc.Bold,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}
