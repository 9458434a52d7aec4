package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/connmgr/internal/cli/output"
	"github.com/marmos91/connmgr/pkg/config"
	"github.com/marmos91/connmgr/pkg/registry"
)

var checkOutput string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect, ensure and disconnect every configured connection once",
	Long: `Run a full lifecycle against every configured connection and print
the outcome of each step. The command fails when any step failed.

Examples:
  # Check the default configuration
  connmgr check

  # Machine-readable report
  connmgr check --output json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(checkOutput)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store := registry.NewConnectionStore()
	mgr, err := config.InitializeManager(cfg, store)
	if err != nil {
		return err
	}

	initReport := mgr.Init(ctx, nil)
	live := output.NewConnectionList(store.GetNamedConnections())

	disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	disconnectReport := mgr.Disconnect(disconnectCtx)

	view := output.NewInitReportView(initReport)
	view.Outcomes = append(view.Outcomes, output.NewReportView(disconnectReport).Outcomes...)

	printer := output.NewPrinter(cmd.OutOrStdout(), format, false)
	if err := printer.Print(view); err != nil {
		return err
	}
	if format == output.FormatTable {
		printer.Println()
		if err := printer.Print(live); err != nil {
			return err
		}
	}

	if failed := view.Failed(); failed > 0 || view.Callback != "" {
		return fmt.Errorf("%d of %d lifecycle steps failed", failed, len(view.Outcomes))
	}
	return nil
}
