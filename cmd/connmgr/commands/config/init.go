package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/connmgr/pkg/config"
)

var force bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a configuration file holding the defaults and one in-memory
BadgerDB connection.

Examples:
  # Write to the default location
  connmgr config init

  # Write to a custom path, replacing an existing file
  connmgr config init --config ./connmgr.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Declare your connections under 'connections'")
	_, _ = fmt.Fprintf(out, "  2. Check them with: connmgr check --config %s\n", path)
	_, _ = fmt.Fprintf(out, "  3. Run with: connmgr run --config %s\n", path)
	return nil
}
