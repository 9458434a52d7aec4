package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/connmgr/internal/cli/output"
	"github.com/marmos91/connmgr/pkg/config"
	"github.com/marmos91/connmgr/pkg/drivers"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the connmgr configuration file.

Checks for syntax errors, missing required fields and invalid values, and
warns about connections whose handlers are not built in.

Examples:
  # Validate default config
  connmgr config validate

  # Validate specific config file
  connmgr config validate --config /etc/connmgr/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	warnings, err := lint(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.PrintKeyValues(out, [][2]string{
		{"Connections", strconv.Itoa(len(cfg.Connections))},
		{"API enabled", fmt.Sprintf("%t (port %d)", cfg.API.IsEnabled(), cfg.API.Port)},
		{"Metrics enabled", strconv.FormatBool(cfg.Metrics.Enabled)},
		{"Log level", cfg.Logging.Level},
	})
}

// lint reports declarations that will fail at runtime without being invalid:
// unknown handlers and duplicate keys.
func lint(cfg *config.Config) ([]string, error) {
	catalog, err := drivers.NewCatalog()
	if err != nil {
		return nil, err
	}

	var warnings []string
	seen := make(map[[2]string]bool)
	for _, d := range config.BuildDeclarations(cfg) {
		key := [2]string{d.StoreName, d.ConnectionName}
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("%s is declared more than once; the last connection wins", d.Key()))
		}
		seen[key] = true

		service := d.ServicePath
		if service == "" {
			service = d.StoreName
		}
		for _, name := range handlerNames(d.ConnectHandlerName, d.EnsureHandlerName, d.DisconnectHandlerName, d.ShouldEnsure) {
			if _, ok := catalog.Lookup(service, name); !ok {
				warnings = append(warnings, fmt.Sprintf("%s: no built-in handler %s.%s", d.Key(), service, name))
			}
		}
	}
	return warnings, nil
}

func handlerNames(connect, ensure, disconnect string, shouldEnsure bool) []string {
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	names := []string{orDefault(connect, "connect")}
	if shouldEnsure {
		names = append(names, orDefault(ensure, "ensure"))
	}
	return append(names, orDefault(disconnect, "disconnect"))
}
