package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/connmgr/internal/cli/prompt"
	"github.com/marmos91/connmgr/pkg/config"
	"github.com/marmos91/connmgr/pkg/registry"
)

var (
	addStore  string
	addName   string
	addEnsure bool
	addProps  []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection to the configuration file",
	Long: `Append a connection declaration to the configuration file.

Without --store and --name the command asks for the connection details
interactively. With both flags set no prompt is shown and props come from
--set key=value pairs.

Examples:
  # Interactive
  connmgr config add

  # Scripted
  connmgr config add --store postgres --name primary --ensure \
    --set dsn=postgres://app@localhost/app`,
	RunE: runConfigAdd,
}

func init() {
	addCmd.Flags().StringVar(&addStore, "store", "", "Store name (postgres, badger, sqlite, gorm, s3)")
	addCmd.Flags().StringVar(&addName, "name", "", "Connection name")
	addCmd.Flags().BoolVar(&addEnsure, "ensure", false, "Run the ensure handler for this connection")
	addCmd.Flags().StringArrayVar(&addProps, "set", nil, "Handler prop as key=value (repeatable)")
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	var conn config.ConnectionConfig
	if addStore != "" && addName != "" {
		conn, err = connectionFromFlags(addStore, addName, addEnsure, addProps)
	} else {
		conn, err = askConnection(promptAsker{})
	}
	if err != nil {
		if prompt.IsAborted(err) {
			return fmt.Errorf("aborted")
		}
		return err
	}

	cfg.Connections = append(cfg.Connections, conn)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s['%s'] to %s\n", conn.StoreName, conn.ConnectionName, path)
	return nil
}

func connectionFromFlags(store, name string, ensure bool, pairs []string) (config.ConnectionConfig, error) {
	props := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return config.ConnectionConfig{}, fmt.Errorf("invalid prop %q: expected key=value", p)
		}
		props[strings.ToLower(k)] = parseValue(v)
	}
	return config.ConnectionConfig{
		StoreName:      store,
		ConnectionName: name,
		ShouldEnsure:   ensure,
		Props:          props,
	}, nil
}

// parseValue keeps booleans and integers typed so that the YAML output reads
// naturally. Everything else stays a string.
func parseValue(v string) any {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return v
}

// asker is the subset of the prompt package used to build a connection.
type asker interface {
	Input(label, defaultValue string) (string, error)
	InputRequired(label string) (string, error)
	Password(label string) (string, error)
	Select(label string, options []prompt.SelectOption) (string, error)
	Confirm(label string, defaultYes bool) (bool, error)
}

type promptAsker struct{}

func (promptAsker) Input(label, def string) (string, error) { return prompt.Input(label, def) }
func (promptAsker) InputRequired(label string) (string, error) { return prompt.InputRequired(label) }
func (promptAsker) Password(label string) (string, error) { return prompt.Password(label) }
func (promptAsker) Confirm(label string, def bool) (bool, error) {
	return prompt.Confirm(label, def)
}
func (promptAsker) Select(label string, options []prompt.SelectOption) (string, error) {
	return prompt.Select(label, options)
}

var storeOptions = []prompt.SelectOption{
	{Label: "PostgreSQL", Value: registry.StorePostgres, Description: "pgx connection pool with migrations"},
	{Label: "BadgerDB", Value: registry.StoreBadger, Description: "embedded key-value database"},
	{Label: "SQLite", Value: registry.StoreSQLite, Description: "SQLite database through gorm"},
	{Label: "S3", Value: registry.StoreS3, Description: "S3 compatible bucket"},
}

func askConnection(a asker) (config.ConnectionConfig, error) {
	var conn config.ConnectionConfig

	store, err := a.Select("Store", storeOptions)
	if err != nil {
		return conn, err
	}
	name, err := a.InputRequired("Connection name")
	if err != nil {
		return conn, err
	}
	ensure, err := a.Confirm("Run ensure on startup", true)
	if err != nil {
		return conn, err
	}

	props, err := askProps(a, store)
	if err != nil {
		return conn, err
	}

	return config.ConnectionConfig{
		StoreName:      store,
		ConnectionName: name,
		ShouldEnsure:   ensure,
		Props:          props,
	}, nil
}

func askProps(a asker, store string) (map[string]any, error) {
	props := map[string]any{}
	set := func(key string, value string, err error) error {
		if err != nil {
			return err
		}
		if value != "" {
			props[key] = value
		}
		return nil
	}

	switch store {
	case registry.StorePostgres:
		v, err := a.Input("Host", "localhost")
		if err := set("host", v, err); err != nil {
			return nil, err
		}
		v, err = a.InputRequired("Database")
		if err := set("database", v, err); err != nil {
			return nil, err
		}
		v, err = a.InputRequired("User")
		if err := set("user", v, err); err != nil {
			return nil, err
		}
		v, err = a.Password("Password")
		if err := set("password", v, err); err != nil {
			return nil, err
		}
	case registry.StoreBadger:
		inMemory, err := a.Confirm("In-memory database", false)
		if err != nil {
			return nil, err
		}
		if inMemory {
			props["in_memory"] = true
			break
		}
		v, err := a.InputRequired("Path")
		if err := set("path", v, err); err != nil {
			return nil, err
		}
	case registry.StoreSQLite:
		v, err := a.InputRequired("Path")
		if err := set("path", v, err); err != nil {
			return nil, err
		}
	case registry.StoreS3:
		v, err := a.InputRequired("Bucket")
		if err := set("bucket", v, err); err != nil {
			return nil, err
		}
		v, err = a.Input("Region", "us-east-1")
		if err := set("region", v, err); err != nil {
			return nil, err
		}
		v, err = a.Input("Endpoint (empty for AWS)", "")
		if err := set("endpoint", v, err); err != nil {
			return nil, err
		}
		v, err = a.Input("Access key ID (empty for the default chain)", "")
		if err := set("access_key_id", v, err); err != nil {
			return nil, err
		}
		if v != "" {
			v, err = a.Password("Secret access key")
			if err := set("secret_access_key", v, err); err != nil {
				return nil, err
			}
		}
	}
	return props, nil
}
