package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	t.Cleanup(func() {
		cfgFile = ""
		checkOutput = "table"
		root.SetArgs(nil)
	})
	err := root.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "connmgr dev")
}

func TestCheckSucceeds(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: ERROR
api:
  enabled: false
connections:
  - store_name: badger
    connection_name: cache
    should_ensure: true
    props:
      in_memory: true
  - store_name: sqlite
    connection_name: app
    should_ensure: true
    props:
      path: ":memory:"
`)

	out, err := execute(t, "check", "--config", path, "--output", "json")
	require.NoError(t, err)

	var view struct {
		RunID    string `json:"run_id"`
		Outcomes []struct {
			Phase  string `json:"phase"`
			Status string `json:"status"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.NotEmpty(t, view.RunID)
	require.Len(t, view.Outcomes, 6)
	for _, o := range view.Outcomes {
		assert.Equal(t, "ok", o.Status, o.Phase)
	}
}

func TestCheckReportsFailures(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: ERROR
connections:
  - store_name: badger
    connection_name: cache
    props:
      in_memory: true
  - store_name: mongo
    connection_name: main
`)

	out, err := execute(t, "check", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lifecycle steps failed")
	assert.Contains(t, out, "mongo")
	assert.Contains(t, out, "failed")
}

func TestCheckMissingConfig(t *testing.T) {
	_, err := execute(t, "check", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestConfigInitValidateShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connmgr", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created")
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Regexp(t, `Connections\s*:?\s*1`, out)
	assert.NotContains(t, out, "Warnings")

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "store_name: badger")
}

func TestConfigValidateWarnings(t *testing.T) {
	path := writeConfig(t, `
connections:
  - store_name: badger
    connection_name: cache
    props:
      in_memory: true
  - store_name: badger
    connection_name: cache
    props:
      in_memory: true
  - store_name: mongo
    connection_name: main
`)

	out, err := execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "badger['cache'] is declared more than once")
	assert.Contains(t, out, "no built-in handler mongo.connect")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "connections")
	assert.Contains(t, props, "shutdown_timeout")
}
