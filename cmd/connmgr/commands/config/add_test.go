package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/connmgr/internal/cli/prompt"
	"github.com/marmos91/connmgr/pkg/config"
)

// scriptedAsker answers prompts in order and records the labels it was asked.
type scriptedAsker struct {
	answers []any
	labels  []string
}

func (s *scriptedAsker) next(label string) any {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		return prompt.ErrAborted
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a
}

func (s *scriptedAsker) str(label string) (string, error) {
	switch v := s.next(label).(type) {
	case error:
		return "", v
	case string:
		return v, nil
	default:
		return "", errors.New("unexpected answer type")
	}
}

func (s *scriptedAsker) Input(label, _ string) (string, error) { return s.str(label) }
func (s *scriptedAsker) InputRequired(label string) (string, error) { return s.str(label) }
func (s *scriptedAsker) Password(label string) (string, error) { return s.str(label) }
func (s *scriptedAsker) Select(label string, _ []prompt.SelectOption) (string, error) {
	return s.str(label)
}
func (s *scriptedAsker) Confirm(label string, _ bool) (bool, error) {
	switch v := s.next(label).(type) {
	case error:
		return false, v
	case bool:
		return v, nil
	default:
		return false, errors.New("unexpected answer type")
	}
}

func TestAskConnectionPostgres(t *testing.T) {
	a := &scriptedAsker{answers: []any{"postgres", "primary", true, "db.local", "app", "app_user", "s3cret"}}

	conn, err := askConnection(a)
	require.NoError(t, err)

	assert.Equal(t, "postgres", conn.StoreName)
	assert.Equal(t, "primary", conn.ConnectionName)
	assert.True(t, conn.ShouldEnsure)
	assert.Equal(t, map[string]any{
		"host":     "db.local",
		"database": "app",
		"user":     "app_user",
		"password": "s3cret",
	}, conn.Props)
}

func TestAskConnectionBadgerInMemory(t *testing.T) {
	a := &scriptedAsker{answers: []any{"badger", "cache", false, true}}

	conn, err := askConnection(a)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"in_memory": true}, conn.Props)
	assert.False(t, conn.ShouldEnsure)
}

func TestAskConnectionS3WithoutKeys(t *testing.T) {
	a := &scriptedAsker{answers: []any{"s3", "assets", true, "bucket-1", "eu-west-1", "", ""}}

	conn, err := askConnection(a)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"bucket": "bucket-1", "region": "eu-west-1"}, conn.Props)
	assert.NotContains(t, a.labels, "Secret access key")
}

func TestAskConnectionAborted(t *testing.T) {
	a := &scriptedAsker{answers: []any{"sqlite"}}

	_, err := askConnection(a)
	assert.ErrorIs(t, err, prompt.ErrAborted)
}

func TestConnectionFromFlags(t *testing.T) {
	conn, err := connectionFromFlags("badger", "cache", true, []string{"In_Memory=true", "gc_discard_ratio=0.7", "sync_writes=false"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"in_memory":        true,
		"gc_discard_ratio": "0.7",
		"sync_writes":      false,
	}, conn.Props)

	_, err = connectionFromFlags("badger", "cache", false, []string{"novalue"})
	assert.ErrorContains(t, err, "expected key=value")
}

func TestRunConfigAddWithFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := config.GetDefaultConfigPath()
	require.NoError(t, config.SaveConfig(config.GetDefaultConfig(), path))

	addStore, addName, addEnsure = "sqlite", "app", true
	addProps = []string{"path=" + filepath.Join(t.TempDir(), "app.db")}
	t.Cleanup(func() {
		addStore, addName, addEnsure, addProps = "", "", false, nil
	})

	var buf bytes.Buffer
	addCmd.SetOut(&buf)
	require.NoError(t, runConfigAdd(addCmd, nil))
	assert.Contains(t, buf.String(), "Added sqlite['app']")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Connections, 2)
	assert.Equal(t, "app", cfg.Connections[1].ConnectionName)
	assert.True(t, cfg.Connections[1].ShouldEnsure)
}
