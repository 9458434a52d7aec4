package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

func sampleInitReport() manager.InitReport {
	return manager.InitReport{
		RunID: "run-1",
		Connect: manager.Report{
			Phase: manager.PhaseConnect,
			Outcomes: []manager.Outcome{
				{StoreName: "postgres", ConnectionName: "primary", Phase: manager.PhaseConnect, Duration: 1500 * time.Microsecond},
				{StoreName: "postgres", ConnectionName: "replica", Phase: manager.PhaseConnect, Err: errors.New("refused")},
			},
		},
		Ensure: manager.Report{
			Phase: manager.PhaseEnsure,
			Outcomes: []manager.Outcome{
				{StoreName: "postgres", ConnectionName: "primary", Phase: manager.PhaseEnsure},
				{StoreName: "postgres", ConnectionName: "replica", Phase: manager.PhaseEnsure, Skipped: true},
			},
		},
		CallbackErr: errors.New("callback failed"),
	}
}

func TestInitReportView(t *testing.T) {
	v := NewInitReportView(sampleInitReport())

	assert.Equal(t, "run-1", v.RunID)
	assert.Equal(t, "callback failed", v.Callback)
	require.Len(t, v.Outcomes, 4)
	assert.Equal(t, 1, v.Failed())

	rows := v.Rows()
	assert.Equal(t, []string{"connect", "postgres", "primary", "ok", "1.5ms", ""}, rows[0])
	assert.Equal(t, []string{"connect", "postgres", "replica", "failed", "0.0ms", "refused"}, rows[1])
	assert.Equal(t, "skipped", rows[3][3])
}

func TestReportViewTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(NewInitReportView(sampleInitReport())))

	out := buf.String()
	assert.Contains(t, out, "PHASE")
	assert.Contains(t, out, "replica")
	assert.Contains(t, out, "refused")
}

func TestReportViewJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, NewReportView(sampleInitReport().Connect)))
	assert.Contains(t, buf.String(), `"error": "refused"`)
	assert.NotContains(t, buf.String(), "run_id")
}

func TestConnectionList(t *testing.T) {
	store := registry.NewConnectionStore()
	_, _ = store.AddNamedConnection("postgres", "primary", &struct{}{})
	_, _ = store.AddNamedConnection("badger", "cache", "handle")

	list := NewConnectionList(store.GetNamedConnections())
	assert.Equal(t, [][]string{
		{"postgres", "primary", "*struct {}"},
		{"badger", "cache", "string"},
	}, list.Rows())

	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, list))
	assert.Contains(t, buf.String(), "connection_name: cache")
}

func TestEmptyViews(t *testing.T) {
	assert.Empty(t, NewReportView().Rows())
	assert.Empty(t, NewConnectionList(nil).Rows())
}
