package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

// OutcomeView is the printable form of a manager.Outcome.
type OutcomeView struct {
	Phase          string  `json:"phase" yaml:"phase"`
	StoreName      string  `json:"store_name" yaml:"store_name"`
	ConnectionName string  `json:"connection_name" yaml:"connection_name"`
	Status         string  `json:"status" yaml:"status"`
	DurationMs     float64 `json:"duration_ms" yaml:"duration_ms"`
	Error          string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReportView lists the outcomes of one or more phases in run order.
type ReportView struct {
	RunID    string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Outcomes []OutcomeView `json:"outcomes" yaml:"outcomes"`
	Callback string        `json:"callback_error,omitempty" yaml:"callback_error,omitempty"`
}

// NewReportView flattens reports into a single view.
func NewReportView(reports ...manager.Report) *ReportView {
	v := &ReportView{Outcomes: make([]OutcomeView, 0)}
	for _, r := range reports {
		for _, o := range r.Outcomes {
			ov := OutcomeView{
				Phase:          o.Phase.String(),
				StoreName:      o.StoreName,
				ConnectionName: o.ConnectionName,
				Status:         o.Status(),
				DurationMs:     float64(o.Duration) / float64(time.Millisecond),
			}
			if o.Err != nil {
				ov.Error = o.Err.Error()
			}
			v.Outcomes = append(v.Outcomes, ov)
		}
	}
	return v
}

// NewInitReportView builds the view of an Init run.
func NewInitReportView(r manager.InitReport) *ReportView {
	v := NewReportView(r.Connect, r.Ensure)
	v.RunID = r.RunID
	if r.CallbackErr != nil {
		v.Callback = r.CallbackErr.Error()
	}
	return v
}

// Headers implements TableRenderer.
func (v *ReportView) Headers() []string {
	return []string{"Phase", "Store", "Connection", "Status", "Duration", "Error"}
}

// Rows implements TableRenderer.
func (v *ReportView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Outcomes))
	for _, o := range v.Outcomes {
		rows = append(rows, []string{
			o.Phase,
			o.StoreName,
			o.ConnectionName,
			o.Status,
			strconv.FormatFloat(o.DurationMs, 'f', 1, 64) + "ms",
			o.Error,
		})
	}
	return rows
}

// Failed returns the number of failed outcomes.
func (v *ReportView) Failed() int {
	n := 0
	for _, o := range v.Outcomes {
		if o.Status == "failed" {
			n++
		}
	}
	return n
}

// ConnectionView is the printable form of a registered connection.
type ConnectionView struct {
	StoreName      string `json:"store_name" yaml:"store_name"`
	ConnectionName string `json:"connection_name" yaml:"connection_name"`
	Type           string `json:"type" yaml:"type"`
}

// ConnectionList renders registered connections.
type ConnectionList []ConnectionView

// NewConnectionList converts registry entries, keeping their order.
func NewConnectionList(ncs []registry.NamedConnection) ConnectionList {
	out := make(ConnectionList, 0, len(ncs))
	for _, nc := range ncs {
		out = append(out, ConnectionView{
			StoreName:      nc.StoreName,
			ConnectionName: nc.ConnectionName,
			Type:           fmt.Sprintf("%T", nc.Connection),
		})
	}
	return out
}

// Headers implements TableRenderer.
func (l ConnectionList) Headers() []string {
	return []string{"Store", "Connection", "Type"}
}

// Rows implements TableRenderer.
func (l ConnectionList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{c.StoreName, c.ConnectionName, c.Type})
	}
	return rows
}
