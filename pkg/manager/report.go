package manager

import (
	"errors"
	"fmt"
	"time"
)

// Phase names a lifecycle pass.
type Phase string

const (
	PhaseConnect    Phase = "connect"
	PhaseEnsure     Phase = "ensure"
	PhaseDisconnect Phase = "disconnect"
)

func (p Phase) String() string { return string(p) }

// Outcome is the result of one declaration in one phase.
type Outcome struct {
	StoreName      string        `json:"store_name"`
	ConnectionName string        `json:"connection_name"`
	Phase          Phase         `json:"phase"`
	Skipped        bool          `json:"skipped,omitempty"`
	Err            error         `json:"-"`
	Duration       time.Duration `json:"duration"`
}

// OK reports whether the handler ran and succeeded.
func (o Outcome) OK() bool {
	return !o.Skipped && o.Err == nil
}

// Status returns "ok", "failed" or "skipped".
func (o Outcome) Status() string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Err != nil:
		return "failed"
	default:
		return "ok"
	}
}

// Report collects the outcomes of one phase, in declaration order.
type Report struct {
	Phase    Phase         `json:"phase"`
	Outcomes []Outcome     `json:"outcomes"`
	Duration time.Duration `json:"duration"`
}

func (r Report) Succeeded() int {
	return r.count(func(o Outcome) bool { return o.OK() })
}

func (r Report) Failed() int {
	return r.count(func(o Outcome) bool { return o.Err != nil })
}

func (r Report) Skipped() int {
	return r.count(func(o Outcome) bool { return o.Skipped })
}

func (r Report) count(pred func(Outcome) bool) int {
	n := 0
	for _, o := range r.Outcomes {
		if pred(o) {
			n++
		}
	}
	return n
}

// Failures returns only the failed outcomes.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the errors of all failed outcomes, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failures() {
		errs = append(errs, fmt.Errorf("%s %s['%s']: %w", r.Phase, o.StoreName, o.ConnectionName, o.Err))
	}
	return errors.Join(errs...)
}

// InitReport is the result of Init.
type InitReport struct {
	RunID   string `json:"run_id"`
	Connect Report `json:"connect"`
	Ensure  Report `json:"ensure"`

	// CallbackErr is the error returned (or the panic recovered) from the
	// completion callback.
	CallbackErr error `json:"-"`
}

// Err joins every failure of the run, callback included.
func (r InitReport) Err() error {
	return errors.Join(r.Connect.Err(), r.Ensure.Err(), r.CallbackErr)
}
