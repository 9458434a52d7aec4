package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext carries the fields of one lifecycle step so that every log line
// emitted while handling it can be correlated.
type LogContext struct {
	TraceID        string
	SpanID         string
	RunID          string // lifecycle run identifier
	Phase          string // connect, ensure, disconnect
	StoreName      string
	ConnectionName string
	StartTime      time.Time
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for the given run.
func NewLogContext(runID string) *LogContext {
	return &LogContext{
		RunID:     runID,
		StartTime: time.Now(),
	}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithPhase returns a copy with the phase set.
func (lc *LogContext) WithPhase(phase string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Phase = phase
	}
	return c
}

// WithConnection returns a copy bound to a single (store, connection) pair.
func (lc *LogContext) WithConnection(storeName, connectionName string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.StoreName = storeName
		c.ConnectionName = connectionName
		c.StartTime = time.Now()
	}
	return c
}

// WithTrace returns a copy with the trace identifiers set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// DurationMs returns the time since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
