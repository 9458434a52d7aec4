package metrics

import "time"

// LifecycleMetrics observes the connect, ensure and disconnect passes of the
// connection manager. A nil LifecycleMetrics is valid and records nothing.
//
// Example usage:
//
//	metrics.InitRegistry()
//	mgr, _ := manager.New(store, decls, manager.WithMetrics(metrics.NewLifecycleMetrics()))
type LifecycleMetrics interface {
	// ObserveHandler records one handler call. err is nil on success.
	ObserveHandler(phase, storeName string, duration time.Duration, err error)

	// ObserveSkipped records a declaration that a phase did not run.
	ObserveSkipped(phase, storeName string)

	// ObservePhase records the duration of a whole pass.
	ObservePhase(phase string, duration time.Duration)

	// SetLiveConnections sets the number of registered handles for a store.
	SetLiveConnections(storeName string, count int)
}

var newLifecycleMetrics func() LifecycleMetrics

// RegisterLifecycleMetricsConstructor is called by pkg/metrics/prometheus
// during package initialization.
func RegisterLifecycleMetricsConstructor(constructor func() LifecycleMetrics) {
	newLifecycleMetrics = constructor
}

// NewLifecycleMetrics returns the Prometheus implementation, or nil when
// metrics are disabled or no implementation is linked in.
func NewLifecycleMetrics() LifecycleMetrics {
	if !IsEnabled() || newLifecycleMetrics == nil {
		return nil
	}
	return newLifecycleMetrics()
}
