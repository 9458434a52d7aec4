// Package prometheus provides the Prometheus-backed implementations of the
// interfaces in pkg/metrics. Importing it (usually with a blank import from the
// composition root) registers the constructors.
package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/connmgr/pkg/metrics"
)

func init() {
	metrics.RegisterLifecycleMetricsConstructor(func() metrics.LifecycleMetrics {
		if m := NewLifecycleMetrics(); m != nil {
			return m
		}
		return nil
	})
	metrics.RegisterBadgerMetricsConstructor(func() metrics.BadgerMetrics {
		if m := NewBadgerMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// lifecycleMetrics is the Prometheus implementation of metrics.LifecycleMetrics.
type lifecycleMetrics struct {
	outcomes        *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	phaseDuration   *prometheus.HistogramVec
	liveConnections *prometheus.GaugeVec
}

var (
	lifecycleMu       sync.Mutex
	lifecycleInstance *lifecycleMetrics
	lifecycleRegistry *prometheus.Registry
)

// NewLifecycleMetrics returns the lifecycle metrics bound to the process
// registry. The collectors are registered once per registry and shared.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewLifecycleMetrics() *lifecycleMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	reg := metrics.GetRegistry()
	if lifecycleInstance == nil || lifecycleRegistry != reg {
		factory := promauto.With(reg)
		lifecycleRegistry = reg
		lifecycleInstance = &lifecycleMetrics{
			outcomes: factory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "connmgr_lifecycle_outcomes_total",
					Help: "Lifecycle handler outcomes by phase, store and result",
				},
				[]string{"phase", "store", "result"}, // result: success, failure, skipped
			),
			handlerDuration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "connmgr_handler_duration_seconds",
					Help:    "Duration of lifecycle handler calls",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"phase", "store"},
			),
			phaseDuration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "connmgr_phase_duration_seconds",
					Help:    "Duration of a full pass over all declarations",
					Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
				},
				[]string{"phase"},
			),
			liveConnections: factory.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "connmgr_live_connections",
					Help: "Number of connection handles currently registered per store",
				},
				[]string{"store"},
			),
		}
	}
	return lifecycleInstance
}

func (m *lifecycleMetrics) ObserveHandler(phase, storeName string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.outcomes.WithLabelValues(phase, storeName, result).Inc()
	m.handlerDuration.WithLabelValues(phase, storeName).Observe(duration.Seconds())
}

func (m *lifecycleMetrics) ObserveSkipped(phase, storeName string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(phase, storeName, "skipped").Inc()
}

func (m *lifecycleMetrics) ObservePhase(phase string, duration time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

func (m *lifecycleMetrics) SetLiveConnections(storeName string, count int) {
	if m == nil {
		return
	}
	m.liveConnections.WithLabelValues(storeName).Set(float64(count))
}
