package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/connmgr/pkg/metrics"
)

// badgerMetrics is the Prometheus implementation of metrics.BadgerMetrics.
type badgerMetrics struct {
	cacheHitRatio *prometheus.GaugeVec
	cacheHits     *prometheus.GaugeVec
	cacheMisses   *prometheus.GaugeVec
}

var (
	badgerMu       sync.Mutex
	badgerInstance *badgerMetrics
	badgerRegistry *prometheus.Registry
)

// NewBadgerMetrics creates the Prometheus-backed BadgerDB metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBadgerMetrics() *badgerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	badgerMu.Lock()
	defer badgerMu.Unlock()

	reg := metrics.GetRegistry()
	if badgerInstance == nil || badgerRegistry != reg {
		factory := promauto.With(reg)
		badgerRegistry = reg
		labels := []string{"connection", "cache_type"} // cache_type: block, index
		badgerInstance = &badgerMetrics{
			cacheHitRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "connmgr_badger_cache_hit_ratio",
				Help: "BadgerDB cache hit ratio (0.0 to 1.0) by connection and cache type",
			}, labels),
			cacheHits: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "connmgr_badger_cache_hits",
				Help: "BadgerDB cache hits since open by connection and cache type",
			}, labels),
			cacheMisses: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "connmgr_badger_cache_misses",
				Help: "BadgerDB cache misses since open by connection and cache type",
			}, labels),
		}
	}
	return badgerInstance
}

func (m *badgerMetrics) RecordCacheStats(connectionName, cacheType string, hits, misses uint64, ratio float64) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(connectionName, cacheType).Set(float64(hits))
	m.cacheMisses.WithLabelValues(connectionName, cacheType).Set(float64(misses))
	m.cacheHitRatio.WithLabelValues(connectionName, cacheType).Set(ratio)
}
