package metrics

// BadgerMetrics reports BadgerDB cache statistics for badger-backed
// connections. A nil BadgerMetrics is valid and records nothing.
type BadgerMetrics interface {
	// RecordCacheStats records the current hit/miss counters and hit ratio of
	// one cache ("block" or "index") of a named connection.
	RecordCacheStats(connectionName, cacheType string, hits, misses uint64, ratio float64)
}

var newBadgerMetrics func() BadgerMetrics

// RegisterBadgerMetricsConstructor is called by pkg/metrics/prometheus during
// package initialization.
func RegisterBadgerMetricsConstructor(constructor func() BadgerMetrics) {
	newBadgerMetrics = constructor
}

// NewBadgerMetrics returns nil when metrics are disabled.
func NewBadgerMetrics() BadgerMetrics {
	if !IsEnabled() || newBadgerMetrics == nil {
		return nil
	}
	return newBadgerMetrics()
}
