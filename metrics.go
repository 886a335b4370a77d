package portalgate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that produced a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credentials.
	MetricLoginFailure
	// MetricLoginBackendError counts verifier failures other than rejection.
	MetricLoginBackendError
	// MetricSessionCreated counts sessions issued by the store.
	MetricSessionCreated
	// MetricCheckAllowed counts gateway checks answered with allow.
	MetricCheckAllowed
	// MetricCheckDenied counts gateway checks answered with deny.
	MetricCheckDenied
	// MetricLogout counts logouts that revoked a live session.
	MetricLogout
	// MetricAssertionIssued counts signed assertions attached to allowed checks.
	MetricAssertionIssued
	// MetricAssertionFailure counts assertion signing errors.
	MetricAssertionFailure
	// MetricCheckLatency is the gateway check latency histogram.
	MetricCheckLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. A nil or disabled Metrics
// ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters. Histogram buckets
// are non-cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricCheckLatency has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricCheckLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricCheckLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricCheckLatency].buckets[i])
		}
		s.Histograms[MetricCheckLatency] = buckets
	}

	return s
}

// Check latency is in-memory; buckets are sub-millisecond through 250ms.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 100:
		return 0
	case us <= 250:
		return 1
	case us <= 500:
		return 2
	case us <= 1000:
		return 3
	case us <= 5000:
		return 4
	case us <= 25000:
		return 5
	case us <= 250000:
		return 6
	default:
		return 7
	}
}
