package goSession

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/apierror"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	// MetricOperationSuccess counts Run calls that returned nil.
	MetricOperationSuccess MetricID = iota
	// MetricOperationFailure counts Run calls that returned an error.
	MetricOperationFailure
	MetricFailureNetwork
	MetricFailureTimeout
	MetricFailureValidation
	MetricFailureAuthentication
	MetricFailureAuthorization
	MetricFailureNotFound
	MetricFailureServer
	MetricFailureUnknown
	// MetricRetryAttempt counts scheduled retries, not first attempts.
	MetricRetryAttempt
	MetricRetryRecovered
	MetricRetryExhausted
	MetricRetryAborted
	MetricHTTPRequest
	MetricHTTPFailure
	// MetricForcedLogout counts sessions ended by the guard.
	MetricForcedLogout
	// MetricLogoutSuppressed counts authentication failures observed after
	// the session had already ended.
	MetricLogoutSuppressed
	// MetricAuthRejected counts authentication failures with a valid credential.
	MetricAuthRejected
	MetricNotificationSent
	MetricLogin
	MetricLogout
	// MetricRequestLatency is the HTTP round-trip histogram.
	MetricRequestLatency
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

// Metrics is a fixed set of lock-free counters. A nil *Metrics is a valid
// disabled instance.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a copy of every counter at one point in time.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id. Unknown ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricRequestLatency]
// has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters. A disabled instance returns empty maps.
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
		if id == MetricRequestLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

// FailureMetric returns the counter for failed operations of kind k.
func FailureMetric(k apierror.Kind) MetricID {
	switch k {
	case apierror.KindNetwork:
		return MetricFailureNetwork
	case apierror.KindTimeout:
		return MetricFailureTimeout
	case apierror.KindValidation:
		return MetricFailureValidation
	case apierror.KindAuthentication:
		return MetricFailureAuthentication
	case apierror.KindAuthorization:
		return MetricFailureAuthorization
	case apierror.KindNotFound:
		return MetricFailureNotFound
	case apierror.KindServer:
		return MetricFailureServer
	default:
		return MetricFailureUnknown
	}
}

// bucketIndex maps a round trip onto upper bounds of
// 25, 50, 100, 250, 500, 1000, 2500 ms and +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
