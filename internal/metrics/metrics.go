package metrics

import (
	"sync"
	"time"
)

// Collector keeps in-process counters and latency samples
type Collector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	gauges              map[string]float64
	requestCounts       map[string]int64
	requestLatencies    map[string][]time.Duration
	databaseQueryCounts map[string]int64
	databaseLatencies   map[string][]time.Duration
	errorCounts         map[string]int64
	startTime           time.Time
	maxSamples          int
}

// Counter metrics
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"
	CounterDeliveriesCreated   = "deliveries_created_total"
	CounterReturnsCreated      = "returns_created_total"
	CounterValidationFailures  = "aggregate_validation_failures_total"
	CounterRateLimited         = "rate_limited_total"
	CounterEventsPublished     = "events_published_total"
	CounterDBQueriesTotal      = "db_queries_total"
	CounterDBQueriesError      = "db_queries_error_total"
	CounterErrorsTotal         = "errors_total"
)

// Gauge metrics
const (
	GaugeSystemMemory  = "system_memory_bytes"
	GaugeLimiterKeys   = "rate_limiter_keys"
	GaugeExpiredPasswd = "users_with_expired_password"
)

// Database query types
const (
	DBQueryTypeSelect = "select"
	DBQueryTypeInsert = "insert"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
)

// Error types
const (
	ErrorTypeHTTP        = "http"
	ErrorTypeValidation  = "validation"
	ErrorTypeDatabase    = "database"
	ErrorTypeMessaging   = "messaging"
	ErrorTypeInternal    = "internal"
	ErrorTypeRateLimiter = "ratelimiter"
)

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		counters:            make(map[string]int64),
		gauges:              make(map[string]float64),
		requestCounts:       make(map[string]int64),
		requestLatencies:    make(map[string][]time.Duration),
		databaseQueryCounts: make(map[string]int64),
		databaseLatencies:   make(map[string][]time.Duration),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxSamples:          1000,
	}
}

// IncrementCounter increments a counter by the given value
func (m *Collector) IncrementCounter(name string, value int64) {
	if m == nil {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += value
}

// SetGauge sets a gauge to the given value
func (m *Collector) SetGauge(name string, value float64) {
	if m == nil {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gauges[name] = value
}

// Counter returns the current value of a counter
func (m *Collector) Counter(name string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.counters[name]
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *Collector) RecordHTTPRequest(path string, statusCode int, latency time.Duration) {
	if m == nil {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterHTTPRequests]++
	m.requestCounts[path]++
	m.requestLatencies[path] = m.appendSample(m.requestLatencies[path], latency)

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordDatabaseQuery records metrics for a database query
func (m *Collector) RecordDatabaseQuery(queryType string, success bool, latency time.Duration) {
	if m == nil {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.databaseQueryCounts[queryType]++
	m.counters[CounterDBQueriesTotal]++
	if !success {
		m.counters[CounterDBQueriesError]++
		m.errorCounts[ErrorTypeDatabase]++
	}
	m.databaseLatencies[queryType] = m.appendSample(m.databaseLatencies[queryType], latency)
}

// RecordError records an error of the given type
func (m *Collector) RecordError(errorType string) {
	if m == nil {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errorCounts[errorType]++
	m.counters[CounterErrorsTotal]++
}

// appendSample keeps at most maxSamples, dropping the oldest. Caller holds the lock.
func (m *Collector) appendSample(samples []time.Duration, v time.Duration) []time.Duration {
	if len(samples) >= m.maxSamples {
		samples = samples[1:]
	}
	return append(samples, v)
}

// Snapshot returns all collected metrics in a structured format
func (m *Collector) Snapshot() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":        time.Since(m.startTime).Seconds(),
		"counters":              copyInt(m.counters),
		"gauges":                copyFloat(m.gauges),
		"request_counts":        copyInt(m.requestCounts),
		"request_latencies_ms":  averages(m.requestLatencies),
		"database_query_counts": copyInt(m.databaseQueryCounts),
		"database_latencies_ms": averages(m.databaseLatencies),
		"error_counts":          copyInt(m.errorCounts),
	}
}

// Healthy is false once more than 5% of requests failed
func (m *Collector) Healthy() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := m.counters[CounterHTTPRequests]
	if total == 0 {
		return true
	}
	return float64(m.counters[CounterHTTPRequestsError])/float64(total) <= 0.05
}

func averages(in map[string][]time.Duration) map[string]float64 {
	out := make(map[string]float64, len(in))
	for key, samples := range in {
		if len(samples) == 0 {
			continue
		}
		var sum time.Duration
		for _, s := range samples {
			sum += s
		}
		out[key] = float64(sum.Milliseconds()) / float64(len(samples))
	}
	return out
}

func copyInt(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyFloat(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
