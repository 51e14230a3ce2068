package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	c := NewCollector()
	c.RecordHTTPRequest("/api/v1/deliveries", http.StatusCreated, 10*time.Millisecond)
	c.RecordHTTPRequest("/api/v1/deliveries", http.StatusBadRequest, 30*time.Millisecond)

	snap := c.Snapshot()
	counters := snap["counters"].(map[string]int64)
	require.EqualValues(t, 2, counters[CounterHTTPRequests])
	require.EqualValues(t, 1, counters[CounterHTTPRequestsError])
	require.Equal(t, 20.0, snap["request_latencies_ms"].(map[string]float64)["/api/v1/deliveries"])
	require.False(t, c.Healthy())
}

func TestSamplesAreBounded(t *testing.T) {
	c := NewCollector()
	c.maxSamples = 3
	for i := 0; i < 10; i++ {
		c.RecordDatabaseQuery(DBQueryTypeSelect, true, time.Millisecond)
	}
	require.Len(t, c.databaseLatencies[DBQueryTypeSelect], 3)
	require.EqualValues(t, 10, c.Counter(CounterDBQueriesTotal))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.IncrementCounter(CounterRateLimited, 1)
	c.RecordError(ErrorTypeInternal)
}
