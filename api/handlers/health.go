package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"example.com/backstage/services/inventory/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger checks a backing service
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness and the metrics snapshot
type HealthHandler struct {
	collector *metrics.Collector
	checks    map[string]Pinger
	log       *logrus.Logger
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(collector *metrics.Collector, checks map[string]Pinger, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		collector: collector,
		checks:    checks,
		log:       log,
	}
}

// HealthCheck handles health check requests
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.WithError(err).WithField("component", name).Warn("Health check failed")
			components[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"service":    "Inventory Service",
		"components": components,
	})
}

// Metrics returns the collected counters plus runtime info
func (h *HealthHandler) Metrics(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	data := h.collector.Snapshot()
	data["runtime"] = gin.H{
		"goroutines": runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc_bytes":  memStats.Alloc,
			"sys_bytes":    memStats.Sys,
			"heap_objects": memStats.HeapObjects,
			"gc_cycles":    memStats.NumGC,
		},
	}
	data["error_rate_healthy"] = h.collector.Healthy()
	c.JSON(http.StatusOK, data)
}
