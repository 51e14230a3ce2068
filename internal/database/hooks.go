package database

import (
	"time"

	"example.com/backstage/services/inventory/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "inventory:start_time"

// RegisterMetricsHooks records every create/query/update/delete in collector
func RegisterMetricsHooks(db *gorm.DB, collector *metrics.Collector) error {
	cb := db.Callback()

	hooks := []struct {
		name      string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
		queryType string
	}{
		{
			name:      "create",
			before:    cb.Create().Before("gorm:create").Register,
			after:     cb.Create().After("gorm:create").Register,
			queryType: metrics.DBQueryTypeInsert,
		},
		{
			name:      "query",
			before:    cb.Query().Before("gorm:query").Register,
			after:     cb.Query().After("gorm:query").Register,
			queryType: metrics.DBQueryTypeSelect,
		},
		{
			name:      "update",
			before:    cb.Update().Before("gorm:update").Register,
			after:     cb.Update().After("gorm:update").Register,
			queryType: metrics.DBQueryTypeUpdate,
		},
		{
			name:      "delete",
			before:    cb.Delete().Before("gorm:delete").Register,
			after:     cb.Delete().After("gorm:delete").Register,
			queryType: metrics.DBQueryTypeDelete,
		},
	}

	for _, h := range hooks {
		queryType := h.queryType
		if err := h.before("duration:"+h.name, markStart); err != nil {
			return err
		}
		err := h.after("metrics:"+h.name, func(tx *gorm.DB) {
			collector.RecordDatabaseQuery(queryType, tx.Error == nil || tx.Error == gorm.ErrRecordNotFound, elapsed(tx))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startTimeKey, time.Now())
}

func elapsed(tx *gorm.DB) time.Duration {
	if start, ok := tx.InstanceGet(startTimeKey); ok {
		if t, ok := start.(time.Time); ok {
			return time.Since(t)
		}
	}
	return 0
}
