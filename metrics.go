package vicbf

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	RecordInsert(duration time.Duration)

	// RecordQuery is called after each query operation. found reports the
	// membership verdict.
	RecordQuery(found bool, duration time.Duration)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration)

	// RecordSaturation is called when a counter wraps or saturates.
	RecordSaturation(index uint32)

	// RecordUnderflow is called when a delete drives a counter below zero,
	// which indicates deletion of a key that was not inserted.
	RecordUnderflow(index uint32)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration)      {}
func (NoopMetricsCollector) RecordQuery(bool, time.Duration) {}
func (NoopMetricsCollector) RecordDelete(time.Duration)      {}
func (NoopMetricsCollector) RecordSaturation(uint32)         {}
func (NoopMetricsCollector) RecordUnderflow(uint32)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryHits        atomic.Int64
	QueryTotalNanos  atomic.Int64
	DeleteCount      atomic.Int64
	DeleteTotalNanos atomic.Int64
	SaturationEvents atomic.Int64
	UnderflowEvents  atomic.Int64
}

func (c *BasicMetricsCollector) RecordInsert(d time.Duration) {
	c.InsertCount.Add(1)
	c.InsertTotalNanos.Add(int64(d))
}

func (c *BasicMetricsCollector) RecordQuery(found bool, d time.Duration) {
	c.QueryCount.Add(1)
	if found {
		c.QueryHits.Add(1)
	}
	c.QueryTotalNanos.Add(int64(d))
}

func (c *BasicMetricsCollector) RecordDelete(d time.Duration) {
	c.DeleteCount.Add(1)
	c.DeleteTotalNanos.Add(int64(d))
}

func (c *BasicMetricsCollector) RecordSaturation(uint32) {
	c.SaturationEvents.Add(1)
}

func (c *BasicMetricsCollector) RecordUnderflow(uint32) {
	c.UnderflowEvents.Add(1)
}
