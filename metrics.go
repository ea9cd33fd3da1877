package hefty

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives one call per pipeline or cleanup operation. See the
// metrics/prometheus package for a Prometheus implementation.
type MetricsCollector interface {
	// RecordInline is called for every payload sent inline, tombstones excluded.
	RecordInline(bytes int)

	// RecordStore is called after each blob write. err is nil if successful.
	RecordStore(bytes int, duration time.Duration, err error)

	// RecordRetrieve is called after each blob read. err is nil if successful.
	RecordRetrieve(bytes int, duration time.Duration, err error)

	// RecordCleanup is called after each cleanup with the number of deleted and failed keys.
	RecordCleanup(deleted, failed int, duration time.Duration)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInline(int)                         {}
func (NoopMetricsCollector) RecordStore(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordRetrieve(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCleanup(int, int, time.Duration)    {}

// BasicMetricsCollector keeps in-memory counters. Useful for tests and debugging.
type BasicMetricsCollector struct {
	InlineCount    atomic.Int64
	InlineBytes    atomic.Int64
	StoreCount     atomic.Int64
	StoreErrors    atomic.Int64
	StoreBytes     atomic.Int64
	RetrieveCount  atomic.Int64
	RetrieveErrors atomic.Int64
	RetrieveBytes  atomic.Int64
	DeletedCount   atomic.Int64
	DeleteFailures atomic.Int64
}

func (c *BasicMetricsCollector) RecordInline(bytes int) {
	c.InlineCount.Add(1)
	c.InlineBytes.Add(int64(bytes))
}

func (c *BasicMetricsCollector) RecordStore(bytes int, _ time.Duration, err error) {
	c.StoreCount.Add(1)
	if err != nil {
		c.StoreErrors.Add(1)
		return
	}
	c.StoreBytes.Add(int64(bytes))
}

func (c *BasicMetricsCollector) RecordRetrieve(bytes int, _ time.Duration, err error) {
	c.RetrieveCount.Add(1)
	if err != nil {
		c.RetrieveErrors.Add(1)
		return
	}
	c.RetrieveBytes.Add(int64(bytes))
}

func (c *BasicMetricsCollector) RecordCleanup(deleted, failed int, _ time.Duration) {
	c.DeletedCount.Add(int64(deleted))
	c.DeleteFailures.Add(int64(failed))
}
