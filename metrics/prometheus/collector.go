// Package prometheus exports pipeline and cleanup metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	hefty "github.com/vinujohn/hefty-blob"
)

// Collector implements hefty.MetricsCollector.
type Collector struct {
	payloads     *prometheus.CounterVec
	payloadBytes *prometheus.HistogramVec
	opLatency    *prometheus.HistogramVec
	cleanupKeys  *prometheus.CounterVec
}

var _ hefty.MetricsCollector = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		payloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hefty_payloads_total",
			Help: "Payloads processed by mode and status",
		}, []string{"mode", "status"}),
		payloadBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hefty_payload_size_bytes",
			Help:    "Size of inline and backed payloads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}, []string{"mode"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hefty_blob_operation_latency_seconds",
			Help:    "Latency of blob store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		cleanupKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hefty_cleanup_keys_total",
			Help: "Keys handled by cleanup by status",
		}, []string{"status"}),
	}

	for _, m := range []prometheus.Collector{c.payloads, c.payloadBytes, c.opLatency, c.cleanupKeys} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) RecordInline(bytes int) {
	c.payloads.WithLabelValues("inline", "ok").Inc()
	c.payloadBytes.WithLabelValues("inline").Observe(float64(bytes))
}

func (c *Collector) RecordStore(bytes int, duration time.Duration, err error) {
	c.payloads.WithLabelValues("backed", status(err)).Inc()
	c.opLatency.WithLabelValues("store", status(err)).Observe(duration.Seconds())
	if err == nil {
		c.payloadBytes.WithLabelValues("backed").Observe(float64(bytes))
	}
}

func (c *Collector) RecordRetrieve(_ int, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("retrieve", status(err)).Observe(duration.Seconds())
}

func (c *Collector) RecordCleanup(deleted, failed int, duration time.Duration) {
	c.cleanupKeys.WithLabelValues("deleted").Add(float64(deleted))
	c.cleanupKeys.WithLabelValues("failed").Add(float64(failed))
	c.opLatency.WithLabelValues("cleanup", status(nil)).Observe(duration.Seconds())
}
