// Package metrics exposes Prometheus collectors for image fetching.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iconidentify/imgrabba/internal/domain"
)

// Collector holds the fetcher's Prometheus metrics. All names are prefixed
// with the configured namespace.
type Collector struct {
	// fetchTotal counts finished fetches by status (success/error) and failure reason
	fetchTotal *prometheus.CounterVec
	// fetchDuration tracks wall time of a single fetch
	fetchDuration prometheus.Histogram
	// fileSizeBytes tracks sizes of verified images by decoded format
	fileSizeBytes *prometheus.HistogramVec
	// inFlight is the number of fetches currently running
	inFlight prometheus.Gauge
	// batchesTotal counts completed batches
	batchesTotal prometheus.Counter
	// batchItems counts batch items by outcome
	batchItems *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
//
// Panics if registration fails, e.g. when the same namespace is registered twice.
func New(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_fetch_total", namespace),
				Help: "Image fetches by status and failure reason.",
			},
			[]string{"status", "reason"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    fmt.Sprintf("%s_fetch_duration_seconds", namespace),
				Help:    "Duration of single image fetches.",
				Buckets: prometheus.DefBuckets,
			},
		),
		// Buckets: 1KB, 10KB, 100KB, 1MB, 10MB, 100MB
		fileSizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    fmt.Sprintf("%s_file_size_bytes", namespace),
				Help:    "Size of verified images.",
				Buckets: prometheus.ExponentialBuckets(1024, 10, 6),
			},
			[]string{"format"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_fetches_in_flight", namespace),
				Help: "Image fetches currently in progress.",
			},
		),
		batchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_batches_total", namespace),
				Help: "Completed batches.",
			},
		),
		batchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_batch_items_total", namespace),
				Help: "Batch items by outcome.",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		c.fetchTotal,
		c.fetchDuration,
		c.fileSizeBytes,
		c.inFlight,
		c.batchesTotal,
		c.batchItems,
	)

	return c
}

// FetchStarted increments the in-flight gauge. Pair with FetchFinished.
func (c *Collector) FetchStarted() {
	c.inFlight.Inc()
}

// FetchFinished decrements the in-flight gauge and records the outcome.
// An empty reason means success.
func (c *Collector) FetchFinished(reason string, d time.Duration) {
	c.inFlight.Dec()
	c.fetchDuration.Observe(d.Seconds())
	if reason == "" {
		c.fetchTotal.WithLabelValues("success", "").Inc()
		return
	}
	c.fetchTotal.WithLabelValues("error", reason).Inc()
}

// ObserveImage records the size of a verified image.
func (c *Collector) ObserveImage(format string, size int64) {
	c.fileSizeBytes.WithLabelValues(format).Observe(float64(size))
}

// BatchCompleted records the summary of a finished batch.
func (c *Collector) BatchCompleted(s domain.Summary) {
	c.batchesTotal.Inc()
	c.batchItems.WithLabelValues("succeeded").Add(float64(s.Succeeded))
	c.batchItems.WithLabelValues("failed").Add(float64(s.Failed()))
}
