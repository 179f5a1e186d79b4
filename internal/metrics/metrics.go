package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoredCounter returns the number of rows in a store table.
// Satisfied by the call and recording repositories.
type StoredCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Metrics holds the live counters incremented by the webhook handlers.
type Metrics struct {
	// WebhooksReceived counts inbound webhook deliveries by handler and
	// outcome ("ok" or "error").
	WebhooksReceived *prometheus.CounterVec

	// RecordingFetchFailures counts failed recording downloads from the
	// provider.
	RecordingFetchFailures prometheus.Counter

	// RecordingBytesFetched counts recording audio bytes downloaded from
	// the provider.
	RecordingBytesFetched prometheus.Counter
}

// New creates the live counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "answerphone_webhooks_received_total",
			Help: "Inbound webhook deliveries by handler and outcome",
		}, []string{"handler", "outcome"}),
		RecordingFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "answerphone_recording_fetch_failures_total",
			Help: "Failed recording downloads from the provider API",
		}),
		RecordingBytesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "answerphone_recording_bytes_fetched_total",
			Help: "Recording audio bytes downloaded from the provider API",
		}),
	}

	reg.MustRegister(m.WebhooksReceived, m.RecordingFetchFailures, m.RecordingBytesFetched)
	return m
}

// Collector is a prometheus.Collector that gathers store sizes at scrape time.
type Collector struct {
	calls      StoredCounter
	recordings StoredCounter
	startTime  time.Time

	// Metric descriptors.
	callsDesc      *prometheus.Desc
	recordingsDesc *prometheus.Desc
	uptimeDesc     *prometheus.Desc
}

// NewCollector creates a scrape-time collector over the record store.
func NewCollector(calls, recordings StoredCounter, startTime time.Time) *Collector {
	return &Collector{
		calls:      calls,
		recordings: recordings,
		startTime:  startTime,

		callsDesc: prometheus.NewDesc(
			"answerphone_calls_stored",
			"Number of stored call event records",
			nil, nil,
		),
		recordingsDesc: prometheus.NewDesc(
			"answerphone_recordings_stored",
			"Number of stored recording metadata records",
			nil, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			"answerphone_uptime_seconds",
			"Seconds since the answerphone process started",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.callsDesc
	ch <- c.recordingsDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector. It queries the store at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.calls != nil {
		count, err := c.calls.Count(ctx)
		if err != nil {
			slog.Error("metrics: failed to count calls", "error", err)
		} else {
			ch <- prometheus.MustNewConstMetric(c.callsDesc, prometheus.GaugeValue, float64(count))
		}
	}

	if c.recordings != nil {
		count, err := c.recordings.Count(ctx)
		if err != nil {
			slog.Error("metrics: failed to count recordings", "error", err)
		} else {
			ch <- prometheus.MustNewConstMetric(c.recordingsDesc, prometheus.GaugeValue, float64(count))
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.uptimeDesc, prometheus.GaugeValue,
		time.Since(c.startTime).Seconds(),
	)
}
