package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decisioning pipeline.
type Metrics struct {
	// Webhook deliveries by outcome: processed, malformed, failed
	Deliveries *prometheus.CounterVec

	// Verdicts by status
	Verdicts *prometheus.CounterVec

	// Per-stage latency
	StageLatency *prometheus.HistogramVec

	// Failures of the optional provider side channel
	ProviderFailures prometheus.Counter
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_webhook_deliveries_total",
			Help: "Webhook deliveries by outcome",
		}, []string{"outcome"}),

		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_verdicts_total",
			Help: "Classification verdicts by status",
		}, []string{"status"}),

		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veriflow_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),

		ProviderFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriflow_provider_failures_total",
			Help: "Failed calls to the verification provider side channel",
		}),
	}
}

// IncDelivery records a webhook delivery outcome.
func (m *Metrics) IncDelivery(outcome string) {
	if m != nil {
		m.Deliveries.WithLabelValues(outcome).Inc()
	}
}

// IncVerdict records a classification outcome.
func (m *Metrics) IncVerdict(status string) {
	if m != nil {
		m.Verdicts.WithLabelValues(status).Inc()
	}
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncProviderFailure records a failed side-channel call.
func (m *Metrics) IncProviderFailure() {
	if m != nil {
		m.ProviderFailures.Inc()
	}
}
