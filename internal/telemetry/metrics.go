package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the metadesc service.
type Metrics struct {
	SummaryTotal       *prometheus.CounterVec
	SummaryDurationMs  *prometheus.HistogramVec
	ProviderErrorTotal *prometheus.CounterVec
	ModelListTotal     *prometheus.CounterVec
	FilterActionTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SummaryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metadesc_summary_total",
			Help: "Total number of summary generation requests.",
		}, []string{"org", "team", "provider", "model", "status"}),

		SummaryDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metadesc_summary_duration_ms",
			Help:    "Summary request duration in milliseconds (including vendor latency).",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider", "model"}),

		ProviderErrorTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metadesc_provider_error_total",
			Help: "Total provider-layer failures by error kind.",
		}, []string{"provider", "kind"}),

		ModelListTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metadesc_model_list_total",
			Help: "Total model-list fetches against vendors.",
		}, []string{"provider", "status"}),

		FilterActionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metadesc_filter_action_total",
			Help: "Total filter actions taken on prompts.",
		}, []string{"filter", "action"}),
	}
}

// RecordSummary records metrics for a completed generation request.
func (m *Metrics) RecordSummary(labels SummaryLabels) {
	m.SummaryTotal.WithLabelValues(
		labels.Org, labels.Team, labels.Provider, labels.Model, labels.Status,
	).Inc()

	m.SummaryDurationMs.WithLabelValues(
		labels.Provider, labels.Model,
	).Observe(labels.DurationMs)

	if labels.ErrorKind != "" {
		m.ProviderErrorTotal.WithLabelValues(labels.Provider, labels.ErrorKind).Inc()
	}
}

// RecordModelList records a model-list fetch.
func (m *Metrics) RecordModelList(provider, status string) {
	m.ModelListTotal.WithLabelValues(provider, status).Inc()
}

// RecordFilterAction records a filter action metric.
func (m *Metrics) RecordFilterAction(filter, action string) {
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}

// SummaryLabels holds the label values for recording a generation request.
type SummaryLabels struct {
	Org        string
	Team       string
	Provider   string
	Model      string
	Status     string
	ErrorKind  string
	DurationMs float64
}
