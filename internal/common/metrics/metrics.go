// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineStepsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_pipeline_steps_completed_total",
			Help: "Total number of pipeline steps completed",
		},
		[]string{"step"},
	)

	PipelineStepsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_pipeline_steps_failed_total",
			Help: "Total number of pipeline steps failed",
		},
		[]string{"step", "error_code"},
	)

	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quotation_pipeline_step_duration_seconds",
			Help: "Duration of pipeline step processing in seconds",
		},
		[]string{"step"},
	)

	BOMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quotation_bom_request_duration_seconds",
			Help: "Duration of BOM estimation requests in seconds",
		},
		[]string{"outcome"},
	)

	BOMFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quotation_bom_fallbacks_total",
			Help: "Total number of BOM resolutions served from the fallback recipe table",
		},
	)

	QuotesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quotation_quotes_generated_total",
			Help: "Total number of quotes rendered",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quotation_sessions_active",
			Help: "Number of active conversation sessions",
		},
	)

	CostCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_cost_cache_requests_total",
			Help: "Material cost cache lookups by result",
		},
		[]string{"result"},
	)
)
