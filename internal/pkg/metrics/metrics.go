package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's operational counters. A nil *Metrics is
// valid everywhere and disables recording.
type Metrics struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	PipelineRuns     prometheus.Counter
	PipelineFailures *prometheus.CounterVec
	Iterations       prometheus.Histogram
	GenerationTime   prometheus.Histogram
	ValidationIssues *prometheus.CounterVec
}

// New registers and returns the metric set. Pass prometheus.DefaultRegisterer
// in production; tests can use a private registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "diagram_cache_hits_total",
			Help: "Number of pipeline invocations served from the result cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "diagram_cache_misses_total",
			Help: "Number of pipeline invocations that missed the result cache.",
		}),
		PipelineRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "diagram_pipeline_runs_total",
			Help: "Number of full pipeline executions (cache misses).",
		}),
		PipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diagram_pipeline_failures_total",
			Help: "Terminal pipeline failures by normalized category.",
		}, []string{"category"}),
		Iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "diagram_pipeline_iterations",
			Help:    "Generation iterations consumed per pipeline run.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		GenerationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "diagram_generation_duration_seconds",
			Help:    "Wall time of individual generation calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		ValidationIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diagram_validation_issues_total",
			Help: "Validation issues by category and severity.",
		}, []string{"category", "severity"}),
	}
}
