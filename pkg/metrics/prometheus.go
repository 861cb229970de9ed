package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis exposes Prometheus collectors for forecast activity. A nil *Analysis
// is valid and records nothing.
type Analysis struct {
	runs        *prometheus.CounterVec
	members     *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cache       *prometheus.CounterVec
	llmTokens   *prometheus.CounterVec
	jobsPending prometheus.Gauge
}

// MustNewAnalysis registers the collectors on reg and panics on conflict.
func MustNewAnalysis(reg prometheus.Registerer) *Analysis {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Analysis{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriforecast",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		members: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriforecast",
			Subsystem: "analysis",
			Name:      "members_total",
			Help:      "Members processed by batch outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriforecast",
			Subsystem: "analysis",
			Name:      "rejected_fields_total",
			Help:      "Validation failures by input field.",
		}, []string{"field"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nutriforecast",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time spent producing an analysis.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriforecast",
			Subsystem: "analysis",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriforecast",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens spent on narrative summaries.",
		}, []string{"kind"}),
		jobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nutriforecast",
			Subsystem: "jobs",
			Name:      "pending",
			Help:      "Async analysis jobs accepted but not finished.",
		}),
	}
	reg.MustRegister(m.runs, m.members, m.rejected, m.duration, m.cache, m.llmTokens, m.jobsPending)
	return m
}

// ObserveRun records one finished analysis.
func (m *Analysis) ObserveRun(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveMembers counts succeeded and failed members of one batch.
func (m *Analysis) ObserveMembers(ok, failed int) {
	if m == nil {
		return
	}
	m.members.WithLabelValues("ok").Add(float64(ok))
	m.members.WithLabelValues("failed").Add(float64(failed))
}

// RejectedField counts a validation failure on field.
func (m *Analysis) RejectedField(field string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(field).Inc()
}

// CacheLookup records a result cache hit or miss.
func (m *Analysis) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// AddTokens records LLM usage.
func (m *Analysis) AddTokens(usage TokenUsage) {
	if m == nil || usage.IsZero() {
		return
	}
	m.llmTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	m.llmTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}

// JobQueued and JobDone track the pending async jobs gauge.
func (m *Analysis) JobQueued() {
	if m == nil {
		return
	}
	m.jobsPending.Inc()
}

func (m *Analysis) JobDone() {
	if m == nil {
		return
	}
	m.jobsPending.Dec()
}
