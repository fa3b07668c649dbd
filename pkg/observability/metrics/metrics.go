// Package metrics defines the Prometheus collectors for the classification
// engine. All collectors are registered via promauto at package init and
// recorded through the helper functions below.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ruleEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triage",
		Subsystem: "rules",
		Name:      "evaluations_total",
		Help:      "Rule evaluations by outcome: match, short_circuit, no_match",
	}, []string{"outcome"})

	ruleMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triage",
		Subsystem: "rules",
		Name:      "matches_total",
		Help:      "Rule matches by rule id",
	}, []string{"rule_id"})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triage",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Similarity cache lookups by outcome: hit, miss, degraded, skipped",
	}, []string{"outcome"})

	predictorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "triage",
		Subsystem: "predictor",
		Name:      "latency_seconds",
		Help:      "Latency of predictor calls by predictor: traditional, llm",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0},
	}, []string{"predictor"})

	predictorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triage",
		Subsystem: "predictor",
		Name:      "errors_total",
		Help:      "Predictor errors by predictor and kind: transient, permanent",
	}, []string{"predictor", "kind"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triage",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Final decisions by method",
	}, []string{"method"})

	disputeOverridesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "triage",
		Subsystem: "routing",
		Name:      "dispute_overrides_total",
		Help:      "Decisions rerouted to credit management by the dispute override",
	})

	classifyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "triage",
		Subsystem: "engine",
		Name:      "classify_latency_seconds",
		Help:      "End-to-end latency of Classify calls",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 3.0, 5.0},
	})
)

// RecordRuleEvaluation records the outcome of one rule evaluation pass.
func RecordRuleEvaluation(outcome string) {
	ruleEvaluationsTotal.WithLabelValues(outcome).Inc()
}

// RecordRuleMatch records a match for a specific rule.
func RecordRuleMatch(ruleID string) {
	ruleMatchesTotal.WithLabelValues(ruleID).Inc()
}

// RecordCacheLookup records a similarity cache lookup outcome.
func RecordCacheLookup(outcome string) {
	cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordPredictorLatency records the duration of one predictor call.
func RecordPredictorLatency(predictor string, seconds float64) {
	predictorLatency.WithLabelValues(predictor).Observe(seconds)
}

// RecordPredictorError records a predictor failure by error kind.
func RecordPredictorError(predictor, kind string) {
	predictorErrorsTotal.WithLabelValues(predictor, kind).Inc()
}

// RecordDecision records a final decision by method.
func RecordDecision(method string) {
	decisionsTotal.WithLabelValues(method).Inc()
}

// RecordDisputeOverride records a dispute-triggered department override.
func RecordDisputeOverride() {
	disputeOverridesTotal.Inc()
}

// RecordClassifyLatency records the end-to-end latency of one Classify call.
func RecordClassifyLatency(seconds float64) {
	classifyLatency.Observe(seconds)
}
