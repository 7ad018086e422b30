package moderation

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_verdicts_total",
		Help: "Moderation verdicts by deciding source.",
	}, []string{"source", "flagged"})

	classifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_classifier_calls_total",
		Help: "External classifier calls by content kind and outcome.",
	}, []string{"kind", "outcome"})
)

// Исходы вызова классификатора.
const (
	outcomeSkipped  = "skipped"
	outcomeFlagged  = "flagged"
	outcomeClean    = "clean"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected" // breaker открыт или лимит не дождались
)

func recordVerdict(source Source, flagged bool) {
	verdictsTotal.WithLabelValues(string(source), strconv.FormatBool(flagged)).Inc()
}

func recordCall(kind, outcome string) {
	classifierCalls.WithLabelValues(kind, outcome).Inc()
}
