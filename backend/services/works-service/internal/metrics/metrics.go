package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "works"

var (
	// WorksCreated counts successful POST /works.
	WorksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Works created.",
	})

	// Transitions counts lifecycle operations by name and outcome
	// (ok or the error code).
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Lifecycle operations by transition and outcome.",
	}, []string{"transition", "outcome"})

	CompletionCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_codes_issued_total",
		Help:      "Completion codes issued, including replacements.",
	})

	// CASRetriesExhausted counts writes that gave up after repeated
	// row-version conflicts.
	CASRetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cas_retries_exhausted_total",
		Help:      "Writes abandoned after repeated row-version conflicts.",
	})

	ActiveSlotViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_slot_violations",
		Help:      "Employees holding more than one active work at the last audit.",
	})

	ByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "by_status",
		Help:      "Works per status at the last audit.",
	}, []string{"status"})
)
