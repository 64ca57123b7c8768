package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts poll cycles by result (ok, skipped, benign,
	// missing_data, error).
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_guard_cycles_total",
			Help: "Total number of queue poll cycles by result",
		},
		[]string{"result"},
	)

	// SendersClassified counts sender entries that produced a verdict.
	SendersClassified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_guard_senders_classified_total",
			Help: "Total number of queue senders classified",
		},
	)

	// RemediationsTotal counts remediation attempts by outcome
	// (remediated, no_account).
	RemediationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_guard_remediations_total",
			Help: "Total number of remediation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AlertsTotal counts error alerts by delivery status
	// (sent, suppressed, failed).
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_guard_alerts_total",
			Help: "Total number of error alerts by delivery status",
		},
		[]string{"status"},
	)
)
