package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "notifier",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by sink and status.",
		},
		[]string{"sink", "status"},
	)

	droppedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "notifier",
			Name:      "dropped_total",
			Help:      "Events discarded before reaching any sink.",
		},
		[]string{"reason"}, // queue_full, closed
	)
)
