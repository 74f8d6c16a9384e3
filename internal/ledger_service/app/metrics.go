package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "orders_created_total",
			Help:      "Total orders created and debited.",
		},
		[]string{"service", "strategy"},
	)

	orderFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "order_failures_total",
			Help:      "Order creation attempts that did not commit.",
		},
		[]string{"reason"}, // insufficient_funds, user_not_found, validation, storage
	)

	refundsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "refunds_total",
			Help:      "Cancellation refunds by outcome.",
		},
		[]string{"result"}, // applied, skipped
	)

	balanceCreditsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "balance_credits_total",
			Help:      "Balance credits by transaction source.",
		},
		[]string{"source"},
	)

	pricingFallbackCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "pricing_fallback_total",
			Help:      "Price resolutions that fell back because the catalog or settings could not be read.",
		},
		[]string{"reason"},
	)

	rechargeIntentsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "recharge_intents_total",
			Help:      "Recharge intent lifecycle events.",
		},
		[]string{"method", "outcome"}, // created, verified, expired, rejected
	)

	reconciliationMismatchGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Name:      "reconciliation_mismatches",
			Help:      "Users whose balance disagreed with the transaction log at the last reconciliation run.",
		},
	)

	ledgerOpDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations including lock waits.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
