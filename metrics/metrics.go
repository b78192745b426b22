package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommissionAccrualsTotal counts accruals by type and outcome (success, rejected, failed).
	CommissionAccrualsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_accruals_total",
		Help: "Commission accrual attempts by type and outcome",
	}, []string{"type", "outcome"})

	CommissionAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_amount_total",
		Help: "Sum of accrued commission amounts by type",
	}, []string{"type"})

	TransactionRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transaction_retries_total",
		Help: "Transactions retried after a transient store error, by operation",
	}, []string{"operation"})

	TransactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_transaction_duration_seconds",
		Help:    "Duration of ledger operations including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ReceiptTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_transitions_total",
		Help: "Receipt state transitions by target status",
	}, []string{"status"})

	SellerMigrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seller_migrations_total",
		Help: "Completed seller migrations",
	})

	DummyTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seller_dummy_toggles_total",
		Help: "Dummy account toggles by new value",
	}, []string{"is_dummy"})

	DegradedReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degraded_reads_total",
		Help: "Reads that returned a fallback value after a store failure",
	}, []string{"operation"})

	ActiveSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "commission_active_subscriptions",
		Help: "Open commission subscriptions by kind",
	}, []string{"kind"})
)
