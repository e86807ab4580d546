package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics bundles the credit and analysis counters.
type LedgerMetrics struct {
	DeductTotal    *prometheus.CounterVec // by result: ok / insufficient / error
	AddTotal       *prometheus.CounterVec // by type: add / purchase / refund / bonus
	CreditsSpent   prometheus.Counter
	CreditsGranted *prometheus.CounterVec // by type

	AnalyzeTotal    *prometheus.CounterVec // by result: ok / <error code>
	AnalyzeDuration prometheus.Histogram

	LedgerDriftUsers prometheus.Gauge // users whose ledger replay disagrees with the live balance
}

// NewLedgerMetrics registers and returns the metric bundle.
func NewLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		DeductTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oeng_credit_deduct_total",
				Help: "Total number of credit deduction attempts",
			},
			[]string{"result"},
		),
		AddTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oeng_credit_add_total",
				Help: "Total number of credit grants",
			},
			[]string{"type"},
		),
		CreditsSpent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oeng_credits_spent_total",
				Help: "Total credits spent",
			},
		),
		CreditsGranted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oeng_credits_granted_total",
				Help: "Total credits granted",
			},
			[]string{"type"},
		),
		AnalyzeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oeng_analyze_total",
				Help: "Total number of sentence analysis requests",
			},
			[]string{"result"},
		),
		AnalyzeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oeng_analyze_duration_seconds",
				Help:    "Duration of the AI analysis call",
				Buckets: prometheus.DefBuckets,
			},
		),
		LedgerDriftUsers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oeng_ledger_drift_users",
				Help: "Users whose ledger replay does not match the live balance",
			},
		),
	}
}
