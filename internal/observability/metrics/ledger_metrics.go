package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics exposes the billing ledger's derived stats as gauges,
// plus counters for realtime feed applications.
type LedgerMetrics struct {
	revenueTotal        prometheus.Gauge
	pendingAmount       prometheus.Gauge
	overdueAmount       prometheus.Gauge
	activeSubscriptions prometheus.Gauge
	feedEventsApplied   *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerMetrics     *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics.
func Ledger() *LedgerMetrics {
	return LedgerWithConfig(Config{})
}

// LedgerWithConfig initializes the ledger metrics on first use.
func LedgerWithConfig(cfg Config) *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerMetrics = newLedgerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ledgerMetrics
}

// ResetLedgerMetricsForTest clears the singleton between tests.
func ResetLedgerMetricsForTest() {
	ledgerMetricsOnce = sync.Once{}
	ledgerMetrics = nil
}

func newLedgerMetrics(registerer prometheus.Registerer, cfg Config) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "chiroflow"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	revenueTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "chiroflow_billing_revenue_total",
		Help:        "Sum of completed payment amounts in the ledger snapshot.",
		ConstLabels: constLabels,
	})
	pendingAmount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "chiroflow_billing_pending_amount",
		Help:        "Sum of sent invoice amounts in the ledger snapshot.",
		ConstLabels: constLabels,
	})
	overdueAmount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "chiroflow_billing_overdue_amount",
		Help:        "Sum of overdue invoice amounts in the ledger snapshot.",
		ConstLabels: constLabels,
	})
	activeSubscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "chiroflow_billing_active_subscriptions",
		Help:        "Count of active subscriptions in the ledger snapshot.",
		ConstLabels: constLabels,
	})
	feedEventsApplied := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "chiroflow_realtime_events_applied_total",
			Help:        "Realtime change-feed events applied to the ledger.",
			ConstLabels: constLabels,
		},
		[]string{"table", "type", "result"}, // result: applied | duplicate | dropped
	)

	registerer.MustRegister(
		revenueTotal,
		pendingAmount,
		overdueAmount,
		activeSubscriptions,
		feedEventsApplied,
	)

	return &LedgerMetrics{
		revenueTotal:        revenueTotal,
		pendingAmount:       pendingAmount,
		overdueAmount:       overdueAmount,
		activeSubscriptions: activeSubscriptions,
		feedEventsApplied:   feedEventsApplied,
	}
}

// SetStats publishes a freshly computed ledger snapshot.
func (m *LedgerMetrics) SetStats(revenue, pending, overdue float64, activeSubscriptions int) {
	if m == nil {
		return
	}
	m.revenueTotal.Set(revenue)
	m.pendingAmount.Set(pending)
	m.overdueAmount.Set(overdue)
	m.activeSubscriptions.Set(float64(activeSubscriptions))
}

// IncFeedEvent counts a feed event application outcome.
func (m *LedgerMetrics) IncFeedEvent(table, eventType, result string) {
	if m == nil {
		return
	}
	m.feedEventsApplied.WithLabelValues(table, eventType, result).Inc()
}
