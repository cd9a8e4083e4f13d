package metrics

import (
	"time"

	"flightsurety-ledger/pkg/ledgererr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	RejectionsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	CreditedAmount    prometheus.Counter
	WithdrawnAmount   prometheus.Counter
	EventPublishFails prometheus.Counter
}

// NewMetrics creates ledger metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "The total number of ledger operations by outcome",
		}, []string{"operation", "result"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "The total number of rejected ledger operations by error kind",
		}, []string{"operation", "kind"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time taken to execute ledger operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		CreditedAmount: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credited_amount_total",
			Help:      "The total amount credited to passengers",
		}),
		WithdrawnAmount: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawn_amount_total",
			Help:      "The total amount withdrawn by passengers",
		}),
		EventPublishFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "The total number of committed event batches that failed to publish",
		}),
	}
}

// ObserveOperation records the outcome and latency of an operation. Safe on a nil receiver.
func (m *Metrics) ObserveOperation(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		m.OperationsTotal.WithLabelValues(op, "rejected").Inc()
		m.RejectionsTotal.WithLabelValues(op, string(ledgererr.KindOf(err))).Inc()
		return
	}
	m.OperationsTotal.WithLabelValues(op, "committed").Inc()
}

// AddCredited records committed credit payouts
func (m *Metrics) AddCredited(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.CreditedAmount.Add(float64(amount))
}

// AddWithdrawn records committed withdrawals
func (m *Metrics) AddWithdrawn(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.WithdrawnAmount.Add(float64(amount))
}

// PublishFailed records an event batch that could not be published
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishFails.Inc()
}
