package booking

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	outcomes             *prometheus.CounterVec
	compensationFailures *prometheus.CounterVec
	inventoryAnomalies   *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_saga_outcomes_total",
			Help: "Booking saga results by operation and outcome.",
		}, []string{"operation", "outcome"}),
		compensationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_compensation_failures_total",
			Help: "Saga steps that left inventory and ledger out of sync.",
		}, []string{"step"}),
		inventoryAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_inventory_anomalies_total",
			Help: "Unexpected inventory states tolerated by a saga.",
		}, []string{"reason"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_notification_failures_total",
			Help: "Notifications that could not be handed to the sink.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.outcomes, m.compensationFailures, m.inventoryAnomalies, m.notificationFailures)
	return m
}

func (m *Metrics) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.outcomes.WithLabelValues(operation, outcome).Inc()
}
