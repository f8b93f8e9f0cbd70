// Package telemetry exposes Prometheus instruments for the trading core
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names
const (
	MetricOrdersSubmittedTotal = "trade_server_orders_submitted_total"
	MetricOrderFailuresTotal   = "trade_server_order_failures_total"
	MetricPositionsClosedTotal = "trade_server_positions_closed_total"
	MetricCloseLegFailures     = "trade_server_close_leg_failures_total"
	MetricRequestDuration      = "trade_server_request_duration_seconds"
)

// Metrics holds the initialized instruments
type Metrics struct {
	OrdersSubmitted *prometheus.CounterVec
	OrderFailures   *prometheus.CounterVec
	PositionsClosed prometheus.Counter
	CloseLegFails   prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New registers the instruments on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOrdersSubmittedTotal,
			Help: "Orders accepted by the exchange, by side and type",
		}, []string{"side", "type"}),
		OrderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOrderFailuresTotal,
			Help: "Order submissions rejected or failed, by error kind",
		}, []string{"kind"}),
		PositionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricPositionsClosedTotal,
			Help: "Positions flattened by close operations",
		}),
		CloseLegFails: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricCloseLegFailures,
			Help: "Closing submissions that failed inside a close operation",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRequestDuration,
			Help:    "Tool request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}
