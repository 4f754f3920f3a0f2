package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pigmarket",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pigmarket",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pigmarket",
			Name:      "order_transitions_total",
			Help:      "Order lifecycle transitions by kind.",
		},
		[]string{"transition", "order_type"},
	)

	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pigmarket",
			Name:      "reservation_conflicts_total",
			Help:      "Orders rejected because the pig was already taken.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, orderTransitions, reservationConflicts)
	})
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route, method, status string, seconds float64) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

// IncTransition counts an order transition such as "created" or "declined".
func IncTransition(transition, orderType string) {
	orderTransitions.WithLabelValues(transition, orderType).Inc()
}

func IncConflict() {
	reservationConflicts.Inc()
}
