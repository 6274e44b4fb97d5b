package metadata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// clientMetrics are the optional prometheus collectors for a client.
// They exist only when the client was built with WithMetrics.
type clientMetrics struct {
	requests       *prometheus.CounterVec
	tokenRefreshes prometheus.Counter
	watchPolls     *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	factory := promauto.With(reg)

	return &clientMetrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "metadata",
				Subsystem: "client",
				Name:      "api_requests_total",
				Help:      "Total number of metadata API requests by method and status",
			},
			[]string{"method", "status"},
		),
		tokenRefreshes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "metadata",
				Subsystem: "client",
				Name:      "token_refreshes_total",
				Help:      "Total number of token refreshes performed by the client",
			},
		),
		watchPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "metadata",
				Subsystem: "client",
				Name:      "watch_polls_total",
				Help:      "Total number of watch engine polls by result",
			},
			[]string{"result"},
		),
	}
}
