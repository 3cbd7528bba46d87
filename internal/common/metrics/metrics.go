// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_messages_handled_total",
			Help: "Total number of messages handled, by resolved intent or pending route",
		},
		[]string{"route"},
	)

	TurnErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_turn_errors_total",
			Help: "Total number of turns that recovered from an error",
		},
		[]string{"error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialogue_turn_duration_seconds",
			Help: "Duration of message handling in seconds",
		},
		[]string{"route"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialogue_backend_request_duration_seconds",
			Help: "Duration of order backend calls in seconds",
		},
		[]string{"operation"},
	)
)
