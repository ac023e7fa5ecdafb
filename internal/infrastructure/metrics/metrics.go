package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homely",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed, by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homely",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	RelayConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "homely",
		Name:      "relay_connections",
		Help:      "Currently open relay connections.",
	})

	RelayRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "homely",
		Name:      "relay_rooms",
		Help:      "Rooms with at least one member.",
	})

	RelayEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homely",
		Name:      "relay_events_total",
		Help:      "Relay events processed, by event name.",
	}, []string{"event"})

	RelayDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "homely",
		Name:      "relay_dropped_frames_total",
		Help:      "Frames dropped because a client send buffer was full.",
	})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homely",
		Name:      "webhook_events_total",
		Help:      "Identity webhook events received, by type and outcome.",
	}, []string{"type", "outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
