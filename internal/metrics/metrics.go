// Package metrics holds mavbridge's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every mavbridge Prometheus collector, plus the
// registry they were registered against (so an HTTP handler can
// gather exactly these collectors, not whatever else shares the
// process's default registry).
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LinkMessagesReceived prometheus.Counter
	LinkHeartbeatsSent   prometheus.Counter
	LinkSendErrors       prometheus.Counter

	StoreUpdates prometheus.Counter

	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec

	PanicsRecovered prometheus.Counter
}

// New registers and returns a fresh set of collectors against reg,
// along with the standard Go/process collectors.
func New(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mavbridge",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mavbridge",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LinkMessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mavbridge",
			Subsystem: "link",
			Name:      "messages_received_total",
			Help:      "Total MAVLink messages received from the link.",
		}),
		LinkHeartbeatsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mavbridge",
			Subsystem: "link",
			Name:      "heartbeats_sent_total",
			Help:      "Total heartbeats emitted on the link.",
		}),
		LinkSendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mavbridge",
			Subsystem: "link",
			Name:      "send_errors_total",
			Help:      "Total failed attempts to send a MAVLink message.",
		}),
		StoreUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mavbridge",
			Subsystem: "store",
			Name:      "updates_total",
			Help:      "Total message-store updates applied.",
		}),
		WebSocketConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mavbridge",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket subscriptions.",
		}),
		WebSocketMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mavbridge",
				Subsystem: "websocket",
				Name:      "messages_total",
				Help:      "Total WebSocket messages by direction.",
			},
			[]string{"direction"},
		),
		PanicsRecovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mavbridge",
			Subsystem: "http",
			Name:      "panics_recovered_total",
			Help:      "Total panics recovered from HTTP handlers.",
		}),
	}
}
