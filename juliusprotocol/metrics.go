package juliusprotocol

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	recordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "julius",
			Subsystem: "client",
			Name:      "records_total",
			Help:      "Records received from the engine.",
		},
	)
	decodeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "julius",
			Subsystem: "client",
			Name:      "decode_errors_total",
			Help:      "Records whose markup could not be parsed.",
		},
	)
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "julius",
			Subsystem: "client",
			Name:      "notifications_total",
			Help:      "Notifications dispatched, by kind.",
		},
		[]string{"kind"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "julius",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Commands written to the engine.",
		},
		[]string{"command"},
	)
)

// RegisterMetrics registers the client collectors with the default
// Prometheus registry. The counters are always maintained, but nothing is
// registered until this is called. It is safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(recordsTotal, decodeErrorsTotal, notificationsTotal, commandsTotal)
	})
}

func recordRecord(notes []Notification, err error) {
	recordsTotal.Inc()
	if err != nil {
		decodeErrorsTotal.Inc()
		return
	}
	for _, n := range notes {
		notificationsTotal.WithLabelValues(string(n.Kind())).Inc()
	}
}

func recordCommand(label string) {
	commandsTotal.WithLabelValues(label).Inc()
}
