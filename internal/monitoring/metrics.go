package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a prometheus registry with the Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler exposing reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics are the radar link counters.
type Metrics struct {
	BytesRead        prometheus.Counter
	FramesAccepted   prometheus.Counter
	FramesRejected   *prometheus.CounterVec // labels: reason
	FramesDispatched *prometheus.CounterVec // labels: key, handled=true|false
	CommandsSent     *prometheus.CounterVec // labels: command
	AskResults       *prometheus.CounterVec // labels: command, result=ok|timeout|cancelled|error
}

// NewMetrics creates the radar metrics and registers them with reg. A nil
// reg leaves them unregistered, which is what tests and library users without
// a metrics endpoint want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmwave_bytes_read_total",
			Help: "Bytes drained from the radar link.",
		}),
		FramesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmwave_frames_accepted_total",
			Help: "Frames that passed checksum validation.",
		}),
		FramesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmwave_frames_rejected_total",
			Help: "Captured candidates dropped by the receiver.",
		}, []string{"reason"}),
		FramesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmwave_frames_dispatched_total",
			Help: "Accepted frames by control/command pair.",
		}, []string{"key", "handled"}),
		CommandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmwave_commands_sent_total",
			Help: "Command frames written to the radar.",
		}, []string{"command"}),
		AskResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmwave_ask_results_total",
			Help: "Outcome of request/response exchanges.",
		}, []string{"command", "result"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.BytesRead,
			m.FramesAccepted,
			m.FramesRejected,
			m.FramesDispatched,
			m.CommandsSent,
			m.AskResults,
		)
	}
	return m
}
