package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatcher collectors. A nil *Metrics records nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSpeed   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dltime_invocations_total",
				Help: "Command invocations by command and outcome",
			},
			[]string{"command", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dltime_invocation_duration_seconds",
				Help:    "Command handler latency",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"command"},
		),
		lastSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dltime_last_speed_bytes_per_second",
			Help: "Throughput reported by the most recent successful speed test",
		}),
	}
	reg.MustRegister(m.invocations, m.duration, m.lastSpeed)
	return m
}

func (m *Metrics) observe(command, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(command, status).Inc()
	if status != KindUnknownCommand {
		m.duration.WithLabelValues(command).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) setLastSpeed(bps float64) {
	if m == nil {
		return
	}
	m.lastSpeed.Set(bps)
}
