package dialog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_params_builds_total",
			Help: "The total number of dialog parameter builds by content kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	buildLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dialog_params_build_latency_seconds",
			Help:    "The latency of dialog parameter builds",
			Buckets: prometheus.ExponentialBuckets(0.001, 5, 6),
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		buildTotal,
		buildLatency,
	)
}

func observeBuild(kind, outcome string, startAt time.Time) {
	buildTotal.WithLabelValues(kind, outcome).Inc()
	buildLatency.WithLabelValues(kind).Observe(time.Since(startAt).Seconds())
}
