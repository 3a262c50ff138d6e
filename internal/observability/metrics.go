// Package observability holds the Prometheus collectors of the read and
// write pipelines. Collectors register with the default registry, which
// cmd/healthbridge exposes on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	subQueryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "composite",
		Name:      "sub_queries_total",
		Help:      "Composite sub-queries per data type, native kind and outcome.",
	}, []string{"data_type", "kind", "outcome"})

	readDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "healthbridge",
		Subsystem: "read",
		Name:      "duration_seconds",
		Help:      "Latency of ReadSamples per data type and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"data_type", "outcome"})

	authProbeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "authorization",
		Name:      "read_probes_total",
		Help:      "Read authorization probes per native kind and resulting status.",
	}, []string{"kind", "status"})

	saveCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "write",
		Name:      "samples_total",
		Help:      "SaveSample calls per data type and outcome.",
	}, []string{"data_type", "outcome"})
)

func init() {
	prometheus.MustRegister(subQueryCounter, readDuration, authProbeCounter, saveCounter)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSubQuery counts one finished composite sub-query.
func RecordSubQuery(dataType, kind string, err error) {
	subQueryCounter.WithLabelValues(dataType, kind, outcome(err)).Inc()
}

// ObserveRead records the latency of one read request.
func ObserveRead(dataType string, d time.Duration, err error) {
	readDuration.WithLabelValues(dataType, outcome(err)).Observe(d.Seconds())
}

// RecordAuthProbe counts a read authorization probe.
func RecordAuthProbe(kind, status string) {
	authProbeCounter.WithLabelValues(kind, status).Inc()
}

// RecordSave counts one write.
func RecordSave(dataType string, err error) {
	saveCounter.WithLabelValues(dataType, outcome(err)).Inc()
}
