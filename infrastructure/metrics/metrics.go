// Package metrics exposes the joint processing pipeline to Prometheus
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/util/locks"
	"github.com/unitdag/unitd/version"
)

const namespace = "unitd"

// Metrics collects the pipeline metrics. It is both the processing
// observer of the unit processor and the wait observer of its lock
// registry.
type Metrics struct {
	registry *prometheus.Registry

	jointsProcessed   *prometheus.CounterVec
	processingLatency *prometheus.HistogramVec
	lockWait          *prometheus.HistogramVec
	lastStableMCI     prometheus.Gauge
}

// New creates a Metrics with its own registry, labelled by network
func New(network string) *Metrics {
	registry := prometheus.NewRegistry()
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"network": network}, registry)

	m := &Metrics{
		registry: registry,
		jointsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consensus",
			Name:      "joints_processed_total",
			Help:      "Number of processed joints by result kind",
		}, []string{"result"}),
		processingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "consensus",
			Name:      "joint_processing_seconds",
			Help:      "Time spent validating and committing a joint",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"result"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "locks",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for locks",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"resource"}),
		lastStableMCI: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "consensus",
			Name:      "last_stable_mci",
			Help:      "Last stable main chain index",
		}),
	}

	registerer.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}))
	registerer.MustRegister(collectors.NewGoCollector())
	registerer.MustRegister(m.jointsProcessed, m.processingLatency, m.lockWait, m.lastStableMCI)

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Always 1, labelled by the running version",
		ConstLabels: prometheus.Labels{"version": version.Version()},
	})
	buildInfo.Set(1)
	registerer.MustRegister(buildInfo)
	return m
}

// Registry returns the registry all collectors are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResult counts a processed joint and how long it took
func (m *Metrics) ObserveResult(kind externalapi.ResultKind, elapsed time.Duration) {
	m.jointsProcessed.WithLabelValues(kind.String()).Inc()
	m.processingLatency.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLastStableMCI(mci uint64) {
	m.lastStableMCI.Set(float64(mci))
}

// ObserveLockWait records a lock wait under the last resource acquired.
// Address sets are folded into a single "address" resource.
func (m *Metrics) ObserveLockWait(keys []locks.Key, waited time.Duration) {
	if len(keys) == 0 {
		return
	}
	resource := "address"
	last := keys[len(keys)-1]
	if !last.IsAddress() {
		resource = last.String()
	}
	m.lockWait.WithLabelValues(resource).Observe(waited.Seconds())
}
