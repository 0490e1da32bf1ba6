package syncer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "insights"
	metricsSubsystem = "sync"
)

type syncMetrics struct {
	repositories *prometheus.CounterVec
	entities     *prometheus.CounterVec
	duration     prometheus.Histogram
	projects     *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	defaultMetricsInst *syncMetrics
)

func getDefaultMetrics() *syncMetrics {
	defaultMetricsOnce.Do(func() {
		defaultMetricsInst = newSyncMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetricsInst
}

func newSyncMetrics(reg prometheus.Registerer) *syncMetrics {
	m := &syncMetrics{
		repositories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "repositories_total",
			Help:      "Repository syncs by outcome.",
		}, []string{"outcome"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "entities_total",
			Help:      "Entities written to the store by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of a single repository sync in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		projects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "projects_total",
			Help:      "Organization project syncs by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.repositories, m.entities, m.duration, m.projects)
	}
	return m
}

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}
