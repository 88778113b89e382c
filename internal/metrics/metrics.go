// Package metrics exposes Prometheus instrumentation for backing-store
// calls, metadata caches, optimistic mutations and snapshot syncs.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can be constructed without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeRolledBack = "rolled_back"
)

// Metrics holds the tracker's collectors.
type Metrics struct {
	storeRequests  *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	mutations      *prometheus.CounterVec
	syncs          *prometheus.CounterVec
	lastSyncSecond prometheus.Gauge

	collectors []prometheus.Collector
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		storeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvtracker_store_requests_total",
			Help: "Backing store requests by backend, operation and outcome.",
		}, []string{"backend", "operation", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cvtracker_store_request_duration_seconds",
			Help:    "Backing store request latency.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"backend", "operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvtracker_metadata_cache_lookups_total",
			Help: "Header and sheet id cache lookups.",
		}, []string{"cache", "result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvtracker_mutations_total",
			Help: "Optimistic mutations by entity, operation and outcome.",
		}, []string{"entity", "operation", "outcome"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvtracker_syncs_total",
			Help: "Full snapshot loads by kind and outcome.",
		}, []string{"kind", "outcome"}),
		lastSyncSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cvtracker_last_sync_timestamp_seconds",
			Help: "Unix time of the last successful snapshot load.",
		}),
	}
	m.collectors = []prometheus.Collector{
		m.storeRequests, m.storeDuration, m.cacheLookups, m.mutations, m.syncs, m.lastSyncSecond,
	}
	if err := reg.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// ObserveStore records one backing store request that started at start.
func (m *Metrics) ObserveStore(backend, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.storeRequests.WithLabelValues(backend, op, outcome(err)).Inc()
	m.storeDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// CacheLookup records a metadata cache hit or miss.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// Mutation records the outcome of an optimistic mutation. A failed
// mutation is always rolled back.
func (m *Metrics) Mutation(entity, op string, err error) {
	if m == nil {
		return
	}
	o := OutcomeSuccess
	if err != nil {
		o = OutcomeRolledBack
	}
	m.mutations.WithLabelValues(entity, op, o).Inc()
}

// Sync records a snapshot load. at is the completion time.
func (m *Metrics) Sync(kind string, err error, at time.Time) {
	if m == nil {
		return
	}
	m.syncs.WithLabelValues(kind, outcome(err)).Inc()
	if err == nil {
		m.lastSyncSecond.Set(float64(at.Unix()))
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
