package pool

// metrics.go mirrors pkg/mesh's thin Prometheus abstraction: a no-op
// sink unless the caller opts in via WithMetrics.

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incHit()
	incMiss()
	incRelease()
	incPruned(n int)
	setIdle(n int)
}

type noopMetrics struct{}

func (noopMetrics) incHit()          {}
func (noopMetrics) incMiss()         {}
func (noopMetrics) incRelease()      {}
func (noopMetrics) incPruned(int)    {}
func (noopMetrics) setIdle(int)      {}

type promMetrics struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	release prometheus.Counter
	pruned  prometheus.Counter
	idle    prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry, name string) *promMetrics {
	pm := &promMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Subsystem: "pool", Name: "hits_total",
			Help: "Acquire calls served from the free list.", ConstLabels: prometheus.Labels{"pool": name},
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Subsystem: "pool", Name: "misses_total",
			Help: "Acquire calls that built a fresh clone.", ConstLabels: prometheus.Labels{"pool": name},
		}),
		release: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Subsystem: "pool", Name: "released_total",
			Help: "Clones returned to the free list.", ConstLabels: prometheus.Labels{"pool": name},
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Subsystem: "pool", Name: "pruned_total",
			Help: "Idle clones discarded past their TTL.", ConstLabels: prometheus.Labels{"pool": name},
		}),
		idle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shards", Subsystem: "pool", Name: "idle_clones",
			Help: "Clones currently sitting in the free list.", ConstLabels: prometheus.Labels{"pool": name},
		}),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.release, pm.pruned, pm.idle)
	return pm
}

func (m *promMetrics) incHit()       { m.hits.Inc() }
func (m *promMetrics) incMiss()      { m.misses.Inc() }
func (m *promMetrics) incRelease()   { m.release.Inc() }
func (m *promMetrics) incPruned(n int) { m.pruned.Add(float64(n)) }
func (m *promMetrics) setIdle(n int) { m.idle.Set(float64(n)) }

func newMetricsSink(reg *prometheus.Registry, name string) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg, name)
}
