package mesh

// metrics.go mirrors the teacher's thin Prometheus abstraction: metrics
// are mesh-level counters/gauges, registered only when the caller opts
// in via WithMetrics; otherwise a no-op sink absorbs every call so the
// tick hot path never pays for metric bookkeeping.

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incScheduled()
	incTicks()
	incErrors()
	setActiveWires(n int)
	incComposeCacheHit()
	incComposeCacheMiss()
}

type noopMetrics struct{}

func (noopMetrics) incScheduled()       {}
func (noopMetrics) incTicks()           {}
func (noopMetrics) incErrors()          {}
func (noopMetrics) setActiveWires(int)  {}
func (noopMetrics) incComposeCacheHit() {}
func (noopMetrics) incComposeCacheMiss() {}

type promMetrics struct {
	scheduled  prometheus.Counter
	ticks      prometheus.Counter
	errors     prometheus.Counter
	active     prometheus.Gauge
	cacheHits  prometheus.Counter
	cacheMiss  prometheus.Counter
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Name: "wires_scheduled_total", Help: "Number of wires scheduled onto the mesh.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Name: "mesh_ticks_total", Help: "Number of mesh-level Tick calls.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Name: "wire_errors_total", Help: "Number of wires that finished Failed.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shards", Name: "active_wires", Help: "Number of wires currently scheduled.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Name: "compose_cache_hits_total", Help: "Composes served from the visited-wires cache.",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shards", Name: "compose_cache_misses_total", Help: "Composes that required a fresh walk.",
		}),
	}
	reg.MustRegister(pm.scheduled, pm.ticks, pm.errors, pm.active, pm.cacheHits, pm.cacheMiss)
	return pm
}

func (m *promMetrics) incScheduled()        { m.scheduled.Inc() }
func (m *promMetrics) incTicks()            { m.ticks.Inc() }
func (m *promMetrics) incErrors()           { m.errors.Inc() }
func (m *promMetrics) setActiveWires(n int) { m.active.Set(float64(n)) }
func (m *promMetrics) incComposeCacheHit()  { m.cacheHits.Inc() }
func (m *promMetrics) incComposeCacheMiss() { m.cacheMiss.Inc() }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
