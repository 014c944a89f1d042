package songcache

import "github.com/prometheus/client_golang/prometheus"

// cacheMetrics exposes the cache's hit/miss/eviction/budget counters on the
// Control Plane's /metrics endpoint (SPEC_FULL.md §12 supplemented feature).
// Each Cache instance registers against the default registry but tolerates
// a second registration (tests construct many caches in one process) by
// reusing whatever collector already claimed that metric name.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	used      prometheus.Gauge
	budget    prometheus.Gauge
	entries   prometheus.Gauge
}

func registerCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
	}
	return c
}

func registerGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
	}
	return g
}

func newCacheMetrics() *cacheMetrics {
	return &cacheMetrics{
		hits: registerCounter(prometheus.CounterOpts{
			Namespace: "backline", Subsystem: "songcache", Name: "hits_total",
			Help: "Number of get_or_load calls served from cache.",
		}),
		misses: registerCounter(prometheus.CounterOpts{
			Namespace: "backline", Subsystem: "songcache", Name: "misses_total",
			Help: "Number of get_or_load calls that triggered a load.",
		}),
		evictions: registerCounter(prometheus.CounterOpts{
			Namespace: "backline", Subsystem: "songcache", Name: "evictions_total",
			Help: "Number of unpinned entries evicted.",
		}),
		used: registerGauge(prometheus.GaugeOpts{
			Namespace: "backline", Subsystem: "songcache", Name: "used_bytes",
			Help: "Bytes currently held by cached songs.",
		}),
		budget: registerGauge(prometheus.GaugeOpts{
			Namespace: "backline", Subsystem: "songcache", Name: "budget_bytes",
			Help: "Current effective byte budget.",
		}),
		entries: registerGauge(prometheus.GaugeOpts{
			Namespace: "backline", Subsystem: "songcache", Name: "entries",
			Help: "Number of songs currently cached.",
		}),
	}
}
