package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus registry for the schedule engine.
type Collector struct {
	reg *prometheus.Registry

	FetchNetwork  *prometheus.CounterVec // resource label: stations|holidays|availability|schedule
	FetchCache    *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec

	CacheWriteErrs   prometheus.Counter
	VerifyMismatches prometheus.Counter
	VerifyClears     prometheus.Counter

	DayRollovers       prometheus.Counter
	DegradedSessions   prometheus.Counter
	ResolutionDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FetchNetwork: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexttrip_fetch_network_total",
			Help: "Total feed documents served from the network.",
		}, []string{"resource"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexttrip_fetch_cache_total",
			Help: "Total feed documents served from the cache after a network failure.",
		}, []string{"resource"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexttrip_fetch_failures_total",
			Help: "Total feed fetches that failed with no cache fallback.",
		}, []string{"resource"}),
		CacheWriteErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexttrip_cache_write_errors_total",
			Help: "Total cache writes that failed after a successful fetch.",
		}),
		VerifyMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexttrip_verify_mismatches_total",
			Help: "Total cached entries whose checksum disagreed with the remote.",
		}),
		VerifyClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexttrip_verify_clears_total",
			Help: "Times the verification pass cleared the whole cache.",
		}),
		DayRollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexttrip_day_rollovers_total",
			Help: "Times resolution advanced to the next calendar day.",
		}),
		DegradedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexttrip_degraded_sessions_total",
			Help: "Sessions that served at least one document from cache.",
		}),
		ResolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexttrip_resolution_duration_seconds",
			Help:    "Duration of full next-trip resolution cycles.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.FetchNetwork,
		c.FetchCache,
		c.FetchFailures,
		c.CacheWriteErrs,
		c.VerifyMismatches,
		c.VerifyClears,
		c.DayRollovers,
		c.DegradedSessions,
		c.ResolutionDuration,
	)

	return c
}

// Handler exposes the registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
