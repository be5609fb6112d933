package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autoinject_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	TransformDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoinject_transform_seconds",
		Help:    "Time spent transforming a single module, parse included.",
		Buckets: prometheus.DefBuckets,
	})

	TransformsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoinject_transforms_total",
		Help: "Total number of transform calls by outcome.",
	}, []string{"status"})

	ImportsInjectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoinject_imports_injected_total",
		Help: "Total number of import statements synthesized.",
	})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoinject_cache_lookups_total",
		Help: "Total number of transform cache lookups by result.",
	}, []string{"result"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoinject_build_seconds",
		Help:    "Time spent on a full build pass.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoinject_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoinject_http_requests_total",
		Help: "Total number of transform API requests by status code.",
	}, []string{"code"})
)
