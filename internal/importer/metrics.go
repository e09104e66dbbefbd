package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aical",
			Name:      "imports_total",
			Help:      "Natural-language import requests by outcome.",
		},
		[]string{"outcome"},
	)

	eventsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aical",
			Name:      "imported_events_total",
			Help:      "Events added by natural-language imports.",
		},
	)

	importDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aical",
			Name:      "import_parse_seconds",
			Help:      "Time spent waiting on the parsing backend.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)
)
