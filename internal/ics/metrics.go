package ics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var feedFetches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aical",
		Name:      "feed_fetches_total",
		Help:      "Feed fetches by outcome: fresh, not_modified, stale or error.",
	},
	[]string{"outcome"},
)
