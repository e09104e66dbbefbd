package subscribe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aical",
			Name:      "subscription_refresh_total",
			Help:      "Per-feed refresh outcomes.",
		},
		[]string{"outcome"},
	)

	feedEvents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aical",
			Name:      "subscription_events",
			Help:      "Events currently held for each feed.",
		},
		[]string{"feed"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aical",
			Name:      "subscription_refresh_seconds",
			Help:      "Duration of a full refresh pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
