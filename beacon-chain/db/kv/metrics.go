package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archivedStatesCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archived_states_total",
		Help: "Number of states written to the state archive.",
	})
	archivedStateBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archived_state_size_bytes",
		Help:    "Compressed size of archived states.",
		Buckets: prometheus.ExponentialBuckets(1<<10, 4, 10),
	})
)
