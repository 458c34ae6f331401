package transition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	epochProcessingTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "epoch_processing_seconds",
		Help:    "Time spent on the end of epoch steps of a single epoch.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	processedEpochs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epoch_transitions_total",
		Help: "Number of epoch boundaries processed.",
	})
	lastProcessedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epoch_last_processed",
		Help: "The last epoch whose end of epoch steps were applied.",
	})
	epochRewardsGwei = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epoch_rewards_gwei",
		Help: "Total rewards applied in the last processed epoch.",
	})
	epochPenaltiesGwei = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epoch_penalties_gwei",
		Help: "Total penalties applied in the last processed epoch.",
	})
	skipSlotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skip_slot_cache_hit",
		Help: "The total number of cache hits on the skip slot cache.",
	})
	skipSlotCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skip_slot_cache_miss",
		Help: "The total number of cache misses on the skip slot cache.",
	})
)
