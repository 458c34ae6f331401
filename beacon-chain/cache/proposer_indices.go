package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// maxProposerIndicesCacheSize defines the max number of proposer sequences the cache holds.
const maxProposerIndicesCacheSize = 8

var (
	proposerIndicesCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proposer_indices_cache_miss",
		Help: "The number of proposer indices requests that aren't present in the cache.",
	})
	proposerIndicesCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proposer_indices_cache_hit",
		Help: "The number of proposer indices requests that are present in the cache.",
	})
)

type proposerKey struct {
	epoch    primitives.Epoch
	seed     [32]byte
	registry [32]byte
}

// ProposerIndicesCache keeps the per-slot proposer sequence of recent epochs, keyed by epoch,
// proposer seed and a digest of the active validators and their effective balances.
type ProposerIndicesCache struct {
	cache *lru.Cache[proposerKey, []primitives.ValidatorIndex]
}

// NewProposerIndicesCache creates a new proposer indices cache.
func NewProposerIndicesCache() (*ProposerIndicesCache, error) {
	c, err := lru.New[proposerKey, []primitives.ValidatorIndex](maxProposerIndicesCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create proposer indices cache")
	}
	return &ProposerIndicesCache{cache: c}, nil
}

// ProposerIndices returns the cached proposer sequence for the epoch, seed and registry digest.
func (c *ProposerIndicesCache) ProposerIndices(epoch primitives.Epoch, seed, registry [32]byte) ([]primitives.ValidatorIndex, bool) {
	indices, ok := c.cache.Get(proposerKey{epoch: epoch, seed: seed, registry: registry})
	if !ok {
		proposerIndicesCacheMiss.Inc()
		return nil, false
	}
	proposerIndicesCacheHit.Inc()
	return indices, true
}

// Set stores the proposer sequence for the epoch, seed and registry digest.
func (c *ProposerIndicesCache) Set(epoch primitives.Epoch, seed, registry [32]byte, indices []primitives.ValidatorIndex) {
	c.cache.Add(proposerKey{epoch: epoch, seed: seed, registry: registry}, indices)
}

// Len returns the number of cached proposer sequences.
func (c *ProposerIndicesCache) Len() int {
	return c.cache.Len()
}
