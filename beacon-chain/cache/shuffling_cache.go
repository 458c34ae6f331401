package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"golang.org/x/sync/singleflight"
)

// shufflingCacheSize holds the previous, current and next epoch shufflings.
const shufflingCacheSize = 3

var (
	shufflingCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuffling_cache_miss",
		Help: "The number of shuffling requests that aren't present in the cache.",
	})
	shufflingCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuffling_cache_hit",
		Help: "The number of shuffling requests that are present in the cache.",
	})
)

// ShufflingCache keeps the shufflings of the last three epochs in an arena indexed by
// epoch mod 3. An entry only matches a lookup when its epoch, seed and active indices all do.
type ShufflingCache struct {
	arena [shufflingCacheSize]*Shuffling
	lock  sync.RWMutex
	group singleflight.Group
}

// NewShufflingCache creates an empty shuffling cache.
func NewShufflingCache() *ShufflingCache {
	return &ShufflingCache{}
}

// Get returns the cached shuffling for the epoch, seed and active indices, or nil on a miss.
// An entry built from a different active set counts as a miss.
func (c *ShufflingCache) Get(epoch primitives.Epoch, seed [32]byte, activeIndices []primitives.ValidatorIndex) *Shuffling {
	s := c.peek(epoch, seed, activeIndices)
	if s == nil {
		shufflingCacheMiss.Inc()
		return nil
	}
	shufflingCacheHit.Inc()
	return s
}

// Put stores a shuffling, replacing whatever occupied its epoch slot.
func (c *ShufflingCache) Put(s *Shuffling) error {
	if s == nil {
		return ErrNilShuffling
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	c.arena[uint64(s.Epoch)%shufflingCacheSize] = s
	return nil
}

// GetOrCompute returns the cached shuffling for the epoch, seed and active indices, calling
// compute on a miss. Concurrent callers asking for the same epoch, seed and active set share a
// single computation.
func (c *ShufflingCache) GetOrCompute(
	ctx context.Context,
	epoch primitives.Epoch,
	seed [32]byte,
	activeIndices []primitives.ValidatorIndex,
	compute func() (*Shuffling, error),
) (*Shuffling, error) {
	if s := c.Get(epoch, seed, activeIndices); s != nil {
		return s, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d-%#x-%d", epoch, seed, len(activeIndices))
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if s := c.peek(epoch, seed, activeIndices); s != nil {
			return s, nil
		}
		return c.computeAndPut(epoch, seed, activeIndices, compute)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		s := res.Val.(*Shuffling)
		if s.Matches(epoch, seed, activeIndices) {
			return s, nil
		}
		// Another caller with an equally sized but different active set won the flight.
		return c.computeAndPut(epoch, seed, activeIndices, compute)
	}
}

func (c *ShufflingCache) computeAndPut(
	epoch primitives.Epoch,
	seed [32]byte,
	activeIndices []primitives.ValidatorIndex,
	compute func() (*Shuffling, error),
) (*Shuffling, error) {
	s, err := compute()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNilShuffling
	}
	if !s.Matches(epoch, seed, activeIndices) {
		return nil, ErrShufflingMismatch
	}
	if err := c.Put(s); err != nil {
		return nil, err
	}
	return s, nil
}

// peek is Get without touching the metrics.
func (c *ShufflingCache) peek(epoch primitives.Epoch, seed [32]byte, activeIndices []primitives.ValidatorIndex) *Shuffling {
	c.lock.RLock()
	defer c.lock.RUnlock()

	s := c.arena[uint64(epoch)%shufflingCacheSize]
	if s == nil || !s.Matches(epoch, seed, activeIndices) {
		return nil
	}
	return s
}
