package transition

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
	"go.opencensus.io/trace"
)

// maxSkipSlotCacheSize is the number of advanced states kept by the skip slot cache.
const maxSkipSlotCacheSize = 8

type skipSlotEntry struct {
	state     state.BeaconState
	summaries []*EpochSummary
}

// SkipSlotCache keeps the results of advancing a state through empty slots, so repeated requests
// for the same pre-state and target slot skip the epoch processing.
type SkipSlotCache struct {
	lru      *lru.Cache[[32]byte, *skipSlotEntry]
	lock     sync.RWMutex
	disabled bool
}

// NewSkipSlotCache creates an empty, enabled skip slot cache.
func NewSkipSlotCache() (*SkipSlotCache, error) {
	c, err := lru.New[[32]byte, *skipSlotEntry](maxSkipSlotCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create skip slot cache")
	}
	return &SkipSlotCache{lru: c}, nil
}

// SkipSlotCacheKey mixes the pre-state root and the target slot.
// [0:24] represents the pre-state root
// [24:32] represents the target slot
func SkipSlotCacheKey(ctx context.Context, st state.ReadOnlyBeaconState, slot primitives.Slot) ([32]byte, error) {
	root, err := st.HashTreeRoot(ctx)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not hash pre-state")
	}
	var key [32]byte
	copy(key[:24], root[:24])
	copy(key[24:], bytesutil.Uint64ToBytesBigEndian(uint64(slot)))
	return key, nil
}

// Get returns a copy of the cached post-state for the key, or nil when absent.
func (c *SkipSlotCache) Get(ctx context.Context, key [32]byte) (state.BeaconState, []*EpochSummary) {
	_, span := trace.StartSpan(ctx, "skipSlotCache.Get")
	defer span.End()

	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.disabled {
		skipSlotCacheMiss.Inc()
		return nil, nil
	}
	entry, ok := c.lru.Get(key)
	if !ok {
		skipSlotCacheMiss.Inc()
		span.AddAttributes(trace.BoolAttribute("hit", false))
		return nil, nil
	}
	skipSlotCacheHits.Inc()
	span.AddAttributes(trace.BoolAttribute("hit", true))
	return entry.state.Copy(), entry.summaries
}

// Put stores a copy of the post-state under the key.
func (c *SkipSlotCache) Put(_ context.Context, key [32]byte, st state.BeaconState, summaries []*EpochSummary) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.disabled || st == nil {
		return
	}
	c.lru.Add(key, &skipSlotEntry{state: st.Copy(), summaries: summaries})
}

// Clear drops every cached state.
func (c *SkipSlotCache) Clear() {
	c.lru.Purge()
}

// Enable the skip slot cache.
func (c *SkipSlotCache) Enable() {
	c.lock.Lock()
	c.disabled = false
	c.lock.Unlock()
}

// Disable the skip slot cache.
func (c *SkipSlotCache) Disable() {
	c.lock.Lock()
	c.disabled = true
	c.lock.Unlock()
}

