package transition

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// StateSink receives the post-state of every advance that crossed an epoch boundary.
type StateSink interface {
	SaveArchivedState(ctx context.Context, st state.ReadOnlyBeaconState) error
}

// Engine advances states while holding the caches and the epoch context between calls.
type Engine struct {
	lock           sync.Mutex
	shufflingCache *cache.ShufflingCache
	proposerCache  *cache.ProposerIndicesCache
	skipSlotCache  *SkipSlotCache
	sink           StateSink
	ectx           *epoch.Context
}

// EngineOption configures an Engine.
type EngineOption func(e *Engine)

// WithStateSink hands post-epoch states to sink once each advance returns.
func WithStateSink(sink StateSink) EngineOption {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithSkipSlotCache reuses results of identical advances.
func WithSkipSlotCache(c *SkipSlotCache) EngineOption {
	return func(e *Engine) {
		e.skipSlotCache = c
	}
}

// WithShufflingCache shares a shuffling cache with other consumers.
func WithShufflingCache(c *cache.ShufflingCache) EngineOption {
	return func(e *Engine) {
		e.shufflingCache = c
	}
}

// NewEngine creates an engine with its own shuffling and proposer caches.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	pc, err := cache.NewProposerIndicesCache()
	if err != nil {
		return nil, errors.Wrap(err, "could not create proposer indices cache")
	}
	e := &Engine{
		shufflingCache: cache.NewShufflingCache(),
		proposerCache:  pc,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Context returns the epoch context of the last advanced state, or nil before the first advance.
func (e *Engine) Context() *epoch.Context {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.ectx
}

// Advance processes the state up to slot and returns the new state with a summary of every epoch
// boundary crossed. The input state is left untouched. When a sink is configured and an epoch
// boundary was crossed, the post-state is saved to it before Advance returns.
func (e *Engine) Advance(ctx context.Context, st state.BeaconState, slot primitives.Slot) (state.BeaconState, []*EpochSummary, error) {
	ctx, span := trace.StartSpan(ctx, "transition.Engine.Advance")
	defer span.End()

	if st == nil {
		return nil, nil, errNilState
	}
	e.lock.Lock()
	defer e.lock.Unlock()

	ectx, err := e.contextFor(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	var key [32]byte
	var post state.BeaconState
	var summaries []*EpochSummary
	if e.skipSlotCache != nil && st.Slot() < slot {
		key, err = SkipSlotCacheKey(ctx, st, slot)
		if err != nil {
			return nil, nil, err
		}
		post, summaries = e.skipSlotCache.Get(ctx, key)
	}
	if post != nil {
		ectx, err = contextForState(ctx, post, ectx)
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not build epoch context")
		}
	} else {
		post, ectx, summaries, err = processSlots(ctx, st, ectx, slot)
		if err != nil {
			return nil, nil, err
		}
		if e.skipSlotCache != nil {
			e.skipSlotCache.Put(ctx, key, post, summaries)
		}
	}
	e.ectx = ectx

	for _, s := range summaries {
		lastProcessedEpoch.Set(float64(s.Epoch))
		epochRewardsGwei.Set(float64(s.Rewards.Rewards))
		epochPenaltiesGwei.Set(float64(s.Rewards.Penalties))
		log.WithFields(logrus.Fields{
			"epoch":     s.Epoch,
			"eligible":  s.Rewards.Eligible,
			"rewards":   s.Rewards.Rewards,
			"penalties": s.Rewards.Penalties,
		}).Debug("Processed epoch")
	}

	if e.sink != nil && slots.ToEpoch(post.Slot()) > helpers.CurrentEpoch(st) {
		if err := e.sink.SaveArchivedState(ctx, post); err != nil {
			return nil, nil, errors.Wrapf(err, "could not save post-state at slot %d", post.Slot())
		}
	}
	return post, summaries, nil
}

func (e *Engine) contextFor(ctx context.Context, st state.ReadOnlyBeaconState) (*epoch.Context, error) {
	if e.ectx != nil {
		return e.ectx, nil
	}
	ectx, err := epoch.NewContext(ctx, st, e.shufflingCache, epoch.WithProposerIndicesCache(e.proposerCache))
	if err != nil {
		return nil, errors.Wrap(err, "could not build epoch context")
	}
	return ectx, nil
}
