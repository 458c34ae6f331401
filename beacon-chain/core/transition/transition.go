// Package transition advances a beacon state through empty slots, running epoch processing at
// every epoch boundary it crosses and keeping the epoch context in step with the state.
package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
	"go.opencensus.io/trace"
)

var errNilState = errors.New("nil beacon state")

// EpochSummary describes the epoch processing of one epoch boundary.
type EpochSummary struct {
	Epoch   primitives.Epoch
	Rewards *precompute.Summary
}

// ProcessSlots advances a copy of the state up to the given slot and returns it together with
// the epoch context of its new epoch. The input state is never modified, so a failed transition
// leaves the caller's state as it was. A nil or stale epoch context is replaced by one matching
// the state. Context cancellation is observed between slots.
func ProcessSlots(
	ctx context.Context,
	st state.BeaconState,
	ectx *epoch.Context,
	slot primitives.Slot,
) (state.BeaconState, *epoch.Context, error) {
	post, ectx, _, err := processSlots(ctx, st, ectx, slot)
	if err != nil {
		return nil, nil, err
	}
	return post, ectx, nil
}

func processSlots(
	ctx context.Context,
	st state.BeaconState,
	ectx *epoch.Context,
	slot primitives.Slot,
) (state.BeaconState, *epoch.Context, []*EpochSummary, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlots")
	defer span.End()

	if st == nil {
		return nil, nil, nil, errNilState
	}
	span.AddAttributes(trace.Int64Attribute("slots", int64(slot)-int64(st.Slot())))
	if st.Slot() >= slot {
		err := fmt.Errorf("expected state.slot %d < slot %d", st.Slot(), slot)
		tracing.AnnotateError(span, err)
		return nil, nil, nil, err
	}

	ectx, err := contextForState(ctx, st, ectx)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, nil, errors.Wrap(err, "could not build epoch context")
	}

	post := st.Copy()
	var summaries []*EpochSummary
	for post.Slot() < slot {
		if ctx.Err() != nil {
			tracing.AnnotateError(span, ctx.Err())
			return nil, nil, nil, ctx.Err()
		}
		if slots.IsEpochEnd(post.Slot()) {
			e := helpers.CurrentEpoch(post)
			summary, err := ProcessEpoch(ctx, post, ectx)
			if err != nil {
				tracing.AnnotateError(span, err)
				return nil, nil, nil, errors.Wrapf(err, "could not process epoch %d", e)
			}
			summaries = append(summaries, &EpochSummary{Epoch: e, Rewards: summary})
		}
		if err := post.SetSlot(post.Slot() + 1); err != nil {
			tracing.AnnotateError(span, err)
			return nil, nil, nil, errors.Wrap(err, "failed to increment state slot")
		}
		if slots.IsEpochStart(post.Slot()) {
			ectx, err = ectx.Rebuild(ctx, post)
			if err != nil {
				tracing.AnnotateError(span, err)
				return nil, nil, nil, errors.Wrapf(err, "could not rebuild epoch context at slot %d", post.Slot())
			}
		}
	}
	return post, ectx, summaries, nil
}

// ProcessEpoch runs the end of epoch steps on the state, which must sit on the last slot of its
// epoch with ectx describing that epoch.
func ProcessEpoch(ctx context.Context, st state.BeaconState, ectx *epoch.Context) (*precompute.Summary, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessEpoch")
	defer span.End()

	if st == nil {
		return nil, errNilState
	}
	currentEpoch := helpers.CurrentEpoch(st)
	if ectx == nil || ectx.Epoch() != currentEpoch {
		return nil, errors.Wrapf(epoch.ErrEpochOutOfRange, "epoch context does not describe epoch %d", currentEpoch)
	}
	start := time.Now()

	src, err := precompute.SourceFromState(st)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not read participation")
	}
	p, err := precompute.ProcessParticipation(ctx, st, ectx, src)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process participation")
	}
	summary, err := precompute.ProcessRewardsAndPenaltiesPrecompute(ctx, st, ectx, p)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process rewards and penalties")
	}
	if _, err := epoch.ProcessEffectiveBalanceUpdates(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process effective balance updates")
	}
	if _, err := epoch.ProcessRandaoMixesReset(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process randao mixes reset")
	}
	if _, err := epoch.ProcessParticipationRecordUpdates(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process participation record updates")
	}

	epochProcessingTime.Observe(time.Since(start).Seconds())
	processedEpochs.Inc()
	return summary, nil
}

// contextForState returns ectx when it describes the state and a matching context otherwise.
// A nil context is built without a shuffling cache.
func contextForState(ctx context.Context, st state.ReadOnlyBeaconState, ectx *epoch.Context) (*epoch.Context, error) {
	if ectx == nil {
		return epoch.NewContext(ctx, st, nil)
	}
	ok, err := ectx.Describes(st)
	if err != nil {
		return nil, err
	}
	if ok {
		return ectx, nil
	}
	return ectx.Rebuild(ctx, st)
}
