package precompute

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/math"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"
)

// minDeltaBatchSize is the smallest index range handed to a single delta worker.
const minDeltaBatchSize = 1024

// Summary totals the deltas applied by one rewards and penalties pass.
type Summary struct {
	Eligible  uint64
	Rewards   uint64
	Penalties uint64
}

// ProcessRewardsAndPenaltiesPrecompute processes the rewards and penalties of individual validator
// from the accumulated participation. It is a no-op in the genesis epoch. Balances are updated in
// a single pass, rewards first, and never drop below zero.
func ProcessRewardsAndPenaltiesPrecompute(
	ctx context.Context,
	st state.BeaconState,
	ectx *epoch.Context,
	p *Participation,
) (*Summary, error) {
	ctx, span := trace.StartSpan(ctx, "precomputeEpoch.ProcessRewardsAndPenaltiesPrecompute")
	defer span.End()

	// Can't process rewards and penalties in genesis epoch.
	if helpers.CurrentEpoch(st) == params.BeaconConfig().GenesisEpoch {
		return &Summary{}, nil
	}
	if p == nil || ectx == nil {
		return nil, errors.New("nil participation or epoch context")
	}

	numOfVals := st.NumValidators()
	// Guard against an out-of-bounds using validator balance precompute.
	if len(p.Flags) != numOfVals || numOfVals != st.BalancesLength() {
		return nil, errors.Wrap(helpers.ErrMalformedInput, "participation not the same length as state registries")
	}
	if p.Inclusions != nil && len(p.Inclusions) != numOfVals {
		return nil, errors.Wrap(helpers.ErrMalformedInput, "inclusions not the same length as state registries")
	}

	attsRewards, attsPenalties, err := AttestationsDelta(ctx, st, ectx, p)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not get attestation delta")
	}
	proposerRewards, err := ProposersDelta(st, ectx, p)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not get proposer delta")
	}

	summary := &Summary{}
	prevEpoch := helpers.PrevEpoch(st)
	maxIssuance := uint64(0)
	baseRewardsPerEpoch := params.BeaconConfig().BaseRewardsPerEpoch
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if helpers.IsEligibleForRewards(val, prevEpoch) {
			summary.Eligible++
			maxIssuance += helpers.BaseReward(val.EffectiveBalance(), ectx.TotalActiveBalance()) * baseRewardsPerEpoch
		}
		return nil
	}); err != nil {
		return nil, err
	}
	for i := 0; i < numOfVals; i++ {
		summary.Rewards, err = math.Add64(summary.Rewards, attsRewards[i])
		if err != nil {
			return nil, errors.Wrap(helpers.ErrInvariantViolation, "reward sum overflow")
		}
		summary.Rewards, err = math.Add64(summary.Rewards, proposerRewards[i])
		if err != nil {
			return nil, errors.Wrap(helpers.ErrInvariantViolation, "reward sum overflow")
		}
		summary.Penalties += attsPenalties[i]
	}
	if summary.Rewards > maxIssuance {
		err := errors.Wrapf(helpers.ErrInvariantViolation, "epoch rewards %d exceed issuance cap %d", summary.Rewards, maxIssuance)
		tracing.AnnotateError(span, err)
		return nil, err
	}

	balances := st.Balances()
	for i := 0; i < numOfVals; i++ {
		bal, err := helpers.IncreaseBalanceWithVal(balances[i], attsRewards[i]+proposerRewards[i])
		if err != nil {
			return nil, err
		}
		balances[i] = helpers.DecreaseBalanceWithVal(bal, attsPenalties[i])
	}
	if err := st.SetBalances(balances); err != nil {
		return nil, errors.Wrap(err, "could not set balances")
	}
	return summary, nil
}

// AttestationsDelta computes and returns the rewards and penalties differences for individual
// validators based on their participation flags. Disjoint index ranges are computed concurrently.
func AttestationsDelta(ctx context.Context, st state.ReadOnlyBeaconState, ectx *epoch.Context, p *Participation) ([]uint64, []uint64, error) {
	numOfVals := st.NumValidators()
	rewards := make([]uint64, numOfVals)
	penalties := make([]uint64, numOfVals)
	prevEpoch := helpers.PrevEpoch(st)
	totalActive := ectx.TotalActiveBalance()
	weights := flagWeights()

	batch := numOfVals / runtime.GOMAXPROCS(0)
	if batch < minDeltaBatchSize {
		batch = minDeltaBatchSize
	}
	eg, egctx := errgroup.WithContext(ctx)
	for start := 0; start < numOfVals; start += batch {
		end := start + batch
		if end > numOfVals {
			end = numOfVals
		}
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := egctx.Err(); err != nil {
					return err
				}
				val, err := st.ValidatorAtIndexReadOnly(primitives.ValidatorIndex(i))
				if err != nil {
					return err
				}
				if !helpers.IsEligibleForRewards(val, prevEpoch) {
					continue
				}
				var inclusion *Inclusion
				if p.Inclusions != nil {
					inclusion = &p.Inclusions[i]
				}
				rewards[i], penalties[i] = attestationDelta(val.EffectiveBalance(), totalActive, p.Flags[i], inclusion, weights)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return rewards, penalties, nil
}

// attestationDelta credits the weighted share of the base reward for every earned flag and
// debits the same share for every missed one. A recorded inclusion adds the attester's inclusion
// reward, scaled down by the inclusion delay.
func attestationDelta(effectiveBalance, totalActive uint64, flags ParticipationFlags, inclusion *Inclusion, weights []flagWeight) (uint64, uint64) {
	cfg := params.BeaconConfig()
	br := helpers.BaseReward(effectiveBalance, totalActive)
	r, p := uint64(0), uint64(0)
	for _, w := range weights {
		share := br * w.weight / cfg.WeightDenominator
		if flags.has(w.position) {
			r += share
		} else {
			p += share
		}
	}
	if inclusion != nil && inclusion.Recorded && flags.Source() && inclusion.Delay > 0 {
		proposerReward := br / cfg.ProposerRewardQuotient
		maxAttesterReward := br - proposerReward
		r += maxAttesterReward / uint64(inclusion.Delay)
	}
	return r, p
}

// ProposersDelta computes and returns the rewards of the proposers that included previous epoch
// attestations, one proposer reward per included eligible participant. Credits are reduced in
// validator index order.
func ProposersDelta(st state.ReadOnlyBeaconState, ectx *epoch.Context, p *Participation) ([]uint64, error) {
	numOfVals := st.NumValidators()
	rewards := make([]uint64, numOfVals)
	if p.Inclusions == nil {
		return rewards, nil
	}
	prevEpoch := helpers.PrevEpoch(st)
	proposerRewardQuotient := params.BeaconConfig().ProposerRewardQuotient
	for i, inclusion := range p.Inclusions {
		// Proposers are only credited for eligible attesters.
		if !inclusion.Recorded || !p.Flags[i].Source() {
			continue
		}
		val, err := st.ValidatorAtIndexReadOnly(primitives.ValidatorIndex(i))
		if err != nil {
			return nil, err
		}
		if !helpers.IsEligibleForRewards(val, prevEpoch) {
			continue
		}
		if int(inclusion.ProposerIndex) >= numOfVals {
			return nil, errors.Wrapf(helpers.ErrMalformedInput, "proposer index %d outside of registry", inclusion.ProposerIndex)
		}
		baseReward := helpers.BaseReward(val.EffectiveBalance(), ectx.TotalActiveBalance())
		rewards[inclusion.ProposerIndex] += baseReward / proposerRewardQuotient
	}
	return rewards, nil
}
