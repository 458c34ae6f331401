package epoch_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/epoch-engine/testing/util"
)

func stateAtEpoch(t *testing.T, validators uint64, e primitives.Epoch) state.BeaconState {
	st := util.DeterministicGenesisState(t, validators)
	require.NoError(t, st.SetSlot(primitives.Slot(uint64(e)*uint64(params.BeaconConfig().SlotsPerEpoch))+1))
	return st
}

func TestNewContext_HoldsThreeEpochs(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 256, 3)

	ec, err := epoch.NewContext(context.Background(), st, cache.NewShufflingCache())
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(3), ec.Epoch())
	assert.Equal(t, epoch.Current, ec.Status(3))
	assert.Equal(t, epoch.Stale, ec.Status(4))

	for _, e := range []primitives.Epoch{2, 3, 4} {
		s, err := ec.ShufflingAtEpoch(e)
		require.NoError(t, err)
		assert.Equal(t, e, s.Epoch)
	}
	_, err = ec.ShufflingAtEpoch(5)
	require.ErrorIs(t, err, epoch.ErrEpochOutOfRange)
	_, err = ec.ShufflingAtEpoch(1)
	require.ErrorIs(t, err, epoch.ErrEpochOutOfRange)

	assert.Equal(t, 256, len(ec.ActiveIndices()))
	assert.Equal(t, 256*params.BeaconConfig().MaxEffectiveBalance, ec.TotalActiveBalance())
	assert.Equal(t, int(params.BeaconConfig().SlotsPerEpoch), len(ec.ProposerIndices()))
}

func TestNewContext_Genesis(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := util.DeterministicGenesisState(t, 64)

	ec, err := epoch.NewContext(context.Background(), st, nil)
	require.NoError(t, err)
	s, err := ec.ShufflingAtEpoch(0)
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(0), s.Epoch)
	count, err := ec.CommitteeCountPerSlot(0)
	require.NoError(t, err)
	assert.Equal(t, helpers.SlotCommitteeCount(64), count)
}

func TestNewContext_NoActiveValidators(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st, err := util.NewBeaconState()
	require.NoError(t, err)
	_, err = epoch.NewContext(context.Background(), st, nil)
	require.ErrorIs(t, err, helpers.ErrMalformedInput)
}

func TestNewContext_MatchesDirectShuffling(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 200, 2)
	ec, err := epoch.NewContext(context.Background(), st, cache.NewShufflingCache())
	require.NoError(t, err)

	seed, err := helpers.Seed(st, 2, params.BeaconConfig().DomainBeaconAttester)
	require.NoError(t, err)
	want, err := helpers.ComputeShuffling(2, seed, ec.ActiveIndices())
	require.NoError(t, err)
	got, err := ec.ShufflingAtEpoch(2)
	require.NoError(t, err)
	assert.DeepEqual(t, want.Committees, got.Committees)
}

func TestRebuild_ReusesNextShuffling(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	c := cache.NewShufflingCache()
	st := stateAtEpoch(t, 256, 1)

	old, err := epoch.NewContext(context.Background(), st, c)
	require.NoError(t, err)
	oldCurrent, err := old.ShufflingAtEpoch(1)
	require.NoError(t, err)
	oldNext, err := old.ShufflingAtEpoch(2)
	require.NoError(t, err)

	next := st.Copy()
	require.NoError(t, next.SetSlot(2*params.BeaconConfig().SlotsPerEpoch))
	ec, err := old.Rebuild(context.Background(), next)
	require.NoError(t, err)

	assert.Equal(t, epoch.Stale, old.Status(1))
	assert.Equal(t, epoch.Current, ec.Status(2))

	current, err := ec.ShufflingAtEpoch(2)
	require.NoError(t, err)
	assert.Equal(t, oldNext, current, "Expected the old next shuffling to be reused")
	previous, err := ec.ShufflingAtEpoch(1)
	require.NoError(t, err)
	assert.Equal(t, oldCurrent, previous)
	_, err = ec.ShufflingAtEpoch(0)
	require.ErrorIs(t, err, epoch.ErrEpochOutOfRange)
	s, err := ec.ShufflingAtEpoch(3)
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(3), s.Epoch)
}

func TestRebuild_ChangedActiveSetRecomputes(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 128, 1)
	old, err := epoch.NewContext(context.Background(), st, nil)
	require.NoError(t, err)
	oldNext, err := old.ShufflingAtEpoch(2)
	require.NoError(t, err)

	next := st.Copy()
	require.NoError(t, next.SetSlot(2*params.BeaconConfig().SlotsPerEpoch))
	v, err := next.ValidatorAtIndex(5)
	require.NoError(t, err)
	v.ExitEpoch = 2
	require.NoError(t, next.UpdateValidatorAtIndex(5, v))

	ec, err := old.Rebuild(context.Background(), next)
	require.NoError(t, err)
	current, err := ec.ShufflingAtEpoch(2)
	require.NoError(t, err)
	assert.NotEqual(t, oldNext, current)
	assert.Equal(t, 127, len(current.ActiveIndices))
}

func TestRebuild_ChangedActiveSetBypassesCachedShuffling(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 128, 1)
	old, err := epoch.NewContext(context.Background(), st, cache.NewShufflingCache())
	require.NoError(t, err)

	next := st.Copy()
	require.NoError(t, next.SetSlot(2*params.BeaconConfig().SlotsPerEpoch))
	v, err := next.ValidatorAtIndex(5)
	require.NoError(t, err)
	v.ExitEpoch = 2
	require.NoError(t, next.UpdateValidatorAtIndex(5, v))

	ec, err := old.Rebuild(context.Background(), next)
	require.NoError(t, err)
	require.Equal(t, 127, len(ec.ActiveIndices()))
	current, err := ec.ShufflingAtEpoch(2)
	require.NoError(t, err)
	assert.DeepEqual(t, ec.ActiveIndices(), current.ActiveIndices)

	seats := 0
	for _, committee := range current.Committees {
		for _, idx := range committee {
			assert.NotEqual(t, primitives.ValidatorIndex(5), idx, "Exited validator kept a committee seat")
		}
		seats += len(committee)
	}
	assert.Equal(t, 127, seats)
}

func TestDescribes(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 128, 1)
	ec, err := epoch.NewContext(context.Background(), st, cache.NewShufflingCache())
	require.NoError(t, err)

	ok, err := ec.Describes(st)
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	lowered := st.Copy()
	v, err := lowered.ValidatorAtIndex(9)
	require.NoError(t, err)
	v.EffectiveBalance -= params.BeaconConfig().EffectiveBalanceIncrement
	require.NoError(t, lowered.UpdateValidatorAtIndex(9, v))
	ok, err = ec.Describes(lowered)
	require.NoError(t, err)
	assert.Equal(t, false, ok, "Effective balance change must invalidate the context")

	other := stateAtEpoch(t, 64, 1)
	ok, err = ec.Describes(other)
	require.NoError(t, err)
	assert.Equal(t, false, ok, "Another registry must invalidate the context")

	later := stateAtEpoch(t, 128, 2)
	ok, err = ec.Describes(later)
	require.NoError(t, err)
	assert.Equal(t, false, ok)
}

func TestRebuild_SkippedEpochBuildsFromScratch(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 64, 1)
	old, err := epoch.NewContext(context.Background(), st, nil)
	require.NoError(t, err)

	later := st.Copy()
	require.NoError(t, later.SetSlot(5*params.BeaconConfig().SlotsPerEpoch))
	ec, err := old.Rebuild(context.Background(), later)
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(5), ec.Epoch())
	assert.Equal(t, epoch.Stale, old.Status(1))
	_, err = ec.ShufflingAtEpoch(4)
	require.NoError(t, err)
}

func TestBeaconCommittee_OK(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 300, 2)
	ec, err := epoch.NewContext(context.Background(), st, nil)
	require.NoError(t, err)

	slot := primitives.Slot(2*uint64(params.BeaconConfig().SlotsPerEpoch) + 3)
	committee, err := ec.BeaconCommittee(slot, 1)
	require.NoError(t, err)
	s, err := ec.ShufflingAtEpoch(2)
	require.NoError(t, err)
	assert.DeepEqual(t, s.Committees[3*s.CommitteesPerSlot+1], committee)

	_, err = ec.BeaconCommittee(slot, primitives.CommitteeIndex(s.CommitteesPerSlot))
	require.ErrorIs(t, err, cache.ErrEmptyCommittee)
	_, err = ec.BeaconCommittee(0, 0)
	require.ErrorIs(t, err, epoch.ErrEpochOutOfRange)
}

func TestProposerIndex_OK(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 100, 1)
	ec, err := epoch.NewContext(context.Background(), st, nil)
	require.NoError(t, err)

	spe := params.BeaconConfig().SlotsPerEpoch
	for i := primitives.Slot(0); i < spe; i++ {
		slot := spe + i
		p, err := ec.ProposerIndex(slot)
		require.NoError(t, err)
		seed, err := helpers.ProposerSeed(st, slot)
		require.NoError(t, err)
		want, err := helpers.ComputeProposerIndex(st, ec.ActiveIndices(), seed)
		require.NoError(t, err)
		assert.Equal(t, want, p)

		proposed, err := ec.ProposerSlots(p)
		require.NoError(t, err)
		found := false
		for _, s := range proposed {
			found = found || s == slot
		}
		assert.Equal(t, true, found, "Slot %d missing from proposer slots of %d", slot, p)
	}
	_, err = ec.ProposerIndex(2 * spe)
	require.ErrorIs(t, err, epoch.ErrEpochOutOfRange)
}

func TestProposerIndex_UsesProposerCache(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	pc, err := cache.NewProposerIndicesCache()
	require.NoError(t, err)
	st := stateAtEpoch(t, 64, 1)

	_, err = epoch.NewContext(context.Background(), st, nil, epoch.WithProposerIndicesCache(pc))
	require.NoError(t, err)
	assert.Equal(t, 1, pc.Len())
}

func TestCommitteeAssignment_EveryActiveValidator(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := stateAtEpoch(t, 150, 1)
	ec, err := epoch.NewContext(context.Background(), st, nil)
	require.NoError(t, err)

	all, err := ec.AssignmentsForEpoch(2)
	require.NoError(t, err)
	require.Equal(t, 150, len(all))
	for _, idx := range ec.ActiveIndices() {
		a, err := ec.CommitteeAssignment(2, idx)
		require.NoError(t, err)
		assert.Equal(t, idx, a.Committee[a.Position])
		committee, err := ec.BeaconCommittee(a.AttesterSlot, a.CommitteeIndex)
		require.NoError(t, err)
		assert.DeepEqual(t, committee, a.Committee)
		assert.DeepEqual(t, all[idx], a)
	}

	_, err = ec.CommitteeAssignment(2, 150)
	require.ErrorIs(t, err, epoch.ErrNotAssigned)
}
