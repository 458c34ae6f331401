package archiver

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/transition"
	dbutil "github.com/prysmaticlabs/epoch-engine/beacon-chain/db/testing"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/epoch-engine/testing/util"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

var _ transition.StateSink = (*Service)(nil)

func stateAtSlot(t *testing.T, slot primitives.Slot) state.BeaconState {
	st := util.DeterministicGenesisState(t, 16)
	require.NoError(t, st.SetSlot(slot))
	return st
}

func TestArchiverService_ArchivesAtFrequency(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	beaconDB := dbutil.SetupDB(t)
	ctx := context.Background()
	svc := NewArchiverService(ctx, &Config{BeaconDB: beaconDB, EpochFrequency: 2})
	svc.Start()

	spe := params.BeaconConfig().SlotsPerEpoch
	for e := primitives.Slot(1); e <= 4; e++ {
		require.NoError(t, svc.SaveArchivedState(ctx, stateAtSlot(t, e*spe)))
	}
	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Status())

	for e := primitives.Slot(1); e <= 4; e++ {
		assert.Equal(t, e%2 == 0, beaconDB.HasArchivedState(ctx, e*spe), "Epoch %d", e)
	}
}

func TestArchiverService_QueuedStateIsCopied(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	beaconDB := dbutil.SetupDB(t)
	ctx := context.Background()
	svc := NewArchiverService(ctx, &Config{BeaconDB: beaconDB})

	st := stateAtSlot(t, 8)
	require.NoError(t, svc.SaveArchivedState(ctx, st))
	require.NoError(t, st.UpdateBalancesAtIndex(0, 1))
	svc.Start()
	require.NoError(t, svc.Stop())

	archived, err := beaconDB.ArchivedState(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, archived)
	bal, err := archived.BalanceAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, params.BeaconConfig().MaxEffectiveBalance, bal)
}

func TestArchiverService_StoppedRejectsStates(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	beaconDB := dbutil.SetupDB(t)
	ctx := context.Background()
	svc := NewArchiverService(ctx, &Config{BeaconDB: beaconDB})
	svc.Start()
	require.NoError(t, svc.Stop())

	err := svc.SaveArchivedState(ctx, stateAtSlot(t, 8))
	require.ErrorIs(t, err, errServiceStopped)
	assert.Equal(t, false, beaconDB.HasArchivedState(ctx, 8))
}

func TestArchiverService_ReportsWriteErrors(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	hook := logTest.NewGlobal()
	beaconDB := dbutil.SetupDB(t)
	ctx := context.Background()
	svc := NewArchiverService(ctx, &Config{BeaconDB: beaconDB})
	require.NoError(t, beaconDB.Close())

	svc.Start()
	require.NoError(t, svc.SaveArchivedState(ctx, stateAtSlot(t, 8)))
	require.NoError(t, svc.Stop())
	require.NotNil(t, svc.Status())
	require.LogsContain(t, hook, "Could not archive state")
}

func TestArchiverService_WithEngine(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	beaconDB := dbutil.SetupDB(t)
	ctx := context.Background()
	svc := NewArchiverService(ctx, &Config{BeaconDB: beaconDB})
	svc.Start()

	e, err := transition.NewEngine(transition.WithStateSink(svc))
	require.NoError(t, err)
	st := util.DeterministicGenesisState(t, 64)
	post, _, err := e.Advance(ctx, st, 2*params.BeaconConfig().SlotsPerEpoch)
	require.NoError(t, err)
	require.NoError(t, svc.Stop())

	want, err := post.HashTreeRoot(ctx)
	require.NoError(t, err)
	archived, err := beaconDB.ArchivedStateByRoot(ctx, want)
	require.NoError(t, err)
	require.NotNil(t, archived)
	assert.Equal(t, post.Slot(), archived.Slot())
}
