package helpers

import (
	"testing"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	state_native "github.com/prysmaticlabs/epoch-engine/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/epoch-engine/testing/util"
)

func validatorsState(t *testing.T, vals []*containers.Validator) state.BeaconState {
	bals := make([]uint64, len(vals))
	for i, v := range vals {
		bals[i] = v.EffectiveBalance
	}
	st, err := util.NewBeaconState(util.WithValidatorsOpt(vals, bals))
	require.NoError(t, err)
	return st
}

func TestIsActiveValidator_OK(t *testing.T) {
	tests := []struct {
		a primitives.Epoch
		b bool
	}{
		{a: 0, b: false},
		{a: 10, b: true},
		{a: 100, b: false},
		{a: 1000, b: false},
		{a: 64, b: true},
	}
	for _, test := range tests {
		v, err := state_native.NewValidator(&containers.Validator{ActivationEpoch: 10, ExitEpoch: 100})
		require.NoError(t, err)
		assert.Equal(t, test.b, IsActiveValidator(v, test.a), "IsActiveValidator(%d)", test.a)
	}
}

func TestIsEligibleForRewards(t *testing.T) {
	farFuture := params.BeaconConfig().FarFutureEpoch
	tests := []struct {
		name string
		val  *containers.Validator
		want bool
	}{
		{name: "active", val: &containers.Validator{ActivationEpoch: 0, ExitEpoch: farFuture}, want: true},
		{name: "slashed", val: &containers.Validator{ActivationEpoch: 0, ExitEpoch: farFuture, Slashed: true}, want: false},
		{name: "not yet active", val: &containers.Validator{ActivationEpoch: 6, ExitEpoch: farFuture}, want: false},
		{name: "exited", val: &containers.Validator{ActivationEpoch: 0, ExitEpoch: 5}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := state_native.NewValidator(tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.want, IsEligibleForRewards(v, 5))
		})
	}
}

func TestActiveValidatorIndices(t *testing.T) {
	farFuture := params.BeaconConfig().FarFutureEpoch
	st := validatorsState(t, []*containers.Validator{
		{ActivationEpoch: 0, ExitEpoch: farFuture},
		{ActivationEpoch: 3, ExitEpoch: farFuture},
		{ActivationEpoch: 0, ExitEpoch: 2},
		{ActivationEpoch: 1, ExitEpoch: 4},
	})

	indices, err := ActiveValidatorIndices(st, 2)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{0, 3}, indices)

	indices, err = ActiveValidatorIndices(st, 3)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{0, 1, 3}, indices)
}

func TestTotalBalance_OK(t *testing.T) {
	st := validatorsState(t, []*containers.Validator{
		{EffectiveBalance: 27 * 1e9}, {EffectiveBalance: 28 * 1e9},
		{EffectiveBalance: 32 * 1e9}, {EffectiveBalance: 40 * 1e9},
	})

	balance, err := TotalBalance(st, []primitives.ValidatorIndex{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(127*1e9), balance, "Incorrect TotalBalance")

	_, err = TotalBalance(st, []primitives.ValidatorIndex{4})
	assert.ErrorContains(t, "validator index 4 out of range", err)
}

func TestTotalBalance_ReturnsEffectiveBalanceIncrement(t *testing.T) {
	st := validatorsState(t, []*containers.Validator{})

	balance, err := TotalBalance(st, []primitives.ValidatorIndex{})
	require.NoError(t, err)
	assert.Equal(t, params.BeaconConfig().EffectiveBalanceIncrement, balance, "Incorrect TotalBalance")
}

func TestTotalActiveBalance_OK(t *testing.T) {
	farFuture := params.BeaconConfig().FarFutureEpoch
	st := validatorsState(t, []*containers.Validator{
		{EffectiveBalance: 32 * 1e9, ExitEpoch: farFuture},
		{EffectiveBalance: 30 * 1e9, ExitEpoch: farFuture},
		{EffectiveBalance: 30 * 1e9, ExitEpoch: 0},
		{EffectiveBalance: 32 * 1e9, ActivationEpoch: 5, ExitEpoch: farFuture},
	})

	balance, err := TotalActiveBalance(st, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(62*1e9), balance, "Incorrect TotalActiveBalance")
}
