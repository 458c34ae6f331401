package util

import (
	"encoding/binary"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	state_native "github.com/prysmaticlabs/epoch-engine/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

// DeterministicValidators returns n active validators at max effective balance, with public keys
// derived from their index, and their matching balances.
func DeterministicValidators(n uint64) ([]*containers.Validator, []uint64) {
	cfg := params.BeaconConfig()
	vals := make([]*containers.Validator, n)
	bals := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		var pubkey [48]byte
		binary.LittleEndian.PutUint64(pubkey[:8], i)
		h := hash.Hash(pubkey[:8])
		copy(pubkey[8:], h[:])
		vals[i] = &containers.Validator{
			PublicKey:                  pubkey,
			WithdrawalCredentials:      hash.Hash(pubkey[:]),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: 0,
			ActivationEpoch:            0,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		}
		bals[i] = cfg.MaxEffectiveBalance
	}
	return vals, bals
}

// WithValidatorsOpt sets the registry and balances of the state being built.
func WithValidatorsOpt(vals []*containers.Validator, bals []uint64) func(f *state_native.Fields) error {
	return func(f *state_native.Fields) error {
		f.Validators = vals
		f.Balances = bals
		return nil
	}
}

// DeterministicGenesisState returns a phase0 genesis state with n deterministic validators.
func DeterministicGenesisState(t testing.TB, n uint64) state.BeaconState {
	vals, bals := DeterministicValidators(n)
	st, err := NewBeaconState(WithValidatorsOpt(vals, bals), FillRootsNaturalOpt, FillRandaoMixesOpt)
	require.NoError(t, err)
	return st
}

// DeterministicGenesisStateAltair returns an altair genesis state with n deterministic validators.
func DeterministicGenesisStateAltair(t testing.TB, n uint64) state.BeaconState {
	vals, bals := DeterministicValidators(n)
	st, err := NewBeaconStateAltair(WithValidatorsOpt(vals, bals), FillRootsNaturalOpt, FillRandaoMixesOpt)
	require.NoError(t, err)
	return st
}
