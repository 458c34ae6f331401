package util

import (
	"encoding/binary"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	state_native "github.com/prysmaticlabs/epoch-engine/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
)

// FillRootsNaturalOpt is meant to be used as an option when calling NewBeaconState.
// It fills block roots with representations of natural numbers starting with 0.
// Example: 16 becomes 0x00...10 (big-endian in the last 8 bytes).
func FillRootsNaturalOpt(f *state_native.Fields) error {
	f.BlockRoots = prepareRoots(uint64(params.BeaconConfig().SlotsPerHistoricalRoot))
	return nil
}

// FillRandaoMixesOpt fills every randao mix with a distinct non-zero value so seeds differ per epoch.
func FillRandaoMixesOpt(f *state_native.Fields) error {
	mixes := prepareRoots(uint64(params.BeaconConfig().EpochsPerHistoricalVector))
	for i := range mixes {
		mixes[i] = hash.Hash(mixes[i][:])
	}
	f.RandaoMixes = mixes
	return nil
}

// NewBeaconState creates a phase0 beacon state with minimum marshalable fields.
func NewBeaconState(options ...func(f *state_native.Fields) error) (state.BeaconState, error) {
	f := emptyFields()
	for _, opt := range options {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return state_native.InitializeFromPhase0(f)
}

// NewBeaconStateAltair creates an altair beacon state with minimum marshalable fields.
func NewBeaconStateAltair(options ...func(f *state_native.Fields) error) (state.BeaconState, error) {
	f := emptyFields()
	for _, opt := range options {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return state_native.InitializeFromAltair(f)
}

func emptyFields() *state_native.Fields {
	cfg := params.BeaconConfig()
	return &state_native.Fields{
		Fork: &containers.Fork{
			PreviousVersion: bytesutil.ToBytes4(cfg.GenesisForkVersion),
			CurrentVersion:  bytesutil.ToBytes4(cfg.GenesisForkVersion),
		},
		BlockRoots:                make([][32]byte, cfg.SlotsPerHistoricalRoot),
		RandaoMixes:               make([][32]byte, cfg.EpochsPerHistoricalVector),
		FinalizedCheckpoint:       &containers.Checkpoint{},
		Validators:                make([]*containers.Validator, 0),
		Balances:                  make([]uint64, 0),
		PreviousEpochAttestations: make([]*containers.PendingAttestation, 0),
		CurrentEpochAttestations:  make([]*containers.PendingAttestation, 0),
	}
}

func prepareRoots(n uint64) [][32]byte {
	roots := make([][32]byte, n)
	for i := uint64(0); i < n; i++ {
		binary.BigEndian.PutUint64(roots[i][24:], i)
	}
	return roots
}
