package state_native

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
)

// Ensure type BeaconState below implements BeaconState interface.
var _ state.BeaconState = (*BeaconState)(nil)

// BeaconState defines a struct containing utilities for the beacon chain state, defining
// getters and setters for its respective values and helpful functions such as HashTreeRoot().
// Every field is an owned value: Copy duplicates all of them and HashTreeRoot recomputes the
// full tree.
type BeaconState struct {
	version                    int
	genesisTime                uint64
	genesisValidatorsRoot      [32]byte
	slot                       primitives.Slot
	fork                       *containers.Fork
	blockRoots                 [][32]byte
	randaoMixes                [][32]byte
	finalizedCheckpoint        *containers.Checkpoint
	validators                 []*containers.Validator
	balances                   []uint64
	previousEpochAttestations  []*containers.PendingAttestation
	currentEpochAttestations   []*containers.PendingAttestation
	previousEpochParticipation []byte
	currentEpochParticipation  []byte

	lock sync.RWMutex
}

// Fields is the plain set of values a BeaconState is initialized from. Attestation fields are
// read for phase0 states and participation fields for altair states.
type Fields struct {
	GenesisTime                uint64
	GenesisValidatorsRoot      [32]byte
	Slot                       primitives.Slot
	Fork                       *containers.Fork
	BlockRoots                 [][32]byte
	RandaoMixes                [][32]byte
	FinalizedCheckpoint        *containers.Checkpoint
	Validators                 []*containers.Validator
	Balances                   []uint64
	PreviousEpochAttestations  []*containers.PendingAttestation
	CurrentEpochAttestations   []*containers.PendingAttestation
	PreviousEpochParticipation []byte
	CurrentEpochParticipation  []byte
}

func errNotSupported(funcName string, ver int) error {
	return fmt.Errorf("%s is not supported for %s", funcName, version.String(ver))
}

// InitializeFromPhase0 builds a phase0 beacon state that records pending attestations.
func InitializeFromPhase0(f *Fields) (state.BeaconState, error) {
	return initialize(f, version.Phase0)
}

// InitializeFromAltair builds an altair beacon state that records participation flags.
func InitializeFromAltair(f *Fields) (state.BeaconState, error) {
	return initialize(f, version.Altair)
}

func initialize(f *Fields, ver int) (*BeaconState, error) {
	if f == nil {
		return nil, errors.New("received nil state fields")
	}
	cfg := params.BeaconConfig()
	if len(f.Balances) != len(f.Validators) {
		return nil, fmt.Errorf("balances length %d does not match validator count %d", len(f.Balances), len(f.Validators))
	}
	blockRoots, err := fixedRoots(f.BlockRoots, uint64(cfg.SlotsPerHistoricalRoot), "block roots")
	if err != nil {
		return nil, err
	}
	mixes, err := fixedRoots(f.RandaoMixes, uint64(cfg.EpochsPerHistoricalVector), "randao mixes")
	if err != nil {
		return nil, err
	}

	b := &BeaconState{
		version:               ver,
		genesisTime:           f.GenesisTime,
		genesisValidatorsRoot: f.GenesisValidatorsRoot,
		slot:                  f.Slot,
		fork:                  &containers.Fork{},
		blockRoots:            blockRoots,
		randaoMixes:           mixes,
		finalizedCheckpoint:   f.FinalizedCheckpoint.Copy(),
		validators:            copyValidators(f.Validators),
		balances:              copyUint64s(f.Balances),
	}
	if f.Fork != nil {
		fk := *f.Fork
		b.fork = &fk
	}
	if b.finalizedCheckpoint == nil {
		b.finalizedCheckpoint = &containers.Checkpoint{}
	}
	if b.balances == nil {
		b.balances = []uint64{}
	}

	switch ver {
	case version.Phase0:
		b.previousEpochAttestations = copyAttestations(f.PreviousEpochAttestations)
		b.currentEpochAttestations = copyAttestations(f.CurrentEpochAttestations)
	case version.Altair:
		prev, err := participationOrZero(f.PreviousEpochParticipation, len(f.Validators))
		if err != nil {
			return nil, errors.Wrap(err, "previous epoch participation")
		}
		cur, err := participationOrZero(f.CurrentEpochParticipation, len(f.Validators))
		if err != nil {
			return nil, errors.Wrap(err, "current epoch participation")
		}
		b.previousEpochParticipation = prev
		b.currentEpochParticipation = cur
	default:
		return nil, fmt.Errorf("unknown state version %d", ver)
	}
	return b, nil
}

// Copy returns a deep copy of the beacon state.
func (b *BeaconState) Copy() state.BeaconState {
	b.lock.RLock()
	defer b.lock.RUnlock()

	dst := &BeaconState{
		version:                    b.version,
		genesisTime:                b.genesisTime,
		genesisValidatorsRoot:      b.genesisValidatorsRoot,
		slot:                       b.slot,
		fork:                       b.forkVal(),
		blockRoots:                 copyRoots(b.blockRoots),
		randaoMixes:                copyRoots(b.randaoMixes),
		finalizedCheckpoint:        b.finalizedCheckpoint.Copy(),
		validators:                 copyValidators(b.validators),
		balances:                   copyUint64s(b.balances),
		previousEpochAttestations:  copyAttestations(b.previousEpochAttestations),
		currentEpochAttestations:   copyAttestations(b.currentEpochAttestations),
		previousEpochParticipation: copyBytes(b.previousEpochParticipation),
		currentEpochParticipation:  copyBytes(b.currentEpochParticipation),
	}
	return dst
}

func fixedRoots(roots [][32]byte, length uint64, name string) ([][32]byte, error) {
	if roots == nil {
		return make([][32]byte, length), nil
	}
	if uint64(len(roots)) != length {
		return nil, fmt.Errorf("%s length %d does not match expected %d", name, len(roots), length)
	}
	return copyRoots(roots), nil
}

func participationOrZero(bits []byte, numValidators int) ([]byte, error) {
	if bits == nil {
		return make([]byte, numValidators), nil
	}
	if len(bits) != numValidators {
		return nil, fmt.Errorf("length %d does not match validator count %d", len(bits), numValidators)
	}
	return copyBytes(bits), nil
}

func copyRoots(roots [][32]byte) [][32]byte {
	if roots == nil {
		return nil
	}
	dst := make([][32]byte, len(roots))
	copy(dst, roots)
	return dst
}

func copyUint64s(vals []uint64) []uint64 {
	if vals == nil {
		return nil
	}
	dst := make([]uint64, len(vals))
	copy(dst, vals)
	return dst
}

func copyBytes(vals []byte) []byte {
	if vals == nil {
		return nil
	}
	dst := make([]byte, len(vals))
	copy(dst, vals)
	return dst
}

func copyValidators(vals []*containers.Validator) []*containers.Validator {
	if vals == nil {
		return nil
	}
	dst := make([]*containers.Validator, len(vals))
	for i, v := range vals {
		dst[i] = v.Copy()
	}
	return dst
}

func copyAttestations(atts []*containers.PendingAttestation) []*containers.PendingAttestation {
	if atts == nil {
		return nil
	}
	dst := make([]*containers.PendingAttestation, len(atts))
	for i, a := range atts {
		dst[i] = a.Copy()
	}
	return dst
}
