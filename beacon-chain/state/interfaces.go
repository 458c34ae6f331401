// Package state defines how the beacon chain state is exposed to the epoch engine,
// including read-only views used by the shuffling and participation code.
package state

import (
	"context"

	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/epoch-engine/config/fieldparams"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

var (
	// ErrNilValidatorsInState returns when accessing validators in the state while the state has a
	// nil slice for the validators field.
	ErrNilValidatorsInState = errors.New("state has nil validator slice")
	// ErrNilParticipation is returned when accessing a participation field that is nil.
	ErrNilParticipation = errors.New("nil epoch participation in state")
)

// BeaconState has read and write access to beacon state methods.
type BeaconState interface {
	ReadOnlyBeaconState
	WriteOnlyBeaconState
	Copy() BeaconState
}

// ReadOnlyBeaconState defines a struct which only has read access to beacon state methods.
type ReadOnlyBeaconState interface {
	ReadOnlyBlockRoots
	ReadOnlyRandaoMixes
	ReadOnlyValidators
	ReadOnlyBalances
	ReadOnlyAttestations
	ReadOnlyParticipation
	GenesisTime() uint64
	GenesisValidatorsRoot() [32]byte
	Slot() primitives.Slot
	Fork() *containers.Fork
	FinalizedCheckpoint() *containers.Checkpoint
	Version() int
	HashTreeRoot(ctx context.Context) ([32]byte, error)
	MarshalSSZ() ([]byte, error)
}

// WriteOnlyBeaconState defines a struct which only has write access to beacon state methods.
type WriteOnlyBeaconState interface {
	WriteOnlyBlockRoots
	WriteOnlyRandaoMixes
	WriteOnlyValidators
	WriteOnlyBalances
	WriteOnlyAttestations
	WriteOnlyParticipation
	SetGenesisTime(val uint64) error
	SetGenesisValidatorsRoot(val [32]byte) error
	SetSlot(val primitives.Slot) error
	SetFork(val *containers.Fork) error
	SetFinalizedCheckpoint(val *containers.Checkpoint) error
}

// ReadOnlyValidator defines a struct which only has read access to validator methods.
type ReadOnlyValidator interface {
	EffectiveBalance() uint64
	ActivationEligibilityEpoch() primitives.Epoch
	ActivationEpoch() primitives.Epoch
	WithdrawableEpoch() primitives.Epoch
	ExitEpoch() primitives.Epoch
	PublicKey() [fieldparams.BLSPubkeyLength]byte
	Slashed() bool
	IsNil() bool
}

// ReadOnlyValidators defines a struct which only has read access to validators methods.
type ReadOnlyValidators interface {
	Validators() []*containers.Validator
	ValidatorAtIndex(idx primitives.ValidatorIndex) (*containers.Validator, error)
	ValidatorAtIndexReadOnly(idx primitives.ValidatorIndex) (ReadOnlyValidator, error)
	PubkeyAtIndex(idx primitives.ValidatorIndex) [fieldparams.BLSPubkeyLength]byte
	PubkeysForIndices(indices []primitives.ValidatorIndex) ([][fieldparams.BLSPubkeyLength]byte, error)
	NumValidators() int
	ReadFromEveryValidator(f func(idx int, val ReadOnlyValidator) error) error
}

// ReadOnlyBalances defines a struct which only has read access to balances methods.
type ReadOnlyBalances interface {
	Balances() []uint64
	BalanceAtIndex(idx primitives.ValidatorIndex) (uint64, error)
	BalancesLength() int
}

// ReadOnlyBlockRoots defines a struct which only has read access to block roots methods.
type ReadOnlyBlockRoots interface {
	BlockRoots() [][32]byte
	BlockRootAtIndex(idx uint64) ([32]byte, error)
}

// ReadOnlyRandaoMixes defines a struct which only has read access to randao mixes methods.
type ReadOnlyRandaoMixes interface {
	RandaoMixes() [][32]byte
	RandaoMixAtIndex(idx uint64) ([32]byte, error)
	RandaoMixesLength() int
}

// ReadOnlyAttestations defines a struct which only has read access to pending attestation methods.
type ReadOnlyAttestations interface {
	PreviousEpochAttestations() ([]*containers.PendingAttestation, error)
	CurrentEpochAttestations() ([]*containers.PendingAttestation, error)
}

// ReadOnlyParticipation defines a struct which only has read access to participation flag methods.
type ReadOnlyParticipation interface {
	PreviousEpochParticipation() ([]byte, error)
	CurrentEpochParticipation() ([]byte, error)
}

// WriteOnlyValidators defines a struct which only has write access to validators methods.
type WriteOnlyValidators interface {
	SetValidators(val []*containers.Validator) error
	UpdateValidatorAtIndex(idx primitives.ValidatorIndex, val *containers.Validator) error
	AppendValidator(val *containers.Validator) error
}

// WriteOnlyBalances defines a struct which only has write access to balances methods.
type WriteOnlyBalances interface {
	SetBalances(val []uint64) error
	UpdateBalancesAtIndex(idx primitives.ValidatorIndex, val uint64) error
	AppendBalance(bal uint64) error
}

// WriteOnlyBlockRoots defines a struct which only has write access to block roots methods.
type WriteOnlyBlockRoots interface {
	SetBlockRoots(val [][32]byte) error
	UpdateBlockRootAtIndex(idx uint64, blockRoot [32]byte) error
}

// WriteOnlyRandaoMixes defines a struct which only has write access to randao mixes methods.
type WriteOnlyRandaoMixes interface {
	SetRandaoMixes(val [][32]byte) error
	UpdateRandaoMixesAtIndex(idx uint64, val [32]byte) error
}

// WriteOnlyAttestations defines a struct which only has write access to pending attestation methods.
type WriteOnlyAttestations interface {
	AppendCurrentEpochAttestations(val *containers.PendingAttestation) error
	SetPreviousEpochAttestations(val []*containers.PendingAttestation) error
	RotateAttestations() error
}

// WriteOnlyParticipation defines a struct which only has write access to participation flag methods.
type WriteOnlyParticipation interface {
	SetPreviousParticipationBits(val []byte) error
	SetCurrentParticipationBits(val []byte) error
	ModifyCurrentParticipationBits(mutator func(val []byte) ([]byte, error)) error
	RotateParticipationBits() error
}
