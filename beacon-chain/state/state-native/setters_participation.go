package state_native

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
)

// AppendCurrentEpochAttestations for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendCurrentEpochAttestations(val *containers.PendingAttestation) error {
	if b.version != version.Phase0 {
		return errNotSupported("AppendCurrentEpochAttestations", b.version)
	}
	if val == nil {
		return errors.New("nil pending attestation")
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.currentEpochAttestations)) >= params.BeaconConfig().MaxAttestationsPerEpoch() {
		return fmt.Errorf("current pending attestation exceeds max length %d", params.BeaconConfig().MaxAttestationsPerEpoch())
	}
	b.currentEpochAttestations = append(b.currentEpochAttestations, val.Copy())
	return nil
}

// SetPreviousEpochAttestations for the beacon state. Overwrites the previous epoch records.
func (b *BeaconState) SetPreviousEpochAttestations(val []*containers.PendingAttestation) error {
	if b.version != version.Phase0 {
		return errNotSupported("SetPreviousEpochAttestations", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.previousEpochAttestations = copyAttestations(val)
	return nil
}

// RotateAttestations sets the previous epoch attestations to the current epoch attestations and
// then clears the current epoch attestations.
func (b *BeaconState) RotateAttestations() error {
	if b.version != version.Phase0 {
		return errNotSupported("RotateAttestations", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.previousEpochAttestations = b.currentEpochAttestations
	b.currentEpochAttestations = []*containers.PendingAttestation{}
	return nil
}

// SetPreviousParticipationBits for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetPreviousParticipationBits(val []byte) error {
	if b.version == version.Phase0 {
		return errNotSupported("SetPreviousParticipationBits", b.version)
	}
	if val == nil {
		return state.ErrNilParticipation
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.previousEpochParticipation = copyBytes(val)
	return nil
}

// SetCurrentParticipationBits for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetCurrentParticipationBits(val []byte) error {
	if b.version == version.Phase0 {
		return errNotSupported("SetCurrentParticipationBits", b.version)
	}
	if val == nil {
		return state.ErrNilParticipation
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.currentEpochParticipation = copyBytes(val)
	return nil
}

// ModifyCurrentParticipationBits modifies the current participation bits of the beacon state
// under the state lock.
func (b *BeaconState) ModifyCurrentParticipationBits(mutator func(val []byte) ([]byte, error)) error {
	if b.version == version.Phase0 {
		return errNotSupported("ModifyCurrentParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	participation, err := mutator(b.currentEpochParticipation)
	if err != nil {
		return err
	}
	b.currentEpochParticipation = participation
	return nil
}

// RotateParticipationBits moves the current participation bits into the previous epoch slot and
// resets the current bits to zero for every validator.
func (b *BeaconState) RotateParticipationBits() error {
	if b.version == version.Phase0 {
		return errNotSupported("RotateParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.previousEpochParticipation = b.currentEpochParticipation
	b.currentEpochParticipation = make([]byte, len(b.validators))
	return nil
}
