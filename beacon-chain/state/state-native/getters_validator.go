package state_native

import (
	"fmt"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/epoch-engine/config/fieldparams"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// ValidatorIndexOutOfRangeError represents an error scenario where a validator does not exist
// at a given index in the validator's array.
type ValidatorIndexOutOfRangeError struct {
	message string
}

// NewValidatorIndexOutOfRangeError creates a new error instance.
func NewValidatorIndexOutOfRangeError(index primitives.ValidatorIndex) ValidatorIndexOutOfRangeError {
	return ValidatorIndexOutOfRangeError{
		message: fmt.Sprintf("index %d out of range", index),
	}
}

// Error returns the underlying error message.
func (e *ValidatorIndexOutOfRangeError) Error() string {
	return e.message
}

// Validators participating in consensus on the beacon chain.
func (b *BeaconState) Validators() []*containers.Validator {
	if b.validators == nil {
		return nil
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyValidators(b.validators)
}

// ValidatorAtIndex is the validator at the provided index.
func (b *BeaconState) ValidatorAtIndex(idx primitives.ValidatorIndex) (*containers.Validator, error) {
	if b.validators == nil {
		return nil, state.ErrNilValidatorsInState
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	if uint64(idx) >= uint64(len(b.validators)) {
		e := NewValidatorIndexOutOfRangeError(idx)
		return nil, &e
	}
	return b.validators[idx].Copy(), nil
}

// ValidatorAtIndexReadOnly is the validator at the provided index. This method
// doesn't clone the validator.
func (b *BeaconState) ValidatorAtIndexReadOnly(idx primitives.ValidatorIndex) (state.ReadOnlyValidator, error) {
	if b.validators == nil {
		return nil, state.ErrNilValidatorsInState
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	if uint64(idx) >= uint64(len(b.validators)) {
		e := NewValidatorIndexOutOfRangeError(idx)
		return nil, &e
	}
	return NewValidator(b.validators[idx])
}

// PubkeyAtIndex returns the pubkey at the given
// validator index.
func (b *BeaconState) PubkeyAtIndex(idx primitives.ValidatorIndex) [fieldparams.BLSPubkeyLength]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if uint64(idx) >= uint64(len(b.validators)) || b.validators[idx] == nil {
		return [fieldparams.BLSPubkeyLength]byte{}
	}
	return b.validators[idx].PublicKey
}

// PubkeysForIndices returns the public keys of the given validator indices, in the same order.
func (b *BeaconState) PubkeysForIndices(indices []primitives.ValidatorIndex) ([][fieldparams.BLSPubkeyLength]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	keys := make([][fieldparams.BLSPubkeyLength]byte, len(indices))
	for i, idx := range indices {
		if uint64(idx) >= uint64(len(b.validators)) {
			e := NewValidatorIndexOutOfRangeError(idx)
			return nil, &e
		}
		keys[i] = b.validators[idx].PublicKey
	}
	return keys, nil
}

// NumValidators returns the size of the validator registry.
func (b *BeaconState) NumValidators() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.validators)
}

// ReadFromEveryValidator reads values from every validator and applies it to the provided function.
//
// WARNING: This method is potentially unsafe, as it exposes the actual validator registry.
func (b *BeaconState) ReadFromEveryValidator(f func(idx int, val state.ReadOnlyValidator) error) error {
	if b.validators == nil {
		return state.ErrNilValidatorsInState
	}

	b.lock.RLock()
	validators := b.validators
	b.lock.RUnlock()

	for i, v := range validators {
		rov, err := NewValidator(v)
		if err != nil {
			return err
		}
		if err = f(i, rov); err != nil {
			return err
		}
	}
	return nil
}

// Balances of validators participating in consensus on the beacon chain.
func (b *BeaconState) Balances() []uint64 {
	if b.balances == nil {
		return nil
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyUint64s(b.balances)
}

// BalanceAtIndex of validator with the provided index.
func (b *BeaconState) BalanceAtIndex(idx primitives.ValidatorIndex) (uint64, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if uint64(idx) >= uint64(len(b.balances)) {
		return 0, fmt.Errorf("index of %d does not exist", idx)
	}
	return b.balances[idx], nil
}

// BalancesLength returns the length of the balances slice.
func (b *BeaconState) BalancesLength() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.balances)
}
