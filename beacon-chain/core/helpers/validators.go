package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
)

// IsActiveValidator returns the boolean value on whether the validator
// is active or not.
//
//	def is_active_validator(validator: Validator, epoch: Epoch) -> bool:
//	  return validator.activation_epoch <= epoch < validator.exit_epoch
func IsActiveValidator(validator state.ReadOnlyValidator, epoch primitives.Epoch) bool {
	return checkValidatorActiveStatus(validator.ActivationEpoch(), validator.ExitEpoch(), epoch)
}

func checkValidatorActiveStatus(activationEpoch, exitEpoch, epoch primitives.Epoch) bool {
	return activationEpoch <= epoch && epoch < exitEpoch
}

// IsEligibleForRewards reports whether a validator takes part in the reward and penalty pass of
// the epoch following prevEpoch: it was active in prevEpoch and is not slashed.
func IsEligibleForRewards(validator state.ReadOnlyValidator, prevEpoch primitives.Epoch) bool {
	return IsActiveValidator(validator, prevEpoch) && !validator.Slashed()
}

// ActiveValidatorIndices filters out active validators based on validator status
// and returns their indices in a list.
//
// WARNING: This method allocates a new copy of the validator index set and is
// considered to be very memory expensive. Avoid using this unless you really
// need the active validator indices for some specific reason.
func ActiveValidatorIndices(st state.ReadOnlyValidators, epoch primitives.Epoch) ([]primitives.ValidatorIndex, error) {
	var indices []primitives.ValidatorIndex
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if IsActiveValidator(val, epoch) {
			indices = append(indices, primitives.ValidatorIndex(idx))
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "could not read validators")
	}
	return indices, nil
}

// TotalBalance returns the combined effective balance of the given validators, floored at one
// effective balance increment.
//
//	def get_total_balance(state: BeaconState, indices: Set[ValidatorIndex]) -> Gwei:
//	  return Gwei(max(EFFECTIVE_BALANCE_INCREMENT, sum([state.validators[index].effective_balance for index in indices])))
func TotalBalance(st state.ReadOnlyValidators, indices []primitives.ValidatorIndex) (uint64, error) {
	total := uint64(0)
	for _, idx := range indices {
		if int(idx) >= st.NumValidators() {
			return 0, errors.Errorf("validator index %d out of range", idx)
		}
		val, err := st.ValidatorAtIndexReadOnly(idx)
		if err != nil {
			return 0, err
		}
		total += val.EffectiveBalance()
	}
	if total < params.BeaconConfig().EffectiveBalanceIncrement {
		return params.BeaconConfig().EffectiveBalanceIncrement, nil
	}
	return total, nil
}

// TotalActiveBalance returns the total amount at stake in Gwei of validators active at the
// given epoch, floored at one effective balance increment.
func TotalActiveBalance(st state.ReadOnlyValidators, epoch primitives.Epoch) (uint64, error) {
	total := uint64(0)
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if IsActiveValidator(val, epoch) {
			total += val.EffectiveBalance()
		}
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "could not read validators")
	}
	if total < params.BeaconConfig().EffectiveBalanceIncrement {
		return params.BeaconConfig().EffectiveBalanceIncrement, nil
	}
	return total, nil
}

// RegistryDigest hashes the activation epoch, exit epoch and effective balance of every validator.
// Two states with equal digests agree on every active set and on every balance weighted lookup.
func RegistryDigest(st state.ReadOnlyValidators) ([32]byte, error) {
	buf := make([]byte, 0, 24*st.NumValidators())
	if err := st.ReadFromEveryValidator(func(_ int, val state.ReadOnlyValidator) error {
		buf = append(buf, bytesutil.Bytes8(uint64(val.ActivationEpoch()))...)
		buf = append(buf, bytesutil.Bytes8(uint64(val.ExitEpoch()))...)
		buf = append(buf, bytesutil.Bytes8(val.EffectiveBalance())...)
		return nil
	}); err != nil {
		return [32]byte{}, err
	}
	return hash.Hash(buf), nil
}
