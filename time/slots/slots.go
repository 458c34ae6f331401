// Package slots contains the slot and epoch arithmetic shared by the transition packages.
package slots

import (
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// ToEpoch returns the epoch number of the input slot.
//
// Consensus pseudocode definition:
//
//	def compute_epoch_at_slot(slot: Slot) -> Epoch:
//	  """
//	  Return the epoch number at ``slot``.
//	  """
//	  return Epoch(slot // SLOTS_PER_EPOCH)
func ToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(slot / params.BeaconConfig().SlotsPerEpoch)
}

// EpochStart returns the first slot number of the
// current epoch.
//
// Consensus pseudocode definition:
//
//	def compute_start_slot_at_epoch(epoch: Epoch) -> Slot:
//	  """
//	  Return the start slot of ``epoch``.
//	  """
//	  return Slot(epoch * SLOTS_PER_EPOCH)
func EpochStart(epoch primitives.Epoch) (primitives.Slot, error) {
	slot, err := params.BeaconConfig().SlotsPerEpoch.SafeMul(uint64(epoch))
	if err != nil {
		return 0, err
	}
	return slot, nil
}

// EpochEnd returns the last slot number of the
// current epoch.
func EpochEnd(epoch primitives.Epoch) (primitives.Slot, error) {
	start, err := EpochStart(epoch)
	if err != nil {
		return 0, err
	}
	return start.SafeAdd(uint64(params.BeaconConfig().SlotsPerEpoch - 1))
}

// IsEpochEnd returns true if the given slot is the last slot of an epoch.
func IsEpochEnd(slot primitives.Slot) bool {
	return (slot+1)%params.BeaconConfig().SlotsPerEpoch == 0
}

// IsEpochStart returns true if the given slot number is an epoch starting slot
// number.
func IsEpochStart(slot primitives.Slot) bool {
	return slot%params.BeaconConfig().SlotsPerEpoch == 0
}

// PrevEpoch returns the previous epoch of the given slot, saturating at genesis.
//
// Consensus pseudocode definition:
//
//	def get_previous_epoch(state: BeaconState) -> Epoch:
//	  """`
//	  Return the previous epoch (unless the current epoch is ``GENESIS_EPOCH``).
//	  """
//	  current_epoch = get_current_epoch(state)
//	  return GENESIS_EPOCH if current_epoch == GENESIS_EPOCH else Epoch(current_epoch - 1)
func PrevEpoch(slot primitives.Slot) primitives.Epoch {
	currentEpoch := ToEpoch(slot)
	if currentEpoch == params.BeaconConfig().GenesisEpoch {
		return params.BeaconConfig().GenesisEpoch
	}
	return currentEpoch - 1
}

// NextEpoch returns the epoch following the epoch of the given slot.
func NextEpoch(slot primitives.Slot) primitives.Epoch {
	return ToEpoch(slot) + 1
}
