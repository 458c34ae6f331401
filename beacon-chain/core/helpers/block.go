package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
)

// BlockRootAtSlot returns the block root stored in the BeaconState for a recent slot.
// It returns an error if the requested block root is not within the slot range.
//
//	def get_block_root_at_slot(state: BeaconState, slot: Slot) -> Root:
//	  assert slot < state.slot <= slot + SLOTS_PER_HISTORICAL_ROOT
//	  return state.block_roots[slot % SLOTS_PER_HISTORICAL_ROOT]
func BlockRootAtSlot(st state.ReadOnlyBeaconState, slot primitives.Slot) ([32]byte, error) {
	sphr := params.BeaconConfig().SlotsPerHistoricalRoot
	stateSlot := st.Slot()
	if slot >= stateSlot || stateSlot > slot+sphr {
		earliest := primitives.Slot(0)
		if stateSlot > sphr {
			earliest = stateSlot - sphr
		}
		return [32]byte{}, errors.Errorf("slot %d out of bounds, expected in range [%d, %d)", slot, earliest, stateSlot)
	}
	return st.BlockRootAtIndex(uint64(slot % sphr))
}

// BlockRoot returns the block root stored in the BeaconState for the start slot of the epoch.
//
//	def get_block_root(state: BeaconState, epoch: Epoch) -> Root:
//	  return get_block_root_at_slot(state, compute_start_slot_at_epoch(epoch))
func BlockRoot(st state.ReadOnlyBeaconState, epoch primitives.Epoch) ([32]byte, error) {
	s, err := slots.EpochStart(epoch)
	if err != nil {
		return [32]byte{}, err
	}
	return BlockRootAtSlot(st, s)
}
