package helpers

import (
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
)

// CurrentEpoch returns the current epoch number calculated from
// the slot number stored in beacon state.
func CurrentEpoch(st state.ReadOnlyBeaconState) primitives.Epoch {
	return slots.ToEpoch(st.Slot())
}

// PrevEpoch returns the previous epoch number calculated from
// the slot number stored in beacon state. It saturates at genesis.
func PrevEpoch(st state.ReadOnlyBeaconState) primitives.Epoch {
	return slots.PrevEpoch(st.Slot())
}

// NextEpoch returns the next epoch number calculated from
// the slot number stored in beacon state.
func NextEpoch(st state.ReadOnlyBeaconState) primitives.Epoch {
	return slots.NextEpoch(st.Slot())
}
