package state_native

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// SetGenesisTime for the beacon state.
func (b *BeaconState) SetGenesisTime(val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisTime = val
	return nil
}

// SetGenesisValidatorsRoot for the beacon state.
func (b *BeaconState) SetGenesisValidatorsRoot(val [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisValidatorsRoot = val
	return nil
}

// SetSlot for the beacon state.
func (b *BeaconState) SetSlot(val primitives.Slot) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.slot = val
	return nil
}

// SetFork version for the beacon chain.
func (b *BeaconState) SetFork(val *containers.Fork) error {
	if val == nil {
		return errors.New("nil fork")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	fk := *val
	b.fork = &fk
	return nil
}

// SetFinalizedCheckpoint for the beacon state.
func (b *BeaconState) SetFinalizedCheckpoint(val *containers.Checkpoint) error {
	if val == nil {
		return errors.New("nil checkpoint")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finalizedCheckpoint = val.Copy()
	return nil
}

// SetBlockRoots for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetBlockRoots(val [][32]byte) error {
	if uint64(len(val)) != uint64(params.BeaconConfig().SlotsPerHistoricalRoot) {
		return fmt.Errorf("wrong number of block roots: %d", len(val))
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.blockRoots = copyRoots(val)
	return nil
}

// UpdateBlockRootAtIndex for the beacon state. Updates the block root
// at a specific index to a new value.
func (b *BeaconState) UpdateBlockRootAtIndex(idx uint64, blockRoot [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.blockRoots)) {
		return fmt.Errorf("invalid index provided %d", idx)
	}
	b.blockRoots[idx] = blockRoot
	return nil
}

// SetRandaoMixes for the beacon state. Updates the entire
// randao mixes to a new value by overwriting the previous one.
func (b *BeaconState) SetRandaoMixes(val [][32]byte) error {
	if uint64(len(val)) != uint64(params.BeaconConfig().EpochsPerHistoricalVector) {
		return fmt.Errorf("wrong number of randao mixes: %d", len(val))
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.randaoMixes = copyRoots(val)
	return nil
}

// UpdateRandaoMixesAtIndex for the beacon state. Updates the randao mixes
// at a specific index to a new value.
func (b *BeaconState) UpdateRandaoMixesAtIndex(idx uint64, val [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.randaoMixes)) {
		return fmt.Errorf("invalid index provided %d", idx)
	}
	b.randaoMixes[idx] = val
	return nil
}
