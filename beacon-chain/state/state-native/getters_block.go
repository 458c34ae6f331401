package state_native

import (
	"fmt"
)

// BlockRoots kept track of in the beacon state.
func (b *BeaconState) BlockRoots() [][32]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyRoots(b.blockRoots)
}

// BlockRootAtIndex retrieves a specific block root based on an
// input index value.
func (b *BeaconState) BlockRootAtIndex(idx uint64) ([32]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if idx >= uint64(len(b.blockRoots)) {
		return [32]byte{}, fmt.Errorf("index %d out of range of block roots", idx)
	}
	return b.blockRoots[idx], nil
}
