package state_native

import (
	"fmt"
)

// RandaoMixes of block proposers on the beacon chain.
func (b *BeaconState) RandaoMixes() [][32]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyRoots(b.randaoMixes)
}

// RandaoMixAtIndex retrieves a specific randao mix based on an
// input index value.
func (b *BeaconState) RandaoMixAtIndex(idx uint64) ([32]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if idx >= uint64(len(b.randaoMixes)) {
		return [32]byte{}, fmt.Errorf("index %d out of range of randao mixes", idx)
	}
	return b.randaoMixes[idx], nil
}

// RandaoMixesLength returns the length of the randao mixes slice.
func (b *BeaconState) RandaoMixesLength() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.randaoMixes)
}
