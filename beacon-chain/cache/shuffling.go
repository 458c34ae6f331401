package cache

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// Shuffling is the committee assignment of one epoch. It is immutable once built and is shared
// between epoch contexts and the shuffling cache.
type Shuffling struct {
	Epoch             primitives.Epoch
	Seed              [32]byte
	ActiveIndices     []primitives.ValidatorIndex
	Shuffled          []primitives.ValidatorIndex
	CommitteesPerSlot uint64
	SlotsPerEpoch     uint64
	// Committees holds contiguous slices of Shuffled, ordered by slot then committee index.
	Committees [][]primitives.ValidatorIndex
}

// Matches reports whether the shuffling was built for the epoch and seed from exactly the given
// active indices.
func (s *Shuffling) Matches(epoch primitives.Epoch, seed [32]byte, activeIndices []primitives.ValidatorIndex) bool {
	if s.Epoch != epoch || s.Seed != seed || len(s.ActiveIndices) != len(activeIndices) {
		return false
	}
	for i := range activeIndices {
		if s.ActiveIndices[i] != activeIndices[i] {
			return false
		}
	}
	return true
}

// CommitteeCount is the number of committees in the epoch.
func (s *Shuffling) CommitteeCount() uint64 {
	return s.CommitteesPerSlot * s.SlotsPerEpoch
}

// Committee returns the members of the committee at the given slot and index. The returned
// slice is shared and must not be modified.
func (s *Shuffling) Committee(slot primitives.Slot, committeeIndex primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error) {
	if s.SlotsPerEpoch == 0 {
		return nil, ErrEmptyCommittee
	}
	if primitives.Epoch(uint64(slot)/s.SlotsPerEpoch) != s.Epoch {
		return nil, errors.Wrapf(ErrEmptyCommittee, "slot %d is not in epoch %d", slot, s.Epoch)
	}
	if uint64(committeeIndex) >= s.CommitteesPerSlot {
		return nil, errors.Wrapf(ErrEmptyCommittee, "committee index %d with %d committees per slot", committeeIndex, s.CommitteesPerSlot)
	}
	i := (uint64(slot)%s.SlotsPerEpoch)*s.CommitteesPerSlot + uint64(committeeIndex)
	if i >= uint64(len(s.Committees)) {
		return nil, ErrEmptyCommittee
	}
	return s.Committees[i], nil
}
