package epoch

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
)

// CommitteeAssignment describes where a validator attests within an epoch.
type CommitteeAssignment struct {
	Committee      []primitives.ValidatorIndex
	AttesterSlot   primitives.Slot
	CommitteeIndex primitives.CommitteeIndex
	// Position is the offset of the validator within Committee, which is also its bit in the
	// aggregation bitlist.
	Position uint64
}

// CommitteeAssignment finds the committee the validator belongs to in the given epoch, which must be
// one of the epochs the context holds a shuffling for.
func (c *Context) CommitteeAssignment(epoch primitives.Epoch, validatorIndex primitives.ValidatorIndex) (*CommitteeAssignment, error) {
	s, err := c.ShufflingAtEpoch(epoch)
	if err != nil {
		return nil, err
	}
	startSlot, err := slots.EpochStart(epoch)
	if err != nil {
		return nil, err
	}
	for i, committee := range s.Committees {
		for pos, idx := range committee {
			if idx != validatorIndex {
				continue
			}
			slotOffset := uint64(i) / s.CommitteesPerSlot
			return &CommitteeAssignment{
				Committee:      committee,
				AttesterSlot:   startSlot + primitives.Slot(slotOffset),
				CommitteeIndex: primitives.CommitteeIndex(uint64(i) % s.CommitteesPerSlot),
				Position:       uint64(pos),
			}, nil
		}
	}
	return nil, errors.Wrapf(ErrNotAssigned, "validator %d in epoch %d", validatorIndex, epoch)
}

// ProposerSlots returns the slots of the current epoch the validator proposes at.
func (c *Context) ProposerSlots(validatorIndex primitives.ValidatorIndex) ([]primitives.Slot, error) {
	startSlot, err := slots.EpochStart(c.epoch)
	if err != nil {
		return nil, err
	}
	var proposed []primitives.Slot
	for i, p := range c.proposers {
		if p == validatorIndex {
			proposed = append(proposed, startSlot+primitives.Slot(i))
		}
	}
	return proposed, nil
}

// AssignmentsForEpoch maps every active validator of the epoch to its committee assignment.
func (c *Context) AssignmentsForEpoch(epoch primitives.Epoch) (map[primitives.ValidatorIndex]*CommitteeAssignment, error) {
	s, err := c.ShufflingAtEpoch(epoch)
	if err != nil {
		return nil, err
	}
	startSlot, err := slots.EpochStart(epoch)
	if err != nil {
		return nil, err
	}
	assignments := make(map[primitives.ValidatorIndex]*CommitteeAssignment, len(s.ActiveIndices))
	spe := uint64(params.BeaconConfig().SlotsPerEpoch)
	for i, committee := range s.Committees {
		slotOffset := uint64(i) / s.CommitteesPerSlot
		if slotOffset >= spe {
			return nil, errors.Errorf("committee %d beyond the last slot of epoch %d", i, epoch)
		}
		for pos, idx := range committee {
			assignments[idx] = &CommitteeAssignment{
				Committee:      committee,
				AttesterSlot:   startSlot + primitives.Slot(slotOffset),
				CommitteeIndex: primitives.CommitteeIndex(uint64(i) % s.CommitteesPerSlot),
				Position:       uint64(pos),
			}
		}
	}
	return assignments, nil
}
