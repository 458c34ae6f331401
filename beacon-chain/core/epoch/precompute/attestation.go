package precompute

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// SameTarget returns true if attestation `a` attested to the same target block in state.
func SameTarget(st state.ReadOnlyBeaconState, a *containers.PendingAttestation) (bool, error) {
	r, err := helpers.BlockRoot(st, a.Data.Target.Epoch)
	if err != nil {
		return false, err
	}
	return a.Data.Target.Root == r, nil
}

// SameHead returns true if attestation `a` attested to the same block by attestation slot in state.
// An attestation made at or after the state slot never matches.
func SameHead(st state.ReadOnlyBeaconState, a *containers.PendingAttestation) (bool, error) {
	if a.Data.Slot >= st.Slot() {
		return false, nil
	}
	r, err := helpers.BlockRootAtSlot(st, a.Data.Slot)
	if err != nil {
		return false, err
	}
	return a.Data.BeaconBlockRoot == r, nil
}

// AttestingIndices returns the committee members whose aggregation bit is set, in committee order.
func AttestingIndices(bf bitfield.Bitfield, committee []primitives.ValidatorIndex) ([]primitives.ValidatorIndex, error) {
	if bf.Len() != uint64(len(committee)) {
		return nil, errors.Wrapf(helpers.ErrMalformedInput, "bitfield length %d is not equal to committee length %d", bf.Len(), len(committee))
	}
	indices := make([]primitives.ValidatorIndex, 0, bf.Count())
	for _, idx := range bf.BitIndices() {
		if idx < len(committee) {
			indices = append(indices, committee[idx])
		}
	}
	return indices, nil
}

// validateRecord rejects records missing their data. A record without seats is skipped before
// its inclusion delay is looked at.
func validateRecord(a *containers.PendingAttestation) (skip bool, err error) {
	if a == nil || a.Data == nil || a.Data.Target == nil {
		return false, errors.Wrap(helpers.ErrMalformedInput, "nil attestation data")
	}
	if a.AggregationBits.Len() == 0 {
		return true, nil
	}
	if a.InclusionDelay == 0 {
		return false, errors.Wrap(helpers.ErrMalformedInput, "attestation with inclusion delay of 0")
	}
	return false, nil
}

// updateInclusion records the inclusion of a previous epoch attestation for each participant,
// keeping the smallest delay seen. A later record with an equal delay does not replace the
// proposer of an earlier one.
func updateInclusion(inclusions []Inclusion, indices []primitives.ValidatorIndex, a *containers.PendingAttestation) {
	for _, i := range indices {
		if !inclusions[i].Recorded || a.InclusionDelay < inclusions[i].Delay {
			inclusions[i] = Inclusion{
				Delay:         a.InclusionDelay,
				ProposerIndex: a.ProposerIndex,
				Recorded:      true,
			}
		}
	}
}
