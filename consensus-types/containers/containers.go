// Package containers defines the consensus objects the epoch engine reads and persists, together
// with their SSZ encoding.
package containers

import (
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// Fork tracks the fork versions active around a fork epoch.
type Fork struct {
	PreviousVersion [4]byte
	CurrentVersion  [4]byte
	Epoch           primitives.Epoch
}

// Checkpoint is an (epoch, block root) pair.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// Copy --
func (c *Checkpoint) Copy() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// AttestationData is the vote cast by a committee.
type AttestationData struct {
	Slot            primitives.Slot
	CommitteeIndex  primitives.CommitteeIndex
	BeaconBlockRoot [32]byte
	Source          *Checkpoint
	Target          *Checkpoint
}

// Copy --
func (a *AttestationData) Copy() *AttestationData {
	if a == nil {
		return nil
	}
	return &AttestationData{
		Slot:            a.Slot,
		CommitteeIndex:  a.CommitteeIndex,
		BeaconBlockRoot: a.BeaconBlockRoot,
		Source:          a.Source.Copy(),
		Target:          a.Target.Copy(),
	}
}

// PendingAttestation is an attestation recorded in phase0 state, waiting for epoch processing.
type PendingAttestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	InclusionDelay  primitives.Slot
	ProposerIndex   primitives.ValidatorIndex
}

// Copy --
func (a *PendingAttestation) Copy() *PendingAttestation {
	if a == nil {
		return nil
	}
	var bits bitfield.Bitlist
	if a.AggregationBits != nil {
		bits = make(bitfield.Bitlist, len(a.AggregationBits))
		copy(bits, a.AggregationBits)
	}
	return &PendingAttestation{
		AggregationBits: bits,
		Data:            a.Data.Copy(),
		InclusionDelay:  a.InclusionDelay,
		ProposerIndex:   a.ProposerIndex,
	}
}

// Validator is a registry entry.
type Validator struct {
	PublicKey                  [48]byte
	WithdrawalCredentials      [32]byte
	EffectiveBalance           uint64
	Slashed                    bool
	ActivationEligibilityEpoch primitives.Epoch
	ActivationEpoch            primitives.Epoch
	ExitEpoch                  primitives.Epoch
	WithdrawableEpoch          primitives.Epoch
}

// Copy --
func (v *Validator) Copy() *Validator {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
