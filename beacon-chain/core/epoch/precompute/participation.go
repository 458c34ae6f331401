// Package precompute accumulates the participation of every validator over an epoch and derives
// the reward and penalty deltas applied to balances at the epoch boundary.
package precompute

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
	"go.opencensus.io/trace"
)

// ParticipationSource is the input of the participation accumulator. It is either LegacyRecords
// or PrecomputedFlags.
type ParticipationSource interface {
	participationSource()
}

// LegacyRecords are the pending attestations recorded in phase0 state for an epoch.
type LegacyRecords struct {
	Records []*containers.PendingAttestation
}

// PrecomputedFlags are the participation bytes recorded in altair state, one per validator.
type PrecomputedFlags struct {
	Flags []byte
}

func (LegacyRecords) participationSource()    {}
func (PrecomputedFlags) participationSource() {}

// Inclusion is the earliest inclusion of a validator's previous epoch attestation.
type Inclusion struct {
	Delay         primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	Recorded      bool
}

// Participation is the accumulated participation of every validator over an epoch. Inclusions is
// nil for flag input, and index aligned with Flags otherwise.
type Participation struct {
	Flags      []ParticipationFlags
	Inclusions []Inclusion
}

// SourceFromState returns the participation of the previous epoch as recorded in the state.
func SourceFromState(st state.ReadOnlyBeaconState) (ParticipationSource, error) {
	switch st.Version() {
	case version.Phase0:
		atts, err := st.PreviousEpochAttestations()
		if err != nil {
			return nil, err
		}
		return LegacyRecords{Records: atts}, nil
	case version.Altair:
		flags, err := st.PreviousEpochParticipation()
		if err != nil {
			return nil, err
		}
		return PrecomputedFlags{Flags: flags}, nil
	default:
		return nil, errors.Errorf("unsupported state version %s", version.String(st.Version()))
	}
}

// ProcessParticipation accumulates the participation source into per-validator flags. Legacy
// records are resolved against the committees of the epoch context, which must hold the
// shuffling of every record's slot.
func ProcessParticipation(
	ctx context.Context,
	st state.ReadOnlyBeaconState,
	ectx *epoch.Context,
	src ParticipationSource,
) (*Participation, error) {
	ctx, span := trace.StartSpan(ctx, "precomputeEpoch.ProcessParticipation")
	defer span.End()

	var p *Participation
	var err error
	switch s := src.(type) {
	case LegacyRecords:
		p, err = processLegacyRecords(ctx, st, ectx, s.Records)
	case PrecomputedFlags:
		p, err = processFlags(st, s.Flags)
	default:
		err = errors.Errorf("unknown participation source %T", src)
	}
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	return p, nil
}

func processLegacyRecords(
	ctx context.Context,
	st state.ReadOnlyBeaconState,
	ectx *epoch.Context,
	records []*containers.PendingAttestation,
) (*Participation, error) {
	if ectx == nil {
		return nil, errors.New("nil epoch context")
	}
	numVals := st.NumValidators()
	p := &Participation{
		Flags:      make([]ParticipationFlags, numVals),
		Inclusions: make([]Inclusion, numVals),
	}
	cfg := params.BeaconConfig()
	prevEpoch := helpers.PrevEpoch(st)

	for i, a := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		skip, err := validateRecord(a)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		if skip {
			continue
		}
		votedTarget, err := SameTarget(st, a)
		if err != nil {
			return nil, errors.Wrap(err, "could not check same target")
		}
		votedHead := false
		if votedTarget {
			votedHead, err = SameHead(st, a)
			if err != nil {
				return nil, errors.Wrap(err, "could not check same head")
			}
		}

		committee, err := ectx.BeaconCommittee(a.Data.Slot, a.Data.CommitteeIndex)
		if err != nil {
			return nil, errors.Wrapf(helpers.ErrMalformedInput, "record %d has no committee: %v", i, err)
		}
		indices, err := AttestingIndices(a.AggregationBits, committee)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		for _, idx := range indices {
			if int(idx) >= numVals {
				return nil, errors.Wrapf(helpers.ErrMalformedInput, "participant %d outside of registry", idx)
			}
		}

		if a.Data.Target.Epoch == prevEpoch {
			updateInclusion(p.Inclusions, indices, a)
		}

		flags := ParticipationFlags(0)
		flags, _ = flags.AddFlag(cfg.TimelySourceFlagIndex)
		if votedTarget {
			flags, _ = flags.AddFlag(cfg.TimelyTargetFlagIndex)
			if votedHead {
				flags, _ = flags.AddFlag(cfg.TimelyHeadFlagIndex)
			}
		}
		for _, idx := range indices {
			p.Flags[idx] |= flags
		}
	}
	return p, nil
}

func processFlags(st state.ReadOnlyValidators, flags []byte) (*Participation, error) {
	if len(flags) != st.NumValidators() {
		return nil, errors.Wrapf(helpers.ErrMalformedInput, "participation length %d is not equal to validator count %d", len(flags), st.NumValidators())
	}
	p := &Participation{Flags: make([]ParticipationFlags, len(flags))}
	for i, b := range flags {
		f := ParticipationFlags(b)
		if f.Reserved() {
			return nil, errors.Wrapf(helpers.ErrMalformedInput, "validator %d has reserved participation bits set: %#08b", i, b)
		}
		p.Flags[i] = f
	}
	return p, nil
}
