package precompute

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/config/params"
)

// ParticipationFlags is the per-validator participation byte. Bit 0 is the timely source flag,
// bit 1 the timely target flag and bit 2 the timely head flag. The remaining bits are reserved.
type ParticipationFlags uint8

// reservedFlagBits masks the bits no flag index maps to.
const reservedFlagBits = ParticipationFlags(0xf8)

// maxFlagPosition is the last bit position of a participation byte.
const maxFlagPosition = 7

// HasFlag returns true if the flag at flagPosition is set.
func (f ParticipationFlags) HasFlag(flagPosition uint8) (bool, error) {
	if flagPosition > maxFlagPosition {
		return false, errors.New("flag position exceeds length")
	}
	return (f>>flagPosition)&1 == 1, nil
}

// AddFlag returns the flags with the bit at flagPosition set.
func (f ParticipationFlags) AddFlag(flagPosition uint8) (ParticipationFlags, error) {
	if flagPosition > maxFlagPosition {
		return f, errors.New("flag position exceeds length")
	}
	return f | (1 << flagPosition), nil
}

// Reserved reports whether any reserved bit is set.
func (f ParticipationFlags) Reserved() bool {
	return f&reservedFlagBits != 0
}

// Source returns true if the timely source flag is set.
func (f ParticipationFlags) Source() bool { return f.has(params.BeaconConfig().TimelySourceFlagIndex) }

// Target returns true if the timely target flag is set.
func (f ParticipationFlags) Target() bool { return f.has(params.BeaconConfig().TimelyTargetFlagIndex) }

// Head returns true if the timely head flag is set.
func (f ParticipationFlags) Head() bool { return f.has(params.BeaconConfig().TimelyHeadFlagIndex) }

func (f ParticipationFlags) has(flagPosition uint8) bool {
	ok, err := f.HasFlag(flagPosition)
	return err == nil && ok
}

// flagWeight pairs a flag position with its share of the base reward.
type flagWeight struct {
	position uint8
	weight   uint64
}

func flagWeights() []flagWeight {
	cfg := params.BeaconConfig()
	return []flagWeight{
		{position: cfg.TimelySourceFlagIndex, weight: cfg.TimelySourceWeight},
		{position: cfg.TimelyTargetFlagIndex, weight: cfg.TimelyTargetWeight},
		{position: cfg.TimelyHeadFlagIndex, weight: cfg.TimelyHeadWeight},
	}
}
