package params

import (
	"math"

	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig
}

var mainnetBeaconConfig = &BeaconChainConfig{
	// Constants (Non-configurable)
	FarFutureEpoch: math.MaxUint64,
	FarFutureSlot:  math.MaxUint64,
	ZeroHash:       [32]byte{},

	// Misc constant.
	PresetBase:                   "mainnet",
	ConfigName:                   "mainnet",
	TargetCommitteeSize:          128,
	MaxValidatorsPerCommittee:    2048,
	MaxCommitteesPerSlot:         64,
	ShuffleRoundCount:            90,
	HysteresisQuotient:           4,
	HysteresisDownwardMultiplier: 1,
	HysteresisUpwardMultiplier:   5,
	ValidatorRegistryLimit:       1099511627776,
	MaxAttestations:              128,

	// Gwei value constants.
	MaxEffectiveBalance:       32 * 1e9,
	EjectionBalance:           16 * 1e9,
	EffectiveBalanceIncrement: 1 * 1e9,

	// Initial value constants.
	GenesisForkVersion: []byte{0, 0, 0, 0},

	// Time parameter constants.
	GenesisEpoch:                 0,
	GenesisSlot:                  0,
	SecondsPerSlot:               12,
	SlotsPerEpoch:                32,
	MinSeedLookahead:             1,
	MaxSeedLookahead:             4,
	MinAttestationInclusionDelay: 1,
	SlotsPerHistoricalRoot:       8192,

	// State list length constants.
	EpochsPerHistoricalVector: 65536,

	// Reward and penalty quotients constants.
	BaseRewardFactor:       64,
	BaseRewardsPerEpoch:    4,
	ProposerRewardQuotient: 8,

	// Participation flag weights.
	TimelySourceWeight: 14,
	TimelyTargetWeight: 26,
	TimelyHeadWeight:   14,
	WeightDenominator:  64,

	// Participation flag indices.
	TimelySourceFlagIndex: 0,
	TimelyTargetFlagIndex: 1,
	TimelyHeadFlagIndex:   2,

	// Signature domains.
	DomainBeaconProposer: bytes4(0x00000000),
	DomainBeaconAttester: bytes4(0x01000000),

	// Fork related values.
	AltairForkVersion: []byte{1, 0, 0, 0},
	AltairForkEpoch:   74240,
}

// bytes4 renders the 0xAABBCCDD notation used by the published configs as the
// corresponding big-endian 4 byte array.
func bytes4(v uint32) [4]byte {
	return [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// FarFutureAltair disables the altair fork so state stays on phase0.
func FarFutureAltair(c *BeaconChainConfig) *BeaconChainConfig {
	c.AltairForkEpoch = primitives.Epoch(math.MaxUint64)
	return c
}
