// Package params defines the protocol constants the epoch engine is parameterised by.
package params

import (
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// BeaconChainConfig contains constant configs for node to participate in beacon chain.
type BeaconChainConfig struct {
	// Constants (non-configurable)
	FarFutureEpoch primitives.Epoch `yaml:"FAR_FUTURE_EPOCH"` // FarFutureEpoch represents a epoch extremely far away in the future used as the default penalization epoch for validators.
	FarFutureSlot  primitives.Slot  `yaml:"FAR_FUTURE_SLOT"`  // FarFutureSlot represents a slot extremely far away in the future.
	ZeroHash       [32]byte         // ZeroHash is used to represent a zeroed out 32 byte array.

	// Misc constants.
	PresetBase                   string `yaml:"PRESET_BASE"`                    // PresetBase names the preset, mainnet or minimal, this config is based on.
	ConfigName                   string `yaml:"CONFIG_NAME"`                    // ConfigName for allowing an easy human-readable way of knowing what chain is being used.
	TargetCommitteeSize          uint64 `yaml:"TARGET_COMMITTEE_SIZE"`          // TargetCommitteeSize is the number of validators in a committee when the chain is healthy.
	MaxValidatorsPerCommittee    uint64 `yaml:"MAX_VALIDATORS_PER_COMMITTEE"`   // MaxValidatorsPerCommittee defines the upper bound of the size of a committee.
	MaxCommitteesPerSlot         uint64 `yaml:"MAX_COMMITTEES_PER_SLOT"`        // MaxCommitteesPerSlot defines the max amount of committee in a single slot.
	ShuffleRoundCount            uint64 `yaml:"SHUFFLE_ROUND_COUNT"`            // ShuffleRoundCount is used for retrieving the permuted index.
	HysteresisQuotient           uint64 `yaml:"HYSTERESIS_QUOTIENT"`            // HysteresisQuotient defines the hysteresis quotient for effective balance calculations.
	HysteresisDownwardMultiplier uint64 `yaml:"HYSTERESIS_DOWNWARD_MULTIPLIER"` // HysteresisDownwardMultiplier defines the hysteresis downward multiplier for effective balance calculations.
	HysteresisUpwardMultiplier   uint64 `yaml:"HYSTERESIS_UPWARD_MULTIPLIER"`   // HysteresisUpwardMultiplier defines the hysteresis upward multiplier for effective balance calculations.
	ValidatorRegistryLimit       uint64 `yaml:"VALIDATOR_REGISTRY_LIMIT"`       // ValidatorRegistryLimit defines the upper bound of validators can participate in eth2.
	MaxAttestations              uint64 `yaml:"MAX_ATTESTATIONS"`               // MaxAttestations defines the maximum allowed attestations in a beacon block.

	// Gwei value constants.
	MaxEffectiveBalance       uint64 `yaml:"MAX_EFFECTIVE_BALANCE"`       // MaxEffectiveBalance is the maximal amount of Gwei that is effective for staking.
	EjectionBalance           uint64 `yaml:"EJECTION_BALANCE"`            // EjectionBalance is the minimal GWei a validator needs to have before ejected.
	EffectiveBalanceIncrement uint64 `yaml:"EFFECTIVE_BALANCE_INCREMENT"` // EffectiveBalanceIncrement is used for converting the high balance into the low balance for validators.

	// Initial value constants.
	GenesisForkVersion []byte `yaml:"GENESIS_FORK_VERSION"` // GenesisForkVersion is used to track fork version between state transitions.

	// Time parameters constants.
	GenesisEpoch                 primitives.Epoch `yaml:"GENESIS_EPOCH"`                   // GenesisEpoch is the first epoch of the chain.
	GenesisSlot                  primitives.Slot  `yaml:"GENESIS_SLOT"`                    // GenesisSlot represents the first canonical slot number of the beacon chain.
	SecondsPerSlot               uint64           `yaml:"SECONDS_PER_SLOT"`                // SecondsPerSlot is how many seconds are in a single slot.
	SlotsPerEpoch                primitives.Slot  `yaml:"SLOTS_PER_EPOCH"`                 // SlotsPerEpoch is the number of slots in an epoch.
	MinSeedLookahead             primitives.Epoch `yaml:"MIN_SEED_LOOKAHEAD"`              // MinSeedLookahead is the duration of randao look ahead seed.
	MaxSeedLookahead             primitives.Epoch `yaml:"MAX_SEED_LOOKAHEAD"`              // MaxSeedLookahead is the duration a validator has to wait for entry and exit in epoch.
	MinAttestationInclusionDelay primitives.Slot  `yaml:"MIN_ATTESTATION_INCLUSION_DELAY"` // MinAttestationInclusionDelay defines how many slots validator has to wait to include attestation for beacon block.
	SlotsPerHistoricalRoot       primitives.Slot  `yaml:"SLOTS_PER_HISTORICAL_ROOT"`       // SlotsPerHistoricalRoot defines how often the historical root is saved.

	// State list lengths
	EpochsPerHistoricalVector primitives.Epoch `yaml:"EPOCHS_PER_HISTORICAL_VECTOR"` // EpochsPerHistoricalVector defines max length in epoch to store old historical stats in beacon state.

	// Reward and penalty quotients constants.
	BaseRewardFactor       uint64 `yaml:"BASE_REWARD_FACTOR"`       // BaseRewardFactor is used to calculate validator per-slot interest rate.
	BaseRewardsPerEpoch    uint64 `yaml:"BASE_REWARDS_PER_EPOCH"`   // BaseRewardsPerEpoch is used to calculate the per epoch rewards.
	ProposerRewardQuotient uint64 `yaml:"PROPOSER_REWARD_QUOTIENT"` // ProposerRewardQuotient is used to calculate the reward for proposers.

	// Participation flag weights.
	TimelySourceWeight uint64 `yaml:"TIMELY_SOURCE_WEIGHT"` // TimelySourceWeight is the factor of how much source rewards receives.
	TimelyTargetWeight uint64 `yaml:"TIMELY_TARGET_WEIGHT"` // TimelyTargetWeight is the factor of how much target rewards receives.
	TimelyHeadWeight   uint64 `yaml:"TIMELY_HEAD_WEIGHT"`   // TimelyHeadWeight is the factor of how much head rewards receives.
	WeightDenominator  uint64 `yaml:"WEIGHT_DENOMINATOR"`   // WeightDenominator accounts for total rewards denomination.

	// Participation flag indices.
	TimelySourceFlagIndex uint8 `yaml:"TIMELY_SOURCE_FLAG_INDEX"` // TimelySourceFlagIndex is the source flag position of the participation bits.
	TimelyTargetFlagIndex uint8 `yaml:"TIMELY_TARGET_FLAG_INDEX"` // TimelyTargetFlagIndex is the target flag position of the participation bits.
	TimelyHeadFlagIndex   uint8 `yaml:"TIMELY_HEAD_FLAG_INDEX"`   // TimelyHeadFlagIndex is the head flag position of the participation bits.

	// Signature domains.
	DomainBeaconProposer [4]byte `yaml:"DOMAIN_BEACON_PROPOSER"` // DomainBeaconProposer defines the BLS signature domain for beacon proposal verification.
	DomainBeaconAttester [4]byte `yaml:"DOMAIN_BEACON_ATTESTER"` // DomainBeaconAttester defines the BLS signature domain for attestation verification.

	// Fork-related values.
	AltairForkVersion []byte           `yaml:"ALTAIR_FORK_VERSION"` // AltairForkVersion is used to represent the fork version for altair.
	AltairForkEpoch   primitives.Epoch `yaml:"ALTAIR_FORK_EPOCH"`   // AltairForkEpoch is used to represent the assigned fork epoch for altair.
}

// MaxAttestationsPerEpoch is the list limit of the pending attestation lists held in state.
func (b *BeaconChainConfig) MaxAttestationsPerEpoch() uint64 {
	return b.MaxAttestations * uint64(b.SlotsPerEpoch)
}
