package params

import (
	"math"
)

// MinimalSpecConfig retrieves the minimal preset, a scaled down chain used for local testing.
func MinimalSpecConfig() *BeaconChainConfig {
	minimalConfig := mainnetBeaconConfig.Copy()
	// Misc
	minimalConfig.MaxCommitteesPerSlot = 4
	minimalConfig.TargetCommitteeSize = 4
	minimalConfig.MaxValidatorsPerCommittee = 2048
	minimalConfig.ShuffleRoundCount = 10

	// Time parameters
	minimalConfig.SecondsPerSlot = 6
	minimalConfig.SlotsPerEpoch = 8
	minimalConfig.SlotsPerHistoricalRoot = 64

	// State vector lengths
	minimalConfig.EpochsPerHistoricalVector = 64

	// Fork related values.
	minimalConfig.GenesisForkVersion = []byte{0, 0, 0, 1}
	minimalConfig.AltairForkVersion = []byte{1, 0, 0, 1}
	minimalConfig.AltairForkEpoch = math.MaxUint64

	minimalConfig.PresetBase = "minimal"
	minimalConfig.ConfigName = "minimal"
	return minimalConfig
}
