package params

import (
	"testing"
)

// SetupTestConfigCleanup preserves configurations allowing to modify them within tests without any
// restrictions, everything is restored after the test.
func SetupTestConfigCleanup(t testing.TB) {
	prevDefaultBeaconConfig := mainnetBeaconConfig.Copy()
	prevBeaconConfig := BeaconConfig().Copy()
	prevNetworkCfg := BeaconNetworkConfig().Copy()
	t.Cleanup(func() {
		mainnetBeaconConfig = prevDefaultBeaconConfig
		OverrideBeaconConfig(prevBeaconConfig)
		OverrideBeaconNetworkConfig(prevNetworkCfg)
	})
}

// SetupMinimalPhase0Config switches the active config to the minimal preset with altair
// disabled, restoring the previous config when the test finishes.
func SetupMinimalPhase0Config(t testing.TB) *BeaconChainConfig {
	SetupTestConfigCleanup(t)
	cfg := FarFutureAltair(MinimalSpecConfig())
	OverrideBeaconConfig(cfg)
	return cfg
}
