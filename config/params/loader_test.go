package params_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

const minimalOverride = `# Minimal preset
PRESET_BASE: 'minimal'
CONFIG_NAME: 'testnet'
SLOTS_PER_EPOCH: 16
ALTAIR_FORK_VERSION: 0x01000002
ALTAIR_FORK_EPOCH: 10
DOMAIN_BEACON_PROPOSER: 0x00000000
`

func TestUnmarshalConfig_MinimalPreset(t *testing.T) {
	conf, err := params.UnmarshalConfig([]byte(minimalOverride), nil)
	require.NoError(t, err)
	assert.Equal(t, "testnet", conf.ConfigName)
	assert.Equal(t, "minimal", conf.PresetBase)
	assert.Equal(t, primitives.Slot(16), conf.SlotsPerEpoch)
	assert.Equal(t, uint64(10), conf.ShuffleRoundCount)
	assert.Equal(t, primitives.Epoch(10), conf.AltairForkEpoch)
	assert.DeepEqual(t, []byte{1, 0, 0, 2}, conf.AltairForkVersion)
}

func TestUnmarshalConfig_DefaultsToMainnetAndDevnet(t *testing.T) {
	conf, err := params.UnmarshalConfig([]byte("SHUFFLE_ROUND_COUNT: 20\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "devnet", conf.ConfigName)
	assert.Equal(t, uint64(20), conf.ShuffleRoundCount)
	assert.Equal(t, primitives.Slot(32), conf.SlotsPerEpoch)
	// Mainnet preset stays untouched.
	assert.Equal(t, uint64(90), params.MainnetConfig().ShuffleRoundCount)
}

func TestLoadChainConfigFile(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(minimalOverride), 0600))
	require.NoError(t, params.LoadChainConfigFile(file, nil))
	assert.Equal(t, primitives.Slot(16), params.BeaconConfig().SlotsPerEpoch)
}

func TestLoadChainConfigFile_Missing(t *testing.T) {
	err := params.LoadChainConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.ErrorContains(t, "Failed to read chain config file", err)
}

func TestReplaceHexStringWithYAMLFormat(t *testing.T) {
	parts, err := params.ReplaceHexStringWithYAMLFormat("DOMAIN_BEACON_ATTESTER: 0x01000000")
	require.NoError(t, err)
	require.Equal(t, 2, len(parts))
	assert.Equal(t, "DOMAIN_BEACON_ATTESTER: ", parts[0])
	_, err = params.ReplaceHexStringWithYAMLFormat("BAD: 0xzz")
	require.NotNil(t, err)
}

func TestConfigCopy_IsDeep(t *testing.T) {
	orig := params.MainnetConfig()
	cp := orig.Copy()
	cp.GenesisForkVersion[0] = 9
	cp.SlotsPerEpoch = 1
	assert.Equal(t, byte(0), orig.GenesisForkVersion[0])
	assert.Equal(t, primitives.Slot(32), orig.SlotsPerEpoch)
}

func TestByName(t *testing.T) {
	c, err := params.ByName("minimal")
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(8), c.SlotsPerEpoch)
	_, err = params.ByName("holesky")
	require.ErrorContains(t, "unknown config name", err)
}
