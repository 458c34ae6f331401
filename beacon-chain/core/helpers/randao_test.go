package helpers

import (
	"testing"

	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/epoch-engine/testing/util"
)

func TestRandaoMix_OK(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st, err := util.NewBeaconState(util.FillRandaoMixesOpt)
	require.NoError(t, err)
	ephv := uint64(params.BeaconConfig().EpochsPerHistoricalVector)

	for _, epoch := range []uint64{0, 1, ephv - 1, ephv, 3*ephv + 5} {
		mix, err := RandaoMix(st, primitives.Epoch(epoch))
		require.NoError(t, err)
		want, err := st.RandaoMixAtIndex(epoch % ephv)
		require.NoError(t, err)
		assert.Equal(t, want, mix)
	}
}

func TestSeed_OK(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	cfg := params.BeaconConfig()
	st, err := util.NewBeaconState(util.FillRandaoMixesOpt)
	require.NoError(t, err)

	epoch := uint64(10)
	mixIdx := (epoch + uint64(cfg.EpochsPerHistoricalVector) - uint64(cfg.MinSeedLookahead) - 1) % uint64(cfg.EpochsPerHistoricalVector)
	mix, err := st.RandaoMixAtIndex(mixIdx)
	require.NoError(t, err)
	domain := cfg.DomainBeaconAttester
	input := append(domain[:], bytesutil.Bytes8(epoch)...)
	input = append(input, mix[:]...)

	seed, err := Seed(st, primitives.Epoch(epoch), cfg.DomainBeaconAttester)
	require.NoError(t, err)
	assert.Equal(t, hash.Hash(input), seed)

	proposerSeed, err := Seed(st, primitives.Epoch(epoch), cfg.DomainBeaconProposer)
	require.NoError(t, err)
	assert.NotEqual(t, seed, proposerSeed, "Domains must separate seeds")
}
