package signing_test

import (
	"bytes"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/signing"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/epoch-engine/testing/util"
)

func TestSigningRoot_ComputeDomain(t *testing.T) {
	tests := []struct {
		epoch      uint64
		domainType [4]byte
		domain     []byte
	}{
		{epoch: 1, domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{epoch: 2, domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{epoch: 2, domainType: [4]byte{5, 0, 0, 0}, domain: []byte{5, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{epoch: 3, domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{epoch: 3, domainType: [4]byte{5, 0, 0, 0}, domain: []byte{5, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
	}
	for _, tt := range tests {
		if got, err := signing.ComputeDomain(tt.domainType, nil, nil); !bytes.Equal(got, tt.domain) {
			t.Errorf("wanted domain version: %d, got: %d", tt.domain, got)
		} else {
			require.NoError(t, err)
		}
	}
}

func TestSigningRoot_Domain(t *testing.T) {
	fork := &containers.Fork{
		PreviousVersion: [4]byte{0, 0, 0, 0},
		CurrentVersion:  [4]byte{1, 0, 0, 0},
		Epoch:           10,
	}
	domainType := params.BeaconConfig().DomainBeaconAttester

	before, err := signing.Domain(fork, 9, domainType, nil)
	require.NoError(t, err)
	want, err := signing.ComputeDomain(domainType, fork.PreviousVersion[:], nil)
	require.NoError(t, err)
	assert.DeepEqual(t, want, before)

	after, err := signing.Domain(fork, 10, domainType, nil)
	require.NoError(t, err)
	want, err = signing.ComputeDomain(domainType, fork.CurrentVersion[:], nil)
	require.NoError(t, err)
	assert.DeepEqual(t, want, after)
	assert.DeepNotEqual(t, before, after)

	_, err = signing.Domain(nil, 0, domainType, nil)
	require.ErrorIs(t, err, signing.ErrNilFork)
}

func TestSigningRoot_ComputeForkDigest(t *testing.T) {
	tests := []struct {
		version []byte
		root    [32]byte
		result  [4]byte
	}{
		{version: []byte{'A', 'B', 'C', 'D'}, root: [32]byte{'i', 'o', 'p'}, result: [4]byte{0x69, 0x5c, 0x26, 0x47}},
		{version: []byte{'i', 'm', 'n', 'a'}, root: [32]byte{'z', 'a', 'b'}, result: [4]byte{0x1c, 0x38, 0x84, 0x58}},
		{version: []byte{'b', 'w', 'r', 't'}, root: [32]byte{'r', 'd', 'c'}, result: [4]byte{0x83, 0x34, 0x38, 0x88}},
	}
	for _, tt := range tests {
		digest, err := signing.ComputeForkDigest(tt.version, tt.root[:])
		require.NoError(t, err)
		assert.Equal(t, tt.result, digest, "Wanted domain version: %#x, got: %#x", digest, tt.result)
	}
}

func TestForkDigestForState(t *testing.T) {
	st := util.DeterministicGenesisState(t, 16)
	root := [32]byte{'a'}
	require.NoError(t, st.SetGenesisValidatorsRoot(root))

	got, err := signing.ForkDigestForState(st)
	require.NoError(t, err)
	want, err := signing.ComputeForkDigest(params.BeaconConfig().GenesisForkVersion, root[:])
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = signing.ForkDigestForState(nil)
	require.ErrorContains(t, "nil state", err)
}

func TestFuzzComputeForkDigest_10000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	var version []byte
	var root []byte
	for i := 0; i < 10000; i++ {
		fuzzer.Fuzz(&version)
		fuzzer.Fuzz(&root)
		_, err := signing.ComputeForkDigest(version, root)
		require.NoError(t, err)
	}
}
