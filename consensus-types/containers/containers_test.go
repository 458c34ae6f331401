package containers_test

import (
	"testing"

	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/encoding/ssz"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/go-bitfield"
)

func pendingAttestation() *containers.PendingAttestation {
	bits := bitfield.NewBitlist(10)
	bits.SetBitAt(1, true)
	bits.SetBitAt(7, true)
	return &containers.PendingAttestation{
		AggregationBits: bits,
		Data: &containers.AttestationData{
			Slot:            9,
			CommitteeIndex:  2,
			BeaconBlockRoot: [32]byte{'h'},
			Source:          &containers.Checkpoint{Epoch: 0, Root: [32]byte{'s'}},
			Target:          &containers.Checkpoint{Epoch: 1, Root: [32]byte{'t'}},
		},
		InclusionDelay: 3,
		ProposerIndex:  17,
	}
}

func TestPendingAttestation_SSZRoundTrip(t *testing.T) {
	att := pendingAttestation()
	enc, err := att.MarshalSSZ()
	require.NoError(t, err)
	assert.Equal(t, att.SizeSSZ(), len(enc))

	decoded := &containers.PendingAttestation{}
	require.NoError(t, decoded.UnmarshalSSZ(enc))
	assert.DeepEqual(t, att, decoded)

	r1, err := att.HashTreeRoot()
	require.NoError(t, err)
	r2, err := decoded.HashTreeRoot()
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestPendingAttestation_RejectsMalformedBits(t *testing.T) {
	att := pendingAttestation()
	enc, err := att.MarshalSSZ()
	require.NoError(t, err)
	// Clear the trailing length bit.
	enc[len(enc)-1] = 0
	require.NotNil(t, (&containers.PendingAttestation{}).UnmarshalSSZ(enc))
	require.NotNil(t, (&containers.PendingAttestation{}).UnmarshalSSZ(enc[:100]))
}

func TestPendingAttestation_CopyIsIndependent(t *testing.T) {
	att := pendingAttestation()
	cp := att.Copy()
	cp.AggregationBits.SetBitAt(2, true)
	cp.Data.Target.Root = [32]byte{'x'}
	assert.Equal(t, false, att.AggregationBits.BitAt(2))
	assert.Equal(t, [32]byte{'t'}, att.Data.Target.Root)
}

func TestCheckpoint_HashTreeRoot(t *testing.T) {
	cp := &containers.Checkpoint{Epoch: 5, Root: [32]byte{1, 2, 3}}
	got, err := cp.HashTreeRoot()
	require.NoError(t, err)
	epochChunk := ssz.Uint64Root(5)
	want := hash.Hash(append(epochChunk[:], cp.Root[:]...))
	assert.Equal(t, want, got)
}

func TestValidator_SSZRoundTrip(t *testing.T) {
	v := &containers.Validator{
		PublicKey:                  [48]byte{1},
		WithdrawalCredentials:      [32]byte{2},
		EffectiveBalance:           32e9,
		Slashed:                    true,
		ActivationEligibilityEpoch: 1,
		ActivationEpoch:            2,
		ExitEpoch:                  3,
		WithdrawableEpoch:          4,
	}
	enc, err := v.MarshalSSZ()
	require.NoError(t, err)
	assert.Equal(t, containers.ValidatorSize, len(enc))
	decoded := &containers.Validator{}
	require.NoError(t, decoded.UnmarshalSSZ(enc))
	assert.DeepEqual(t, v, decoded)

	enc[88] = 2
	require.NotNil(t, decoded.UnmarshalSSZ(enc))
}

func TestStatus_SSZRoundTrip(t *testing.T) {
	s := &containers.Status{
		ForkDigest:     [4]byte{1, 2, 3, 4},
		FinalizedRoot:  [32]byte{5},
		FinalizedEpoch: 6,
		HeadRoot:       [32]byte{7},
		HeadSlot:       200,
	}
	enc, err := s.MarshalSSZ()
	require.NoError(t, err)
	decoded := &containers.Status{}
	require.NoError(t, decoded.UnmarshalSSZ(enc))
	assert.DeepEqual(t, s, decoded)
}

func TestMetaData_RejectsBadAttnets(t *testing.T) {
	m := &containers.MetaData{SeqNumber: 1, Attnets: bitfield.Bitvector64{1, 2}}
	_, err := m.MarshalSSZ()
	require.NotNil(t, err)
}
