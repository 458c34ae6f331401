package helpers

import (
	"context"
	"sort"
	"sync"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/epoch-engine/testing/util"
)

func indexRange(n uint64) []primitives.ValidatorIndex {
	indices := make([]primitives.ValidatorIndex, n)
	for i := range indices {
		indices[i] = primitives.ValidatorIndex(i)
	}
	return indices
}

func TestSlotCommitteeCount(t *testing.T) {
	cfg := params.BeaconConfig()
	perCommittee := uint64(cfg.SlotsPerEpoch) * cfg.TargetCommitteeSize
	tests := []struct {
		active uint64
		want   uint64
	}{
		{active: 0, want: 1},
		{active: 1, want: 1},
		{active: perCommittee - 1, want: 1},
		{active: perCommittee, want: 1},
		{active: 2 * perCommittee, want: 2},
		{active: 10 * perCommittee, want: 10},
		{active: cfg.MaxCommitteesPerSlot * perCommittee, want: cfg.MaxCommitteesPerSlot},
		{active: 2 * cfg.MaxCommitteesPerSlot * perCommittee, want: cfg.MaxCommitteesPerSlot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SlotCommitteeCount(tt.active), "Unexpected count for %d active validators", tt.active)
	}
}

func TestSplitOffset_OK(t *testing.T) {
	testCases := []struct {
		listSize uint64
		chunks   uint64
		index    uint64
		offset   uint64
	}{
		{30, 3, 2, 20},
		{1000, 10, 60, 6000},
		{2482, 10, 70, 17374},
		{323, 98, 56, 184},
		{273, 8, 6, 204},
		{3274, 98, 256, 8552},
		{23, 3, 2, 15},
		{23, 9, 7, 17},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.offset, SplitOffset(tt.listSize, tt.chunks, tt.index), "SplitOffset(%d, %d, %d)", tt.listSize, tt.chunks, tt.index)
	}
}

func TestSplitOffset_NoDrift(t *testing.T) {
	for _, listSize := range []uint64{0, 1, 7, 100, 1023, 4096} {
		for _, chunks := range []uint64{1, 3, 8, 64, 2048} {
			assert.Equal(t, uint64(0), SplitOffset(listSize, chunks, 0))
			assert.Equal(t, listSize, SplitOffset(listSize, chunks, chunks))
			for i := uint64(1); i <= chunks; i++ {
				if SplitOffset(listSize, chunks, i) < SplitOffset(listSize, chunks, i-1) {
					t.Fatalf("offset %d of %d chunks over %d decreased", i, chunks, listSize)
				}
			}
		}
	}
}

func TestComputeShuffling_EmptyActiveSet(t *testing.T) {
	_, err := ComputeShuffling(3, [32]byte{1}, nil)
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestComputeShuffling_PartitionsActiveSet(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	cfg := params.BeaconConfig()

	for _, n := range []uint64{1, 5, 31, 64, 333, 1000} {
		active := indexRange(n)
		s, err := ComputeShuffling(2, [32]byte{'p'}, active)
		require.NoError(t, err)
		require.Equal(t, SlotCommitteeCount(n)*uint64(cfg.SlotsPerEpoch), uint64(len(s.Committees)))

		seen := make(map[primitives.ValidatorIndex]int, n)
		var all []primitives.ValidatorIndex
		for _, committee := range s.Committees {
			for _, idx := range committee {
				seen[idx]++
				all = append(all, idx)
			}
		}
		require.Equal(t, int(n), len(all), "Committees do not cover the active set")
		for idx, count := range seen {
			require.Equal(t, 1, count, "Validator %d appears in more than one committee", idx)
		}
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		assert.DeepEqual(t, active, all)
	}
}

func TestComputeShuffling_Deterministic(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	active := indexRange(200)
	seed := [32]byte{'d', 'e', 't'}

	a, err := ComputeShuffling(1, seed, active)
	require.NoError(t, err)
	b, err := ComputeShuffling(1, seed, active)
	require.NoError(t, err)
	assert.DeepEqual(t, a.Committees, b.Committees)

	c, err := ComputeShuffling(1, [32]byte{'o', 't', 'h'}, active)
	require.NoError(t, err)
	assert.DeepNotEqual(t, a.Shuffled, c.Shuffled)
}

func TestComputeShuffling_CommitteesMatchShuffledIndex(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	active := indexRange(100)
	for i := range active {
		active[i] = active[i] * 2
	}
	seed := [32]byte{'x'}
	s, err := ComputeShuffling(4, seed, active)
	require.NoError(t, err)

	n := uint64(len(active))
	total := s.CommitteeCount()
	for c := uint64(0); c < total; c++ {
		start := SplitOffset(n, total, c)
		for k, member := range s.Committees[c] {
			j, err := ComputeShuffledIndex(primitives.ValidatorIndex(start+uint64(k)), n, seed, true)
			require.NoError(t, err)
			require.Equal(t, active[j], member)
		}
	}
}

func TestComputeShuffling_DoesNotMutateInput(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	active := indexRange(64)
	s, err := ComputeShuffling(0, [32]byte{'m'}, active)
	require.NoError(t, err)
	assert.DeepEqual(t, indexRange(64), active)
	assert.DeepEqual(t, indexRange(64), s.ActiveIndices)

	active[0] = 1000
	assert.Equal(t, primitives.ValidatorIndex(0), s.ActiveIndices[0])
}

func TestComputeShuffling_Fuzz(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	fuzzer := fuzz.NewWithSeed(0)
	var seed [32]byte
	var n uint16
	for i := 0; i < 200; i++ {
		fuzzer.Fuzz(&seed)
		fuzzer.Fuzz(&n)
		count := uint64(n%512) + 1
		s, err := ComputeShuffling(primitives.Epoch(i), seed, indexRange(count))
		require.NoError(t, err)
		total := 0
		for _, committee := range s.Committees {
			total += len(committee)
		}
		require.Equal(t, int(count), total)
	}
}

func TestGetShuffling_NilCacheComputes(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	s, err := GetShuffling(context.Background(), nil, 5, [32]byte{'n'}, indexRange(40))
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(5), s.Epoch)
}

func TestGetShuffling_PopulatesOncePerEpoch(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	c := cache.NewShufflingCache()
	seed := [32]byte{'c'}
	active := indexRange(128)

	var wg sync.WaitGroup
	results := make([]*cache.Shuffling, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := GetShuffling(context.Background(), c, 7, seed, active)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	cached := c.Get(7, seed, active)
	require.NotNil(t, cached)
	for _, s := range results {
		require.Equal(t, cached, s, "Expected every caller to share the cached shuffling")
	}
}

func TestShufflingAtEpoch_MatchesDirectComputation(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	st := util.DeterministicGenesisState(t, 256)
	c := cache.NewShufflingCache()

	s, err := ShufflingAtEpoch(context.Background(), st, c, 0)
	require.NoError(t, err)

	seed, err := Seed(st, 0, params.BeaconConfig().DomainBeaconAttester)
	require.NoError(t, err)
	active, err := ActiveValidatorIndices(st, 0)
	require.NoError(t, err)
	want, err := ComputeShuffling(0, seed, active)
	require.NoError(t, err)
	assert.DeepEqual(t, want.Committees, s.Committees)
	assert.Equal(t, s, c.Get(0, seed, active))
}

func BenchmarkComputeShuffling(b *testing.B) {
	active := indexRange(16384)
	seed := [32]byte{'b'}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := ComputeShuffling(primitives.Epoch(i), seed, active)
		require.NoError(b, err)
	}
}
