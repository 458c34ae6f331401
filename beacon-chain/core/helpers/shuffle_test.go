package helpers

import (
	"fmt"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

func TestShuffleList_InvalidValidatorCount(t *testing.T) {
	maxShuffleListSize = 20
	list := make([]primitives.ValidatorIndex, 21)
	var seed [32]byte
	_, err := ShuffleList(list, seed)
	assert.ErrorContains(t, "list size 21 out of bounds", err)
	maxShuffleListSize = 1 << 40
}

func TestShuffleList_OK(t *testing.T) {
	var list1 []primitives.ValidatorIndex
	seed1 := [32]byte{1, 128, 12}
	seed2 := [32]byte{2, 128, 12}
	for i := 0; i < 10; i++ {
		list1 = append(list1, primitives.ValidatorIndex(i))
	}

	list2 := make([]primitives.ValidatorIndex, len(list1))
	copy(list2, list1)

	list1, err := ShuffleList(list1, seed1)
	assert.NoError(t, err, "Shuffle failed with")

	list2, err = ShuffleList(list2, seed2)
	assert.NoError(t, err, "Shuffle failed with")

	assert.DeepNotEqual(t, list1, list2, "2 shuffled lists shouldn't be equal")
}

func TestComputeShuffledIndex_OutOfBounds(t *testing.T) {
	_, err := ComputeShuffledIndex(10, 10, [32]byte{}, true)
	assert.ErrorContains(t, "input index 10 out of bounds: 10", err)
}

func TestShuffledIndex_UnShuffledIndexIsInverse(t *testing.T) {
	seed := [32]byte{'A', 'B', 'C'}
	count := uint64(1000)
	for i := primitives.ValidatorIndex(0); uint64(i) < count; i++ {
		s, err := ShuffledIndex(i, count, seed)
		require.NoError(t, err)
		u, err := UnShuffledIndex(s, count, seed)
		require.NoError(t, err)
		require.Equal(t, i, u)
	}
}

func TestShuffleList_VsShuffledIndex(t *testing.T) {
	for _, count := range []uint64{2, 3, 100, 257, 1000} {
		t.Run(fmt.Sprintf("%d", count), func(t *testing.T) {
			seed := [32]byte{123, 42}
			list := make([]primitives.ValidatorIndex, count)
			for i := range list {
				list[i] = primitives.ValidatorIndex(i)
			}
			byIndex := make([]primitives.ValidatorIndex, count)
			for i := uint64(0); i < count; i++ {
				j, err := ShuffledIndex(primitives.ValidatorIndex(i), count, seed)
				require.NoError(t, err)
				byIndex[j] = list[i]
			}
			shuffled, err := ShuffleList(list, seed)
			require.NoError(t, err)
			assert.DeepEqual(t, byIndex, shuffled)
		})
	}
}

func TestUnshuffleList_VsShuffledIndex(t *testing.T) {
	seed := [32]byte{7, 7, 7}
	count := uint64(513)
	list := make([]primitives.ValidatorIndex, count)
	for i := range list {
		list[i] = primitives.ValidatorIndex(i * 3)
	}
	byIndex := make([]primitives.ValidatorIndex, count)
	for i := uint64(0); i < count; i++ {
		j, err := ComputeShuffledIndex(primitives.ValidatorIndex(i), count, seed, true)
		require.NoError(t, err)
		byIndex[i] = list[j]
	}
	input := make([]primitives.ValidatorIndex, count)
	copy(input, list)
	unshuffled, err := UnshuffleList(input, seed)
	require.NoError(t, err)
	assert.DeepEqual(t, byIndex, unshuffled)
}

func TestShuffleList_UnshuffleRoundTrip(t *testing.T) {
	seed := [32]byte{0xff, 0x01}
	list := make([]primitives.ValidatorIndex, 300)
	for i := range list {
		list[i] = primitives.ValidatorIndex(i)
	}
	orig := make([]primitives.ValidatorIndex, len(list))
	copy(orig, list)

	shuffled, err := ShuffleList(list, seed)
	require.NoError(t, err)
	restored, err := UnshuffleList(shuffled, seed)
	require.NoError(t, err)
	assert.DeepEqual(t, orig, restored)
}

func TestShuffleList_MinimalRounds(t *testing.T) {
	params.SetupMinimalPhase0Config(t)
	seed := [32]byte{9}
	list := make([]primitives.ValidatorIndex, 64)
	for i := range list {
		list[i] = primitives.ValidatorIndex(i)
	}
	byIndex := make([]primitives.ValidatorIndex, len(list))
	for i := range list {
		j, err := ShuffledIndex(primitives.ValidatorIndex(i), uint64(len(list)), seed)
		require.NoError(t, err)
		byIndex[j] = list[i]
	}
	shuffled, err := ShuffleList(list, seed)
	require.NoError(t, err)
	assert.DeepEqual(t, byIndex, shuffled)
}

func BenchmarkShuffleList(b *testing.B) {
	listSizes := []uint64{400000, 40000, 400}
	seed := [32]byte{123, 42}
	for _, listSize := range listSizes {
		testIndices := make([]primitives.ValidatorIndex, listSize)
		for i := uint64(0); i < listSize; i++ {
			testIndices[i] = primitives.ValidatorIndex(i)
		}
		b.Run(fmt.Sprintf("ShuffleList_%d", listSize), func(ib *testing.B) {
			for i := 0; i < ib.N; i++ {
				_, err := ShuffleList(testIndices, seed)
				assert.NoError(b, err)
			}
		})
	}
}

func BenchmarkComputeShuffledIndex(b *testing.B) {
	listSizes := []uint64{400000, 40000, 400}
	seed := [32]byte{123, 42}
	for _, listSize := range listSizes {
		b.Run(fmt.Sprintf("ComputeShuffledIndex_%d", listSize), func(ib *testing.B) {
			for i := uint64(0); i < uint64(ib.N); i++ {
				_, err := ComputeShuffledIndex(primitives.ValidatorIndex(i%listSize), listSize, seed, true)
				assert.NoError(b, err)
			}
		})
	}
}
