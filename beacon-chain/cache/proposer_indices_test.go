package cache

import (
	"testing"

	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

func TestProposerIndicesCache_SetAndGet(t *testing.T) {
	c, err := NewProposerIndicesCache()
	require.NoError(t, err)

	_, ok := c.ProposerIndices(1, [32]byte{'a'}, [32]byte{'r'})
	assert.Equal(t, false, ok)

	want := []primitives.ValidatorIndex{4, 2, 9}
	c.Set(1, [32]byte{'a'}, [32]byte{'r'}, want)
	got, ok := c.ProposerIndices(1, [32]byte{'a'}, [32]byte{'r'})
	require.Equal(t, true, ok)
	assert.DeepEqual(t, want, got)

	_, ok = c.ProposerIndices(1, [32]byte{'b'}, [32]byte{'r'})
	assert.Equal(t, false, ok)
	_, ok = c.ProposerIndices(1, [32]byte{'a'}, [32]byte{'x'})
	assert.Equal(t, false, ok)
}

func TestProposerIndicesCache_Evicts(t *testing.T) {
	c, err := NewProposerIndicesCache()
	require.NoError(t, err)
	for i := 0; i < maxProposerIndicesCacheSize+3; i++ {
		c.Set(primitives.Epoch(i), [32]byte{}, [32]byte{}, []primitives.ValidatorIndex{primitives.ValidatorIndex(i)})
	}
	assert.Equal(t, maxProposerIndicesCacheSize, c.Len())
	_, ok := c.ProposerIndices(0, [32]byte{}, [32]byte{})
	assert.Equal(t, false, ok)
}
