package math_test

import (
	"testing"

	"github.com/prysmaticlabs/epoch-engine/math"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

func TestIntegerSquareRoot(t *testing.T) {
	tt := []struct {
		number uint64
		root   uint64
	}{
		{number: 20, root: 4},
		{number: 200, root: 14},
		{number: 1987, root: 44},
		{number: 34989843, root: 5915},
		{number: 97282, root: 311},
		{number: 1 << 32, root: 1 << 16},
		{number: (1 << 32) + 1, root: 1 << 16},
		{number: 1 << 33, root: 92681},
		{number: 1 << 60, root: 1 << 30},
		{number: 1 << 53, root: 94906265},
		{number: 1 << 62, root: 1 << 31},
		{number: 1024, root: 32},
		{number: 4, root: 2},
		{number: 16, root: 4},
	}
	for _, testVals := range tt {
		assert.Equal(t, testVals.root, math.IntegerSquareRoot(testVals.number))
	}
}

func TestMul64(t *testing.T) {
	_, err := math.Mul64(1<<63, 2)
	require.ErrorIs(t, err, math.ErrOverflow)
	res, err := math.Mul64(1<<31, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<32), res)
}

func TestAdd64(t *testing.T) {
	_, err := math.Add64(^uint64(0), 1)
	require.ErrorIs(t, err, math.ErrOverflow)
	res, err := math.Add64(40, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res)
}

func TestDiv64(t *testing.T) {
	_, err := math.Div64(1, 0)
	require.ErrorIs(t, err, math.ErrDivByZero)
}
