// Package math includes important helpers for Ethereum such as fast integer square roots.
package math

import (
	stdmath "math"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/thomaso-mirodin/intmath/u64"
)

var (
	// ErrOverflow is produced when a value overflows.
	ErrOverflow = errors.New("integer overflow")
	// ErrDivByZero is produced when dividing by zero.
	ErrDivByZero = errors.New("integer divide by zero")

	squareRootTable = map[uint64]uint64{
		4:       2,
		16:      4,
		64:      8,
		256:     16,
		1024:    32,
		4096:    64,
		16384:   128,
		65536:   256,
		262144:  512,
		1048576: 1024,
		4194304: 2048,
	}
)

// IntegerSquareRoot defines a function that returns the
// largest possible integer root of a number using go's standard library.
func IntegerSquareRoot(n uint64) uint64 {
	if v, ok := squareRootTable[n]; ok {
		return v
	}

	// Golang floating point precision may be lost above 52 bits, so we use a
	// non floating point method. u64.Sqrt is about x2.5 slower than math.Sqrt.
	if n >= 1<<52 {
		return u64.Sqrt(n)
	}

	return uint64(stdmath.Sqrt(float64(n)))
}

// Mul64 multiples 2 64-bit unsigned integers and checks if they
// lead to an overflow. If they do not, it returns the result
// without an error.
func Mul64(a, b uint64) (uint64, error) {
	overflows, val := bits.Mul64(a, b)
	if overflows > 0 {
		return 0, ErrOverflow
	}
	return val, nil
}

// Add64 adds 2 64-bit unsigned integers and checks if they
// lead to an overflow. If they do not, it returns the result
// without an error.
func Add64(a, b uint64) (uint64, error) {
	res, carry := bits.Add64(a, b, 0 /* carry */)
	if carry > 0 {
		return 0, ErrOverflow
	}
	return res, nil
}

// Div64 divides two 64-bit unsigned integers and checks for errors.
func Div64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivByZero
	}
	return a / b, nil
}

// Max returns the larger integer of the two
// given ones.This is used over the Max function
// in the standard math library because that max function
// has to check for some special floating point cases
// making it slower by a magnitude of 10.
func Max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller integer of the two
// given ones.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
