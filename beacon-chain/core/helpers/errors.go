package helpers

import "github.com/pkg/errors"

var (
	// ErrMalformedInput is returned when consensus input violates a structural rule, such as an
	// aggregation bitlist whose length differs from its committee or reserved participation bits.
	ErrMalformedInput = errors.New("malformed consensus input")
	// ErrInvariantViolation is returned when a computed result breaks a protocol bound. It is fatal
	// for the transition that produced it.
	ErrInvariantViolation = errors.New("consensus invariant violated")
)
