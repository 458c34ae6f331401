package primitives

import (
	"fmt"

	fssz "github.com/ferranbt/fastssz"
)

var _ fssz.Marshaler = (*Slot)(nil)
var _ fssz.Unmarshaler = (*Slot)(nil)

// Slot represents a single slot.
type Slot uint64

// Mul multiplies slot by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Mul(x uint64) Slot {
	res, err := s.SafeMul(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeMul multiplies slot by x.
func (s Slot) SafeMul(x uint64) (Slot, error) {
	if x != 0 && uint64(s) > ^uint64(0)/x {
		return 0, fmt.Errorf("multiplication overflow: slot=%d, x=%d", s, x)
	}
	return s * Slot(x), nil
}

// Add increases slot by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Add(x uint64) Slot {
	res, err := s.SafeAdd(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeAdd increases slot by x.
func (s Slot) SafeAdd(x uint64) (Slot, error) {
	if uint64(s) > ^uint64(0)-x {
		return 0, fmt.Errorf("addition overflows: slot=%d, x=%d", s, x)
	}
	return s + Slot(x), nil
}

// Sub subtracts x from the slot.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (s Slot) Sub(x uint64) Slot {
	res, err := s.SafeSub(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeSub subtracts x from the slot.
func (s Slot) SafeSub(x uint64) (Slot, error) {
	if uint64(s) < x {
		return 0, fmt.Errorf("subtraction underflow: slot=%d, x=%d", s, x)
	}
	return s - Slot(x), nil
}

// Mod returns result of `slot % x`.
func (s Slot) Mod(x uint64) Slot {
	if x == 0 {
		panic("modulo by zero")
	}
	return s % Slot(x)
}

// HashTreeRoot --
func (s Slot) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(s)
}

// HashTreeRootWith --
func (s Slot) HashTreeRootWith(hh fssz.HashWalker) error {
	hh.PutUint64(uint64(s))
	return nil
}

// UnmarshalSSZ --
func (s *Slot) UnmarshalSSZ(buf []byte) error {
	if len(buf) != s.SizeSSZ() {
		return fmt.Errorf("expected buffer of length %d received %d", s.SizeSSZ(), len(buf))
	}
	*s = Slot(fssz.UnmarshallUint64(buf))
	return nil
}

// MarshalSSZTo --
func (s *Slot) MarshalSSZTo(dst []byte) ([]byte, error) {
	marshalled, err := s.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	return append(dst, marshalled...), nil
}

// MarshalSSZ --
func (s *Slot) MarshalSSZ() ([]byte, error) {
	return fssz.MarshalUint64(make([]byte, 0, 8), uint64(*s)), nil
}

// SizeSSZ --
func (s *Slot) SizeSSZ() int {
	return 8
}
