package primitives

import (
	"fmt"

	fssz "github.com/ferranbt/fastssz"
)

// SSZUint64 is a bare uint64 that satisfies the fastssz interfaces. Req/resp messages such as
// goodbye reason codes and ping sequence numbers are encoded this way.
type SSZUint64 uint64

// SizeSSZ --
func (s *SSZUint64) SizeSSZ() int {
	return 8
}

// MarshalSSZTo --
func (s *SSZUint64) MarshalSSZTo(dst []byte) ([]byte, error) {
	marshalledObj, err := s.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	return append(dst, marshalledObj...), nil
}

// MarshalSSZ --
func (s *SSZUint64) MarshalSSZ() ([]byte, error) {
	return fssz.MarshalUint64(make([]byte, 0, 8), uint64(*s)), nil
}

// UnmarshalSSZ --
func (s *SSZUint64) UnmarshalSSZ(buf []byte) error {
	if len(buf) != s.SizeSSZ() {
		return fmt.Errorf("expected buffer of length %d received %d", s.SizeSSZ(), len(buf))
	}
	*s = SSZUint64(fssz.UnmarshallUint64(buf))
	return nil
}

// HashTreeRoot --
func (s *SSZUint64) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(s)
}

// HashTreeRootWith --
func (s *SSZUint64) HashTreeRootWith(hh fssz.HashWalker) error {
	hh.PutUint64(uint64(*s))
	return nil
}

type hashTreeRootWither interface {
	HashTreeRootWith(hh fssz.HashWalker) error
}

func hashWithDefaultHasher(v hashTreeRootWither) ([32]byte, error) {
	hh := fssz.DefaultHasherPool.Get()
	if err := v.HashTreeRootWith(hh); err != nil {
		fssz.DefaultHasherPool.Put(hh)
		return [32]byte{}, err
	}
	root, err := hh.HashRoot()
	fssz.DefaultHasherPool.Put(hh)
	return root, err
}
