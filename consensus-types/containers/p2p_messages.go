package containers

import (
	ssz "github.com/ferranbt/fastssz"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

const (
	statusSize                     = 84
	metaDataSize                   = 16
	beaconBlocksByRangeRequestSize = 24
	forkDataSize                   = 36
)

// Status is exchanged by peers on connection to compare chain heads.
type Status struct {
	ForkDigest     [4]byte
	FinalizedRoot  [32]byte
	FinalizedEpoch primitives.Epoch
	HeadRoot       [32]byte
	HeadSlot       primitives.Slot
}

// MetaData advertises a peer's attestation subnet subscriptions.
type MetaData struct {
	SeqNumber uint64
	Attnets   bitfield.Bitvector64
}

// BeaconBlocksByRangeRequest asks a peer for a contiguous block range.
type BeaconBlocksByRangeRequest struct {
	StartSlot primitives.Slot
	Count     uint64
	Step      uint64
}

// ForkData is hashed to derive fork digests and signing domains.
type ForkData struct {
	CurrentVersion        [4]byte
	GenesisValidatorsRoot [32]byte
}

// Copy --
func (s *Status) Copy() *Status {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Copy --
func (m *MetaData) Copy() *MetaData {
	if m == nil {
		return nil
	}
	return &MetaData{
		SeqNumber: m.SeqNumber,
		Attnets:   bitfield.Bitvector64(append([]byte(nil), m.Attnets...)),
	}
}

// MarshalSSZ ssz marshals the Status object
func (s *Status) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(s)
}

// MarshalSSZTo ssz marshals the Status object to a target array
func (s *Status) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = append(dst, s.ForkDigest[:]...)
	dst = append(dst, s.FinalizedRoot[:]...)
	dst = ssz.MarshalUint64(dst, uint64(s.FinalizedEpoch))
	dst = append(dst, s.HeadRoot[:]...)
	dst = ssz.MarshalUint64(dst, uint64(s.HeadSlot))
	return
}

// UnmarshalSSZ ssz unmarshals the Status object
func (s *Status) UnmarshalSSZ(buf []byte) error {
	if len(buf) != statusSize {
		return ssz.ErrSize
	}
	copy(s.ForkDigest[:], buf[0:4])
	copy(s.FinalizedRoot[:], buf[4:36])
	s.FinalizedEpoch = primitives.Epoch(ssz.UnmarshallUint64(buf[36:44]))
	copy(s.HeadRoot[:], buf[44:76])
	s.HeadSlot = primitives.Slot(ssz.UnmarshallUint64(buf[76:84]))
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the Status object
func (s *Status) SizeSSZ() int {
	return statusSize
}

// HashTreeRoot ssz hashes the Status object
func (s *Status) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the Status object with a hasher
func (s *Status) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(s.ForkDigest[:])
	hh.PutBytes(s.FinalizedRoot[:])
	hh.PutUint64(uint64(s.FinalizedEpoch))
	hh.PutBytes(s.HeadRoot[:])
	hh.PutUint64(uint64(s.HeadSlot))
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the MetaData object
func (m *MetaData) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(m)
}

// MarshalSSZTo ssz marshals the MetaData object to a target array
func (m *MetaData) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = ssz.MarshalUint64(dst, m.SeqNumber)
	if m.Attnets == nil {
		m.Attnets = bitfield.NewBitvector64()
	}
	if len(m.Attnets) != 8 {
		err = ssz.ErrBytesLength
		return
	}
	dst = append(dst, m.Attnets...)
	return
}

// UnmarshalSSZ ssz unmarshals the MetaData object
func (m *MetaData) UnmarshalSSZ(buf []byte) error {
	if len(buf) != metaDataSize {
		return ssz.ErrSize
	}
	m.SeqNumber = ssz.UnmarshallUint64(buf[0:8])
	m.Attnets = make(bitfield.Bitvector64, 8)
	copy(m.Attnets, buf[8:16])
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the MetaData object
func (m *MetaData) SizeSSZ() int {
	return metaDataSize
}

// HashTreeRoot ssz hashes the MetaData object
func (m *MetaData) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(m)
}

// HashTreeRootWith ssz hashes the MetaData object with a hasher
func (m *MetaData) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(m.SeqNumber)
	if m.Attnets == nil {
		m.Attnets = bitfield.NewBitvector64()
	}
	hh.PutBytes(m.Attnets)
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the BeaconBlocksByRangeRequest object
func (r *BeaconBlocksByRangeRequest) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(r)
}

// MarshalSSZTo ssz marshals the BeaconBlocksByRangeRequest object to a target array
func (r *BeaconBlocksByRangeRequest) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = ssz.MarshalUint64(dst, uint64(r.StartSlot))
	dst = ssz.MarshalUint64(dst, r.Count)
	dst = ssz.MarshalUint64(dst, r.Step)
	return
}

// UnmarshalSSZ ssz unmarshals the BeaconBlocksByRangeRequest object
func (r *BeaconBlocksByRangeRequest) UnmarshalSSZ(buf []byte) error {
	if len(buf) != beaconBlocksByRangeRequestSize {
		return ssz.ErrSize
	}
	r.StartSlot = primitives.Slot(ssz.UnmarshallUint64(buf[0:8]))
	r.Count = ssz.UnmarshallUint64(buf[8:16])
	r.Step = ssz.UnmarshallUint64(buf[16:24])
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the BeaconBlocksByRangeRequest object
func (r *BeaconBlocksByRangeRequest) SizeSSZ() int {
	return beaconBlocksByRangeRequestSize
}

// HashTreeRoot ssz hashes the BeaconBlocksByRangeRequest object
func (r *BeaconBlocksByRangeRequest) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(r)
}

// HashTreeRootWith ssz hashes the BeaconBlocksByRangeRequest object with a hasher
func (r *BeaconBlocksByRangeRequest) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(uint64(r.StartSlot))
	hh.PutUint64(r.Count)
	hh.PutUint64(r.Step)
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the ForkData object
func (f *ForkData) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(f)
}

// MarshalSSZTo ssz marshals the ForkData object to a target array
func (f *ForkData) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = append(dst, f.CurrentVersion[:]...)
	dst = append(dst, f.GenesisValidatorsRoot[:]...)
	return
}

// UnmarshalSSZ ssz unmarshals the ForkData object
func (f *ForkData) UnmarshalSSZ(buf []byte) error {
	if len(buf) != forkDataSize {
		return ssz.ErrSize
	}
	copy(f.CurrentVersion[:], buf[0:4])
	copy(f.GenesisValidatorsRoot[:], buf[4:36])
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the ForkData object
func (f *ForkData) SizeSSZ() int {
	return forkDataSize
}

// HashTreeRoot ssz hashes the ForkData object
func (f *ForkData) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the ForkData object with a hasher
func (f *ForkData) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(f.CurrentVersion[:])
	hh.PutBytes(f.GenesisValidatorsRoot[:])
	hh.Merkleize(indx)
	return nil
}
