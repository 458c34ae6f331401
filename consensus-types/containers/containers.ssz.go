package containers

import (
	ssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/epoch-engine/config/fieldparams"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// The encoders in this file follow the layout fastssz would generate for the corresponding
// consensus containers.

var (
	errEmptyBitlist = errors.New("bitlist is empty or missing its length bit")
	errInvalidBool  = errors.New("invalid boolean encoding")
)

const (
	forkSize               = 16
	checkpointSize         = 40
	attestationDataSize    = 128
	pendingAttestationBase = 148
	// ValidatorSize is the fixed SSZ size of a validator record.
	ValidatorSize = 121
)

// MarshalSSZ ssz marshals the Fork object
func (f *Fork) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(f)
}

// MarshalSSZTo ssz marshals the Fork object to a target array
func (f *Fork) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = append(dst, f.PreviousVersion[:]...)
	dst = append(dst, f.CurrentVersion[:]...)
	dst = ssz.MarshalUint64(dst, uint64(f.Epoch))
	return
}

// UnmarshalSSZ ssz unmarshals the Fork object
func (f *Fork) UnmarshalSSZ(buf []byte) error {
	if len(buf) != forkSize {
		return ssz.ErrSize
	}
	copy(f.PreviousVersion[:], buf[0:4])
	copy(f.CurrentVersion[:], buf[4:8])
	f.Epoch = primitives.Epoch(ssz.UnmarshallUint64(buf[8:16]))
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the Fork object
func (f *Fork) SizeSSZ() int {
	return forkSize
}

// HashTreeRoot ssz hashes the Fork object
func (f *Fork) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the Fork object with a hasher
func (f *Fork) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(f.PreviousVersion[:])
	hh.PutBytes(f.CurrentVersion[:])
	hh.PutUint64(uint64(f.Epoch))
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the Checkpoint object
func (c *Checkpoint) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(c)
}

// MarshalSSZTo ssz marshals the Checkpoint object to a target array
func (c *Checkpoint) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = ssz.MarshalUint64(dst, uint64(c.Epoch))
	dst = append(dst, c.Root[:]...)
	return
}

// UnmarshalSSZ ssz unmarshals the Checkpoint object
func (c *Checkpoint) UnmarshalSSZ(buf []byte) error {
	if len(buf) != checkpointSize {
		return ssz.ErrSize
	}
	c.Epoch = primitives.Epoch(ssz.UnmarshallUint64(buf[0:8]))
	copy(c.Root[:], buf[8:40])
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the Checkpoint object
func (c *Checkpoint) SizeSSZ() int {
	return checkpointSize
}

// HashTreeRoot ssz hashes the Checkpoint object
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher
func (c *Checkpoint) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(uint64(c.Epoch))
	hh.PutBytes(c.Root[:])
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the AttestationData object
func (a *AttestationData) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(a)
}

// MarshalSSZTo ssz marshals the AttestationData object to a target array
func (a *AttestationData) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = ssz.MarshalUint64(dst, uint64(a.Slot))
	dst = ssz.MarshalUint64(dst, uint64(a.CommitteeIndex))
	dst = append(dst, a.BeaconBlockRoot[:]...)
	if a.Source == nil {
		a.Source = new(Checkpoint)
	}
	if dst, err = a.Source.MarshalSSZTo(dst); err != nil {
		return
	}
	if a.Target == nil {
		a.Target = new(Checkpoint)
	}
	if dst, err = a.Target.MarshalSSZTo(dst); err != nil {
		return
	}
	return
}

// UnmarshalSSZ ssz unmarshals the AttestationData object
func (a *AttestationData) UnmarshalSSZ(buf []byte) error {
	if len(buf) != attestationDataSize {
		return ssz.ErrSize
	}
	a.Slot = primitives.Slot(ssz.UnmarshallUint64(buf[0:8]))
	a.CommitteeIndex = primitives.CommitteeIndex(ssz.UnmarshallUint64(buf[8:16]))
	copy(a.BeaconBlockRoot[:], buf[16:48])
	if a.Source == nil {
		a.Source = new(Checkpoint)
	}
	if err := a.Source.UnmarshalSSZ(buf[48:88]); err != nil {
		return err
	}
	if a.Target == nil {
		a.Target = new(Checkpoint)
	}
	return a.Target.UnmarshalSSZ(buf[88:128])
}

// SizeSSZ returns the ssz encoded size in bytes for the AttestationData object
func (a *AttestationData) SizeSSZ() int {
	return attestationDataSize
}

// HashTreeRoot ssz hashes the AttestationData object
func (a *AttestationData) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttestationData object with a hasher
func (a *AttestationData) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(uint64(a.Slot))
	hh.PutUint64(uint64(a.CommitteeIndex))
	hh.PutBytes(a.BeaconBlockRoot[:])
	if a.Source == nil {
		a.Source = new(Checkpoint)
	}
	if err := a.Source.HashTreeRootWith(hh); err != nil {
		return err
	}
	if a.Target == nil {
		a.Target = new(Checkpoint)
	}
	if err := a.Target.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the PendingAttestation object
func (a *PendingAttestation) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(a)
}

// MarshalSSZTo ssz marshals the PendingAttestation object to a target array
func (a *PendingAttestation) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	offset := pendingAttestationBase

	// Offset (0) 'AggregationBits'
	dst = ssz.WriteOffset(dst, offset)

	// Field (1) 'Data'
	if a.Data == nil {
		a.Data = new(AttestationData)
	}
	if dst, err = a.Data.MarshalSSZTo(dst); err != nil {
		return
	}

	// Field (2) 'InclusionDelay'
	dst = ssz.MarshalUint64(dst, uint64(a.InclusionDelay))

	// Field (3) 'ProposerIndex'
	dst = ssz.MarshalUint64(dst, uint64(a.ProposerIndex))

	// Field (0) 'AggregationBits'
	if size := len(a.AggregationBits); size > fieldparams.MaxValidatorsPerCommittee/8+1 {
		err = ssz.ErrBytesLength
		return
	}
	dst = append(dst, a.AggregationBits...)
	return
}

// UnmarshalSSZ ssz unmarshals the PendingAttestation object
func (a *PendingAttestation) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < pendingAttestationBase {
		return ssz.ErrSize
	}

	tail := buf
	// Offset (0) 'AggregationBits'
	o0 := ssz.ReadOffset(buf[0:4])
	if o0 > size || o0 != pendingAttestationBase {
		return ssz.ErrOffset
	}

	// Field (1) 'Data'
	if a.Data == nil {
		a.Data = new(AttestationData)
	}
	if err := a.Data.UnmarshalSSZ(buf[4:132]); err != nil {
		return err
	}

	// Field (2) 'InclusionDelay'
	a.InclusionDelay = primitives.Slot(ssz.UnmarshallUint64(buf[132:140]))

	// Field (3) 'ProposerIndex'
	a.ProposerIndex = primitives.ValidatorIndex(ssz.UnmarshallUint64(buf[140:148]))

	// Field (0) 'AggregationBits'
	bits := tail[o0:]
	if err := validateBitlist(bits, fieldparams.MaxValidatorsPerCommittee); err != nil {
		return err
	}
	a.AggregationBits = make(bitfield.Bitlist, len(bits))
	copy(a.AggregationBits, bits)
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the PendingAttestation object
func (a *PendingAttestation) SizeSSZ() int {
	return pendingAttestationBase + len(a.AggregationBits)
}

// HashTreeRoot ssz hashes the PendingAttestation object
func (a *PendingAttestation) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the PendingAttestation object with a hasher
func (a *PendingAttestation) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	if len(a.AggregationBits) == 0 {
		return errEmptyBitlist
	}
	hh.PutBitlist(a.AggregationBits, fieldparams.MaxValidatorsPerCommittee)
	if a.Data == nil {
		a.Data = new(AttestationData)
	}
	if err := a.Data.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.PutUint64(uint64(a.InclusionDelay))
	hh.PutUint64(uint64(a.ProposerIndex))
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the Validator object
func (v *Validator) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(v)
}

// MarshalSSZTo ssz marshals the Validator object to a target array
func (v *Validator) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = append(dst, v.PublicKey[:]...)
	dst = append(dst, v.WithdrawalCredentials[:]...)
	dst = ssz.MarshalUint64(dst, v.EffectiveBalance)
	dst = ssz.MarshalBool(dst, v.Slashed)
	dst = ssz.MarshalUint64(dst, uint64(v.ActivationEligibilityEpoch))
	dst = ssz.MarshalUint64(dst, uint64(v.ActivationEpoch))
	dst = ssz.MarshalUint64(dst, uint64(v.ExitEpoch))
	dst = ssz.MarshalUint64(dst, uint64(v.WithdrawableEpoch))
	return
}

// UnmarshalSSZ ssz unmarshals the Validator object
func (v *Validator) UnmarshalSSZ(buf []byte) error {
	if len(buf) != ValidatorSize {
		return ssz.ErrSize
	}
	copy(v.PublicKey[:], buf[0:48])
	copy(v.WithdrawalCredentials[:], buf[48:80])
	v.EffectiveBalance = ssz.UnmarshallUint64(buf[80:88])
	if buf[88] > 1 {
		return errInvalidBool
	}
	v.Slashed = ssz.UnmarshalBool(buf[88:89])
	v.ActivationEligibilityEpoch = primitives.Epoch(ssz.UnmarshallUint64(buf[89:97]))
	v.ActivationEpoch = primitives.Epoch(ssz.UnmarshallUint64(buf[97:105]))
	v.ExitEpoch = primitives.Epoch(ssz.UnmarshallUint64(buf[105:113]))
	v.WithdrawableEpoch = primitives.Epoch(ssz.UnmarshallUint64(buf[113:121]))
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the Validator object
func (v *Validator) SizeSSZ() int {
	return ValidatorSize
}

// HashTreeRoot ssz hashes the Validator object
func (v *Validator) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(v)
}

// HashTreeRootWith ssz hashes the Validator object with a hasher
func (v *Validator) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(v.PublicKey[:])
	hh.PutBytes(v.WithdrawalCredentials[:])
	hh.PutUint64(v.EffectiveBalance)
	hh.PutBool(v.Slashed)
	hh.PutUint64(uint64(v.ActivationEligibilityEpoch))
	hh.PutUint64(uint64(v.ActivationEpoch))
	hh.PutUint64(uint64(v.ExitEpoch))
	hh.PutUint64(uint64(v.WithdrawableEpoch))
	hh.Merkleize(indx)
	return nil
}

// validateBitlist checks a serialized bitlist carries its length bit and stays under the limit.
func validateBitlist(buf []byte, bitLimit uint64) error {
	byteLen := len(buf)
	if byteLen == 0 {
		return errEmptyBitlist
	}
	if buf[byteLen-1] == 0 {
		return errEmptyBitlist
	}
	if bitfield.Bitlist(buf).Len() > bitLimit {
		return ssz.ErrBytesLength
	}
	return nil
}

type hashTreeRootWither interface {
	HashTreeRootWith(hh ssz.HashWalker) error
}

func hashWithDefaultHasher(v hashTreeRootWither) ([32]byte, error) {
	hh := ssz.DefaultHasherPool.Get()
	if err := v.HashTreeRootWith(hh); err != nil {
		ssz.DefaultHasherPool.Put(hh)
		return [32]byte{}, err
	}
	root, err := hh.HashRoot()
	ssz.DefaultHasherPool.Put(hh)
	return root, err
}
