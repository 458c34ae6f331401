package state_native

import (
	fssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
)

const (
	offsetSize = 4
	forkSize   = 16
	cpSize     = 40
	slotOffset = 40
)

var errInvalidParticipationList = errors.New("participation list exceeds validator registry limit")

// fixedSize is the length of the fixed part of the encoding, shared by both state versions.
func fixedSize() int {
	cfg := params.BeaconConfig()
	return 8 + 32 + 8 + forkSize +
		int(cfg.SlotsPerHistoricalRoot)*32 +
		int(cfg.EpochsPerHistoricalVector)*32 +
		cpSize + 4*offsetSize
}

// SizeSSZ returns the ssz encoded size in bytes for the beacon state.
func (b *BeaconState) SizeSSZ() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.sizeSSZ()
}

func (b *BeaconState) sizeSSZ() int {
	size := fixedSize()
	size += len(b.validators) * containers.ValidatorSize
	size += len(b.balances) * 8
	switch b.version {
	case version.Phase0:
		for _, a := range b.previousEpochAttestations {
			size += offsetSize + a.SizeSSZ()
		}
		for _, a := range b.currentEpochAttestations {
			size += offsetSize + a.SizeSSZ()
		}
	default:
		size += len(b.previousEpochParticipation) + len(b.currentEpochParticipation)
	}
	return size
}

// MarshalSSZ encodes the beacon state into its SSZ snapshot form.
func (b *BeaconState) MarshalSSZ() ([]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.marshalSSZTo(make([]byte, 0, b.sizeSSZ()))
}

func (b *BeaconState) marshalSSZTo(dst []byte) ([]byte, error) {
	var err error
	dst = fssz.MarshalUint64(dst, b.genesisTime)
	dst = append(dst, b.genesisValidatorsRoot[:]...)
	dst = fssz.MarshalUint64(dst, uint64(b.slot))
	if dst, err = b.fork.MarshalSSZTo(dst); err != nil {
		return nil, errors.Wrap(err, "could not marshal fork")
	}
	for _, r := range b.blockRoots {
		dst = append(dst, r[:]...)
	}
	for _, r := range b.randaoMixes {
		dst = append(dst, r[:]...)
	}
	if dst, err = b.finalizedCheckpoint.MarshalSSZTo(dst); err != nil {
		return nil, errors.Wrap(err, "could not marshal finalized checkpoint")
	}

	offset := fixedSize()
	dst = fssz.WriteOffset(dst, offset)
	offset += len(b.validators) * containers.ValidatorSize
	dst = fssz.WriteOffset(dst, offset)
	offset += len(b.balances) * 8
	dst = fssz.WriteOffset(dst, offset)

	switch b.version {
	case version.Phase0:
		for _, a := range b.previousEpochAttestations {
			offset += offsetSize + a.SizeSSZ()
		}
		dst = fssz.WriteOffset(dst, offset)
		for _, v := range b.validators {
			if dst, err = v.MarshalSSZTo(dst); err != nil {
				return nil, errors.Wrap(err, "could not marshal validator")
			}
		}
		for _, bal := range b.balances {
			dst = fssz.MarshalUint64(dst, bal)
		}
		if dst, err = marshalAttestations(dst, b.previousEpochAttestations); err != nil {
			return nil, errors.Wrap(err, "could not marshal previous epoch attestations")
		}
		if dst, err = marshalAttestations(dst, b.currentEpochAttestations); err != nil {
			return nil, errors.Wrap(err, "could not marshal current epoch attestations")
		}
	case version.Altair:
		offset += len(b.previousEpochParticipation)
		dst = fssz.WriteOffset(dst, offset)
		for _, v := range b.validators {
			if dst, err = v.MarshalSSZTo(dst); err != nil {
				return nil, errors.Wrap(err, "could not marshal validator")
			}
		}
		for _, bal := range b.balances {
			dst = fssz.MarshalUint64(dst, bal)
		}
		dst = append(dst, b.previousEpochParticipation...)
		dst = append(dst, b.currentEpochParticipation...)
	default:
		return nil, errNotSupported("MarshalSSZ", b.version)
	}
	return dst, nil
}

func marshalAttestations(dst []byte, atts []*containers.PendingAttestation) ([]byte, error) {
	offset := len(atts) * offsetSize
	for _, a := range atts {
		dst = fssz.WriteOffset(dst, offset)
		offset += a.SizeSSZ()
	}
	var err error
	for _, a := range atts {
		if dst, err = a.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// InitializeFromSSZBytes decodes an SSZ snapshot. The state version is picked from the encoded
// slot and the configured altair fork epoch.
func InitializeFromSSZBytes(buf []byte) (state.BeaconState, error) {
	if len(buf) < fixedSize() {
		return nil, fssz.ErrSize
	}
	slot := primitives.Slot(fssz.UnmarshallUint64(buf[slotOffset : slotOffset+8]))
	epoch := primitives.Epoch(slot / params.BeaconConfig().SlotsPerEpoch)
	if epoch >= params.BeaconConfig().AltairForkEpoch {
		return unmarshalState(buf, version.Altair)
	}
	return unmarshalState(buf, version.Phase0)
}

// InitializeFromSSZBytesVersion decodes an SSZ snapshot whose state version is already known.
func InitializeFromSSZBytesVersion(buf []byte, ver int) (state.BeaconState, error) {
	switch ver {
	case version.Phase0, version.Altair:
		b, err := unmarshalState(buf, ver)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown state version %d", ver)
	}
}

func unmarshalState(buf []byte, ver int) (*BeaconState, error) {
	cfg := params.BeaconConfig()
	size := uint64(len(buf))
	fixed := fixedSize()
	if size < uint64(fixed) {
		return nil, fssz.ErrSize
	}

	b := &BeaconState{
		version: ver,
		fork:    &containers.Fork{},
	}
	pos := 0
	b.genesisTime = fssz.UnmarshallUint64(buf[pos : pos+8])
	pos += 8
	copy(b.genesisValidatorsRoot[:], buf[pos:pos+32])
	pos += 32
	b.slot = primitives.Slot(fssz.UnmarshallUint64(buf[pos : pos+8]))
	pos += 8
	if err := b.fork.UnmarshalSSZ(buf[pos : pos+forkSize]); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal fork")
	}
	pos += forkSize

	b.blockRoots = make([][32]byte, cfg.SlotsPerHistoricalRoot)
	for i := range b.blockRoots {
		copy(b.blockRoots[i][:], buf[pos:pos+32])
		pos += 32
	}
	b.randaoMixes = make([][32]byte, cfg.EpochsPerHistoricalVector)
	for i := range b.randaoMixes {
		copy(b.randaoMixes[i][:], buf[pos:pos+32])
		pos += 32
	}
	b.finalizedCheckpoint = &containers.Checkpoint{}
	if err := b.finalizedCheckpoint.UnmarshalSSZ(buf[pos : pos+cpSize]); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal finalized checkpoint")
	}
	pos += cpSize

	offsets := make([]uint64, 4)
	for i := range offsets {
		offsets[i] = fssz.ReadOffset(buf[pos : pos+offsetSize])
		pos += offsetSize
	}
	if offsets[0] != uint64(fixed) {
		return nil, fssz.ErrOffset
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] || offsets[i] > size {
			return nil, fssz.ErrOffset
		}
	}

	// Validators.
	{
		raw := buf[offsets[0]:offsets[1]]
		if len(raw)%containers.ValidatorSize != 0 {
			return nil, fssz.ErrSize
		}
		num := uint64(len(raw) / containers.ValidatorSize)
		if num > cfg.ValidatorRegistryLimit {
			return nil, fssz.ErrSize
		}
		b.validators = make([]*containers.Validator, num)
		for i := range b.validators {
			b.validators[i] = &containers.Validator{}
			if err := b.validators[i].UnmarshalSSZ(raw[i*containers.ValidatorSize : (i+1)*containers.ValidatorSize]); err != nil {
				return nil, errors.Wrapf(err, "could not unmarshal validator %d", i)
			}
		}
	}

	// Balances.
	{
		raw := buf[offsets[1]:offsets[2]]
		if len(raw)%8 != 0 {
			return nil, fssz.ErrSize
		}
		b.balances = make([]uint64, len(raw)/8)
		for i := range b.balances {
			b.balances[i] = fssz.UnmarshallUint64(raw[i*8 : (i+1)*8])
		}
	}
	if len(b.balances) != len(b.validators) {
		return nil, errors.Errorf("balances length %d does not match validator count %d", len(b.balances), len(b.validators))
	}

	prev := buf[offsets[2]:offsets[3]]
	cur := buf[offsets[3]:]
	switch ver {
	case version.Phase0:
		var err error
		if b.previousEpochAttestations, err = unmarshalAttestations(prev, cfg.MaxAttestationsPerEpoch()); err != nil {
			return nil, errors.Wrap(err, "could not unmarshal previous epoch attestations")
		}
		if b.currentEpochAttestations, err = unmarshalAttestations(cur, cfg.MaxAttestationsPerEpoch()); err != nil {
			return nil, errors.Wrap(err, "could not unmarshal current epoch attestations")
		}
	case version.Altair:
		if uint64(len(prev)) > cfg.ValidatorRegistryLimit || uint64(len(cur)) > cfg.ValidatorRegistryLimit {
			return nil, errInvalidParticipationList
		}
		b.previousEpochParticipation = copyBytes(prev)
		b.currentEpochParticipation = copyBytes(cur)
	}
	return b, nil
}

func unmarshalAttestations(buf []byte, limit uint64) ([]*containers.PendingAttestation, error) {
	atts := []*containers.PendingAttestation{}
	if len(buf) == 0 {
		return atts, nil
	}
	if len(buf) < offsetSize {
		return nil, fssz.ErrSize
	}
	first := fssz.ReadOffset(buf[0:offsetSize])
	if first%offsetSize != 0 || first == 0 || first > uint64(len(buf)) {
		return nil, fssz.ErrOffset
	}
	num := first / offsetSize
	if num > limit {
		return nil, errors.Errorf("attestation list length %d exceeds limit %d", num, limit)
	}
	offsets := make([]uint64, num+1)
	for i := uint64(0); i < num; i++ {
		offsets[i] = fssz.ReadOffset(buf[i*offsetSize : (i+1)*offsetSize])
	}
	offsets[num] = uint64(len(buf))
	for i := uint64(0); i < num; i++ {
		if offsets[i] > offsets[i+1] {
			return nil, fssz.ErrOffset
		}
		a := &containers.PendingAttestation{}
		if err := a.UnmarshalSSZ(buf[offsets[i]:offsets[i+1]]); err != nil {
			return nil, err
		}
		atts = append(atts, a)
	}
	return atts, nil
}
