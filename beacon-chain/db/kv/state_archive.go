package kv

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// RootIndexEntry maps an archived state root to the slot it was archived at.
type RootIndexEntry struct {
	Root [32]byte
	Slot primitives.Slot
}

// SaveArchivedState stores the state under its slot and indexes its root. A state already
// archived at the same slot is replaced together with its root index entry.
func (s *Store) SaveArchivedState(ctx context.Context, st state.ReadOnlyBeaconState) error {
	ctx, span := trace.StartSpan(ctx, "BeaconDB.SaveArchivedState")
	defer span.End()

	if st == nil {
		return errors.New("nil state")
	}
	root, err := st.HashTreeRoot(ctx)
	if err != nil {
		tracing.AnnotateError(span, err)
		return errors.Wrap(err, "could not hash state")
	}
	enc, err := encodeState(st)
	if err != nil {
		tracing.AnnotateError(span, err)
		return err
	}
	slotKey := bytesutil.Uint64ToBytesBigEndian(uint64(st.Slot()))

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := deleteRootIndexForSlot(tx, slotKey, root); err != nil {
			return err
		}
		if err := tx.Bucket(stateArchiveBucket).Put(slotKey, enc); err != nil {
			return err
		}
		if err := tx.Bucket(stateArchiveSlotRootsBucket).Put(slotKey, root[:]); err != nil {
			return err
		}
		return tx.Bucket(stateArchiveRootIndexBucket).Put(root[:], slotKey)
	})
	if err != nil {
		tracing.AnnotateError(span, err)
		return err
	}
	archivedStatesCount.Inc()
	archivedStateBytes.Observe(float64(len(enc)))
	log.WithField("slot", st.Slot()).WithField("root", fmt.Sprintf("%#x", root)).Debug("Archived state")
	return nil
}

// ArchivedState returns the state archived at the slot, or nil when there is none.
func (s *Store) ArchivedState(ctx context.Context, slot primitives.Slot) (state.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ArchivedState")
	defer span.End()

	var enc []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		enc = bytesutil.SafeCopyBytes(tx.Bucket(stateArchiveBucket).Get(bytesutil.Uint64ToBytesBigEndian(uint64(slot))))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, nil
	}
	st, err := decodeState(enc)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrapf(err, "could not decode state archived at slot %d", slot)
	}
	return st, nil
}

// ArchivedStateByRoot returns the archived state with the given root, or nil when the root is
// not indexed.
func (s *Store) ArchivedStateByRoot(ctx context.Context, root [32]byte) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "BeaconDB.ArchivedStateByRoot")
	defer span.End()

	slot, ok, err := s.archivedSlotByRoot(root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.ArchivedState(ctx, slot)
}

// HasArchivedState returns true if a state is archived at the slot.
func (s *Store) HasArchivedState(ctx context.Context, slot primitives.Slot) bool {
	_, span := trace.StartSpan(ctx, "BeaconDB.HasArchivedState")
	defer span.End()

	var exists bool
	if err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(stateArchiveBucket).Get(bytesutil.Uint64ToBytesBigEndian(uint64(slot))) != nil
		return nil
	}); err != nil {
		panic(err) // lint:nopanic -- View never returns an error here.
	}
	return exists
}

// LastArchivedSlot returns the highest archived slot, or zero for an empty archive.
func (s *Store) LastArchivedSlot(ctx context.Context) (primitives.Slot, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.LastArchivedSlot")
	defer span.End()

	var slot primitives.Slot
	err := s.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(stateArchiveBucket).Cursor().Last()
		if k != nil {
			slot = primitives.Slot(bytesutil.BytesToUint64BigEndian(k))
		}
		return nil
	})
	return slot, err
}

// RootIndexEntries returns every entry of the root index in root order.
func (s *Store) RootIndexEntries(ctx context.Context) ([]*RootIndexEntry, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.RootIndexEntries")
	defer span.End()

	var entries []*RootIndexEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(stateArchiveRootIndexBucket).ForEach(func(k, v []byte) error {
			if len(k) != 32 {
				return errors.Errorf("root index key of length %d", len(k))
			}
			entries = append(entries, &RootIndexEntry{
				Root: bytesutil.ToBytes32(k),
				Slot: primitives.Slot(bytesutil.BytesToUint64BigEndian(v)),
			})
			return nil
		})
	})
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	return entries, nil
}

// DeleteArchivedState removes the state archived at the slot and its root index entry.
// Deleting an absent slot is a no-op.
func (s *Store) DeleteArchivedState(ctx context.Context, slot primitives.Slot) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.DeleteArchivedState")
	defer span.End()

	slotKey := bytesutil.Uint64ToBytesBigEndian(uint64(slot))
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := deleteRootIndexForSlot(tx, slotKey, [32]byte{}); err != nil {
			return err
		}
		return tx.Bucket(stateArchiveBucket).Delete(slotKey)
	})
}

func (s *Store) archivedSlotByRoot(root [32]byte) (primitives.Slot, bool, error) {
	var slot primitives.Slot
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(stateArchiveRootIndexBucket).Get(root[:])
		if v == nil {
			return nil
		}
		slot = primitives.Slot(bytesutil.BytesToUint64BigEndian(v))
		ok = true
		return nil
	})
	return slot, ok, err
}

// deleteRootIndexForSlot drops the root index entry of the state archived at the slot, unless
// its root is keep, along with the slot's reverse entry.
func deleteRootIndexForSlot(tx *bolt.Tx, slotKey []byte, keep [32]byte) error {
	slotRoots := tx.Bucket(stateArchiveSlotRootsBucket)
	old := bytesutil.SafeCopyBytes(slotRoots.Get(slotKey))
	if old == nil {
		return nil
	}
	if !bytes.Equal(old, keep[:]) {
		if err := tx.Bucket(stateArchiveRootIndexBucket).Delete(old); err != nil {
			return err
		}
	}
	return slotRoots.Delete(slotKey)
}
