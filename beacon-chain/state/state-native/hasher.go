package state_native

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/encoding/ssz"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
	"go.opencensus.io/trace"
)

// beaconStateFieldCount is the number of top level fields of both state versions.
const beaconStateFieldCount = 11

// HashTreeRoot of the beacon state retrieves the Merkle root of the trie
// representation of the beacon state under SSZ merkleization. Every call
// recomputes the full tree.
func (b *BeaconState) HashTreeRoot(ctx context.Context) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "beaconState.HashTreeRoot")
	defer span.End()

	b.lock.RLock()
	defer b.lock.RUnlock()

	fieldRoots, err := computeFieldRoots(ctx, b)
	if err != nil {
		return [32]byte{}, err
	}
	return ssz.MerkleizeVector(fieldRoots, beaconStateFieldCount), nil
}

// computeFieldRoots hashes the provided state and returns its respective field roots.
// This assumes that a lock is already held on BeaconState.
func computeFieldRoots(ctx context.Context, state *BeaconState) ([][32]byte, error) {
	_, span := trace.StartSpan(ctx, "beaconState.computeFieldRoots")
	defer span.End()

	if state == nil {
		return nil, errors.New("nil state")
	}
	cfg := params.BeaconConfig()
	fieldRoots := make([][32]byte, 0, beaconStateFieldCount)

	// Genesis time root.
	fieldRoots = append(fieldRoots, ssz.Uint64Root(state.genesisTime))
	// Genesis validators root.
	fieldRoots = append(fieldRoots, state.genesisValidatorsRoot)
	// Slot root.
	fieldRoots = append(fieldRoots, ssz.Uint64Root(uint64(state.slot)))

	forkRoot, err := state.fork.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute fork merkleization")
	}
	fieldRoots = append(fieldRoots, forkRoot)

	fieldRoots = append(fieldRoots, ssz.MerkleizeVector(copyRoots(state.blockRoots), uint64(cfg.SlotsPerHistoricalRoot)))
	fieldRoots = append(fieldRoots, ssz.MerkleizeVector(copyRoots(state.randaoMixes), uint64(cfg.EpochsPerHistoricalVector)))

	finalizedRoot, err := state.finalizedCheckpoint.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute finalized checkpoint merkleization")
	}
	fieldRoots = append(fieldRoots, finalizedRoot)

	validatorsRoot, err := ssz.MerkleizeListSSZ(state.validators, cfg.ValidatorRegistryLimit)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute validator registry merkleization")
	}
	fieldRoots = append(fieldRoots, validatorsRoot)

	balancesRoot, err := ssz.Uint64ListRootWithLimit(state.balances, cfg.ValidatorRegistryLimit)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute validator balances merkleization")
	}
	fieldRoots = append(fieldRoots, balancesRoot)

	switch state.version {
	case version.Phase0:
		prevRoot, err := ssz.MerkleizeListSSZ(state.previousEpochAttestations, cfg.MaxAttestationsPerEpoch())
		if err != nil {
			return nil, errors.Wrap(err, "could not compute previous epoch attestations merkleization")
		}
		curRoot, err := ssz.MerkleizeListSSZ(state.currentEpochAttestations, cfg.MaxAttestationsPerEpoch())
		if err != nil {
			return nil, errors.Wrap(err, "could not compute current epoch attestations merkleization")
		}
		fieldRoots = append(fieldRoots, prevRoot, curRoot)
	case version.Altair:
		prevRoot, err := ssz.ByteListRootWithLimit(state.previousEpochParticipation, cfg.ValidatorRegistryLimit)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute previous epoch participation merkleization")
		}
		curRoot, err := ssz.ByteListRootWithLimit(state.currentEpochParticipation, cfg.ValidatorRegistryLimit)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute current epoch participation merkleization")
		}
		fieldRoots = append(fieldRoots, prevRoot, curRoot)
	default:
		return nil, errors.Errorf("unknown state version %s", version.String(state.version))
	}
	return fieldRoots, nil
}
