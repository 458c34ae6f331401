package p2p

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/signing"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/iface"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
)

// ErrNoArchivedState is returned when no chain status can be advertised yet.
var ErrNoArchivedState = errors.New("no archived state to derive chain status from")

// StatusFromState derives the status message advertised for a post-epoch state. No blocks are
// processed, so the head root is the root of the state itself.
func StatusFromState(ctx context.Context, st state.ReadOnlyBeaconState) (*containers.Status, error) {
	if st == nil {
		return nil, errors.New("nil state")
	}
	digest, err := signing.ForkDigestForState(st)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute fork digest")
	}
	headRoot, err := st.HashTreeRoot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute state root")
	}
	finalized := st.FinalizedCheckpoint()
	if finalized == nil {
		finalized = &containers.Checkpoint{}
	}
	return &containers.Status{
		ForkDigest:     digest,
		FinalizedRoot:  finalized.Root,
		FinalizedEpoch: finalized.Epoch,
		HeadRoot:       headRoot,
		HeadSlot:       st.Slot(),
	}, nil
}

// ArchiveChainInfo advertises the latest state held in the state archive.
type ArchiveChainInfo struct {
	DB iface.ReadOnlyDatabase
}

// ChainStatus --
func (a *ArchiveChainInfo) ChainStatus(ctx context.Context) (*containers.Status, error) {
	slot, err := a.DB.LastArchivedSlot(ctx)
	if err != nil {
		return nil, err
	}
	st, err := a.DB.ArchivedState(ctx, slot)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoArchivedState
	}
	return StatusFromState(ctx, st)
}
