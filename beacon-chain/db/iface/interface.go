// Package iface defines the archive database interface used by the epoch engine, also
// containing a scoped ReadOnlyDatabase.
package iface

import (
	"context"
	"io"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/kv"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// ReadOnlyDatabase defines a struct which only has read access to database methods.
type ReadOnlyDatabase interface {
	ArchivedState(ctx context.Context, slot primitives.Slot) (state.BeaconState, error)
	ArchivedStateByRoot(ctx context.Context, root [32]byte) (state.BeaconState, error)
	HasArchivedState(ctx context.Context, slot primitives.Slot) bool
	LastArchivedSlot(ctx context.Context) (primitives.Slot, error)
	RootIndexEntries(ctx context.Context) ([]*kv.RootIndexEntry, error)
}

// Database interface with full access.
type Database interface {
	io.Closer
	ReadOnlyDatabase

	SaveArchivedState(ctx context.Context, st state.ReadOnlyBeaconState) error
	DeleteArchivedState(ctx context.Context, slot primitives.Slot) error
	DatabasePath() string
	ClearDB() error
	Backup(ctx context.Context, outputDir string) (string, error)
}
