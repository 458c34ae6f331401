// Package db defines the ability to create a new database for the epoch engine.
package db

import (
	"context"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/iface"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/kv"
)

// ReadOnlyDatabase exposes the read methods of the archive.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// Database defines the necessary methods for the state archive which may be implemented by any
// key-value or relational database in practice.
type Database = iface.Database

// NewDB initializes a new DB.
func NewDB(ctx context.Context, dirPath string) (Database, error) {
	return kv.NewKVStore(ctx, dirPath)
}
