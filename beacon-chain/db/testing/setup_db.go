// Package testing allows for spinning up a real bolt-db instance for unit tests throughout the
// repo.
package testing

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/iface"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/kv"
)

// SetupDB instantiates and returns database backed by key value store.
func SetupDB(t testing.TB) iface.Database {
	s, err := kv.NewKVStore(context.Background(), t.TempDir(), func(c *kv.Config) {
		c.InitialMMapSize = 1 << 20
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})
	return s
}
