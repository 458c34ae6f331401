// Package kv defines a bolt-db, key-value store implementation of the archive database
// interface used by the epoch engine.
package kv

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	prombolt "github.com/prysmaticlabs/prombbolt"
	bolt "go.etcd.io/bbolt"
)

const (
	// DatabaseFileName is the name of the archive database inside the data directory.
	DatabaseFileName = "epochengine.db"
	// DefaultInitialMMapSize is the initial bolt mmap size.
	DefaultInitialMMapSize = 536870912
	boltTimeout            = 1 * time.Second
)

// Store defines an implementation of the archive database interface using BoltDB as the
// underlying persistent kv-store.
type Store struct {
	db           *bolt.DB
	databasePath string
}

// Config for the bolt db kv store.
type Config struct {
	InitialMMapSize int
}

// NewKVStore initializes a new boltDB key-value store at the directory path specified, creates
// the kv-buckets based on the schema, and stores an open connection db object as a property of
// the Store struct.
func NewKVStore(_ context.Context, dirPath string, opts ...func(*Config)) (*Store, error) {
	cfg := &Config{InitialMMapSize: DefaultInitialMMapSize}
	for _, o := range opts {
		o(cfg)
	}
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return nil, err
	}
	datafile := StoreDatafilePath(dirPath)
	boltDB, err := bolt.Open(datafile, 0600, &bolt.Options{
		Timeout:         boltTimeout,
		InitialMmapSize: cfg.InitialMMapSize,
	})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}

	kv := &Store{
		db:           boltDB,
		databasePath: dirPath,
	}
	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			stateArchiveBucket,
			stateArchiveRootIndexBucket,
			stateArchiveSlotRootsBucket,
		)
	}); err != nil {
		return nil, err
	}
	if err := prometheus.Register(createBoltCollector(kv.db)); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
	}
	return kv, nil
}

// StoreDatafilePath is the canonical construction of a full database file path from the
// directory path.
func StoreDatafilePath(dirPath string) string {
	return path.Join(dirPath, DatabaseFileName)
}

// ClearDB removes the previously stored database in the data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	prometheus.Unregister(createBoltCollector(s.db))
	if err := os.Remove(StoreDatafilePath(s.databasePath)); err != nil {
		return errors.Wrap(err, "could not remove database file")
	}
	return nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	prometheus.Unregister(createBoltCollector(s.db))
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// createBoltCollector returns a prometheus collector specifically configured for boltdb.
func createBoltCollector(db *bolt.DB) prometheus.Collector {
	return prombolt.New("boltDB", db)
}
