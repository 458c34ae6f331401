package kv

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

const backupsDirectoryName = "backups"

// Backup the database to the datadir backup directory, or to outputDir when it is set.
// Example for backup at slot 345: $DATADIR/backups/epochengine_at_slot_0000345.backup
func (s *Store) Backup(ctx context.Context, outputDir string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "BeaconDB.Backup")
	defer span.End()

	backupsDir := path.Join(s.databasePath, backupsDirectoryName)
	if outputDir != "" {
		backupsDir = outputDir
	}
	last, err := s.LastArchivedSlot(ctx)
	if err != nil {
		return "", errors.Wrap(err, "could not read last archived slot")
	}
	// Ensure the backups directory exists.
	if err := os.MkdirAll(backupsDir, 0700); err != nil {
		return "", err
	}
	backupPath := path.Join(backupsDir, fmt.Sprintf("epochengine_at_slot_%07d.backup", last))
	log.WithField("backup", backupPath).Info("Writing backup database")
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(backupPath, 0600)
	}); err != nil {
		return "", err
	}
	return backupPath, nil
}
