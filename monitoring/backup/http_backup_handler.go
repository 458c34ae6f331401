// Package backup exposes the state archive backup over HTTP.
package backup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Exporter defines a backup exporter methods.
type Exporter interface {
	Backup(ctx context.Context, outputDir string) (string, error)
}

// Handler for accepting requests to initiate a new database backup. The
// response body is the path of the written backup. An "output" query
// parameter overrides the default output directory.
func Handler(bk Exporter, outputDir string) func(http.ResponseWriter, *http.Request) {
	log := logrus.WithField("prefix", "db")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		log.Debug("Creating database backup from HTTP webhook")

		dir := outputDir
		if o := r.URL.Query().Get("output"); o != "" {
			dir = o
		}

		backupPath, err := bk.Backup(r.Context(), dir)
		if err != nil {
			log.WithError(err).Error("Failed to create backup")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, backupPath); err != nil {
			log.WithError(err).Error("Failed to write backup path")
		}
	}
}
