// Package maxprocs automatically sets GOMAXPROCS to match the Linux
// container CPU quota, if any. Import it for its side effect.
package maxprocs

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"
)

var log = logrus.WithField("prefix", "maxprocs")

func init() {
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.WithError(err).Debug("Failed to set GOMAXPROCS")
	}
}
