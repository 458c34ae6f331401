package clientstats

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "clientstats")
