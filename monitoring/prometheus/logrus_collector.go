package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// LogrusCollector is a logrus hook counting log entries per level and per
// logging prefix, e.g. "epoch", "p2p" or "archiver".
type LogrusCollector struct {
	counterVec *prometheus.CounterVec
	levels     []logrus.Level
}

var (
	defaultLevels = []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	counterVec    = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_entries_total",
		Help: "Total number of log messages.",
	}, []string{"level", "prefix"})
)

const prefixKey = "prefix"
const defaultprefix = "global"

// NewLogrusCollector returns a logrus hook backed by the log_entries_total counter.
// With no levels given it counts info, warning and error entries.
func NewLogrusCollector(levels ...logrus.Level) *LogrusCollector {
	if len(levels) == 0 {
		levels = defaultLevels
	}
	return &LogrusCollector{
		counterVec: counterVec,
		levels:     levels,
	}
}

// Fire is called on every log call.
func (hook *LogrusCollector) Fire(entry *logrus.Entry) error {
	prefix := defaultprefix
	if prefixValue, ok := entry.Data[prefixKey]; ok {
		prefix, ok = prefixValue.(string)
		if !ok {
			return errors.New("prefix is not a string")
		}
	}
	hook.counterVec.WithLabelValues(entry.Level.String(), prefix).Inc()
	return nil
}

// Levels return a slice of levels supported by this hook;
func (hook *LogrusCollector) Levels() []logrus.Level {
	return hook.levels
}
