// Package logging configures the process wide logrus formatter and the
// optional persistent log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	joonix "github.com/joonix/log"
	"github.com/sirupsen/logrus"
	"github.com/wercker/journalhook"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Formats lists the accepted log format names.
var Formats = []string{"text", "fluentd", "json", "journald"}

// SetFormatter installs the named formatter on the standard logger. Colors
// are disabled for text output when disableColors is set.
func SetFormatter(format string, disableColors bool) error {
	switch format {
	case "text":
		logrus.SetFormatter(textFormatter(disableColors))
	case "fluentd":
		logrus.SetFormatter(joonix.NewFormatter())
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "journald":
		journalhook.Enable()
	default:
		return fmt.Errorf("unknown log format %s", format)
	}
	return nil
}

func textFormatter(disableColors bool) *prefixed.TextFormatter {
	formatter := new(prefixed.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	// ANSI color codes are unreadable in files and journald.
	formatter.DisableColors = disableColors
	return formatter
}

var _ = logrus.Hook(&WriterHook{})

// WriterHook is a hook that writes logs of specified LogLevels to specified Writer.
type WriterHook struct {
	LogLevels []logrus.Level
	Formatter logrus.Formatter
	Writer    io.Writer
	lock      sync.Mutex
}

// Fire formats the entry with the hook's own formatter and writes it out.
func (hook *WriterHook) Fire(entry *logrus.Entry) error {
	line, err := hook.Formatter.Format(entry)
	if err != nil {
		return err
	}
	hook.lock.Lock()
	defer hook.lock.Unlock()
	_, err = hook.Writer.Write(line)
	return err
}

// Levels defines on which log levels this hook would trigger.
func (hook *WriterHook) Levels() []logrus.Level {
	return hook.LogLevels
}

// ConfigurePersistentLogging adds a log-to-file writer hook to the logrus logger. The writer hook appends new
// logs to the specified log file.
func ConfigurePersistentLogging(logFileName, logFileFormatName string) (*WriterHook, error) {
	var formatter logrus.Formatter
	switch logFileFormatName {
	case "text":
		formatter = textFormatter(true)
	case "fluentd":
		formatter = joonix.NewFormatter()
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log file format %v", logFileFormatName)
	}

	logrus.WithField("logFileName", logFileName).Info("Logs will be made persistent")
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304
	if err != nil {
		return nil, err
	}

	hook := &WriterHook{
		LogLevels: logrus.AllLevels,
		Formatter: formatter,
		Writer:    f,
	}
	logrus.AddHook(hook)
	logrus.Info("File logger initialized")
	return hook, nil
}
