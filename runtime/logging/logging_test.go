package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

func TestSetFormatter(t *testing.T) {
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	require.NoError(t, SetFormatter("text", true))
	f, ok := logrus.StandardLogger().Formatter.(*prefixed.TextFormatter)
	require.Equal(t, true, ok)
	assert.Equal(t, true, f.DisableColors)
	assert.Equal(t, true, f.FullTimestamp)

	require.NoError(t, SetFormatter("json", false))
	_, ok = logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.Equal(t, true, ok)

	require.NoError(t, SetFormatter("fluentd", false))

	assert.ErrorContains(t, "unknown log format xml", SetFormatter("xml", false))
}

func TestWriterHook(t *testing.T) {
	var buf bytes.Buffer
	hook := &WriterHook{
		LogLevels: []logrus.Level{logrus.WarnLevel},
		Formatter: &logrus.JSONFormatter{},
		Writer:    &buf,
	}
	logger := logrus.New()
	logger.Out = &bytes.Buffer{}
	logger.AddHook(hook)

	logger.WithField("prefix", "epoch").Warn("Slow epoch")
	logger.Info("Not written")

	out := buf.String()
	assert.Equal(t, true, strings.Contains(out, `"msg":"Slow epoch"`), out)
	assert.Equal(t, true, strings.Contains(out, `"prefix":"epoch"`), out)
	assert.Equal(t, false, strings.Contains(out, "Not written"), out)
}

func TestConfigurePersistentLogging(t *testing.T) {
	name := filepath.Join(t.TempDir(), "engine.log")

	_, err := ConfigurePersistentLogging(name, "yaml")
	assert.ErrorContains(t, "unknown log file format", err)

	hook, err := ConfigurePersistentLogging(name, "json")
	require.NoError(t, err)
	defer func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		require.NoError(t, hook.Writer.(*os.File).Close())
	}()

	logrus.Warn("Written to file")
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, true, strings.Contains(string(b), "Written to file"), string(b))
}

func TestConfigurePersistentLogging_Fluentd(t *testing.T) {
	name := filepath.Join(t.TempDir(), "engine.log")

	hook, err := ConfigurePersistentLogging(name, "fluentd")
	require.NoError(t, err)
	defer func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		require.NoError(t, hook.Writer.(*os.File).Close())
	}()

	logrus.WithField("epoch", 3).Warn("Fluentd entry")
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, true, strings.Contains(string(b), "Fluentd entry"), string(b))
	assert.Equal(t, true, strings.HasPrefix(string(b), "{"), string(b))
}
