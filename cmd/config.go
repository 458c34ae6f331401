package cmd

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/runtime/logging"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "cmd")

// ConfigureBeaconChain selects the chain configuration: the minimal preset
// when requested, then any chain config file on top of it.
func ConfigureBeaconChain(cliCtx *cli.Context) error {
	var base *params.BeaconChainConfig
	if cliCtx.Bool(MinimalConfigFlag.Name) {
		log.Warn("Using minimal config")
		base = params.MinimalSpecConfig()
		params.OverrideBeaconConfig(base.Copy())
	}
	if cliCtx.IsSet(ChainConfigFileFlag.Name) {
		chainConfigFileName := cliCtx.String(ChainConfigFileFlag.Name)
		if err := params.LoadChainConfigFile(chainConfigFileName, base); err != nil {
			return errors.Wrapf(err, "could not load chain config file %s", chainConfigFileName)
		}
	}
	return nil
}

// ConfigureLogging applies the verbosity, format and log file flags.
func ConfigureLogging(cliCtx *cli.Context) error {
	level, err := logrus.ParseLevel(cliCtx.String(VerbosityFlag.Name))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	logFileName := cliCtx.String(LogFileName.Name)
	format := cliCtx.String(LogFormat.Name)
	// If persistent log files are written - we disable the log messages coloring because
	// the colors are ANSI codes and seen as gibberish in the log files.
	if err := logging.SetFormatter(format, logFileName != ""); err != nil {
		return err
	}
	if logFileName != "" {
		if format == "journald" {
			format = "text"
		}
		if _, err := logging.ConfigurePersistentLogging(logFileName, format); err != nil {
			log.WithError(err).Error("Failed to configuring logging to disk.")
		}
	}
	return nil
}
