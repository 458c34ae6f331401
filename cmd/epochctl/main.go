// Package main is epochctl, a command line tool to compute shufflings, advance
// state snapshots through epoch transitions, inspect the state archive and run
// the epoch engine services.
package main

import (
	"os"

	"github.com/prysmaticlabs/epoch-engine/cmd"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	_ "github.com/prysmaticlabs/epoch-engine/runtime/maxprocs"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	cmd.VerbosityFlag,
	cmd.LogFormat,
	cmd.LogFileName,
	cmd.ConfigFileFlag,
	cmd.ChainConfigFileFlag,
	cmd.MinimalConfigFlag,
	cmd.EnableTracingFlag,
	cmd.TracingProcessNameFlag,
	cmd.TracingEndpointFlag,
	cmd.TraceSampleFractionFlag,
}

func init() {
	appFlags = cmd.WrapFlags(appFlags)
}

func newApp() *cli.App {
	var stopTracing func()
	app := &cli.App{
		Name:    "epochctl",
		Usage:   "compute shufflings, process epoch transitions and inspect the state archive",
		Version: version.Version(),
		Flags:   appFlags,
		Commands: []*cli.Command{
			shufflingCmd,
			transitionCmd,
			archiveCmd,
			runCmd,
		},
		Before: func(cliCtx *cli.Context) error {
			if err := cmd.LoadFlagsFromConfig(cliCtx, cliCtx.App.Flags); err != nil {
				return err
			}
			if err := cmd.ConfigureLogging(cliCtx); err != nil {
				return err
			}
			if err := cmd.ConfigureBeaconChain(cliCtx); err != nil {
				return err
			}
			done, err := tracing.Setup(
				"epochctl",
				cliCtx.String(cmd.TracingProcessNameFlag.Name),
				cliCtx.String(cmd.TracingEndpointFlag.Name),
				cliCtx.Float64(cmd.TraceSampleFractionFlag.Name),
				cliCtx.Bool(cmd.EnableTracingFlag.Name),
			)
			if err != nil {
				return err
			}
			stopTracing = done
			return nil
		},
		After: func(_ *cli.Context) error {
			if stopTracing != nil {
				stopTracing()
			}
			return nil
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
