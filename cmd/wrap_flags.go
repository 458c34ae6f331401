package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

// WrapFlags so that they can be loaded from alternative sources.
func WrapFlags(flags []cli.Flag) []cli.Flag {
	wrapped := make([]cli.Flag, 0, len(flags))
	for _, f := range flags {
		switch f := f.(type) {
		case *cli.BoolFlag:
			wrapped = append(wrapped, altsrc.NewBoolFlag(f))
		case *cli.DurationFlag:
			wrapped = append(wrapped, altsrc.NewDurationFlag(f))
		case *cli.GenericFlag:
			wrapped = append(wrapped, altsrc.NewGenericFlag(f))
		case *cli.Float64Flag:
			wrapped = append(wrapped, altsrc.NewFloat64Flag(f))
		case *cli.IntFlag:
			wrapped = append(wrapped, altsrc.NewIntFlag(f))
		case *cli.StringFlag:
			wrapped = append(wrapped, altsrc.NewStringFlag(f))
		case *cli.StringSliceFlag:
			wrapped = append(wrapped, altsrc.NewStringSliceFlag(f))
		case *cli.Uint64Flag:
			wrapped = append(wrapped, altsrc.NewUint64Flag(f))
		default:
			panic(fmt.Sprintf("cannot convert type %T", f))
		}
	}
	return wrapped
}

// LoadFlagsFromConfig sets flags values from config file if ConfigFileFlag is set.
func LoadFlagsFromConfig(cliCtx *cli.Context, flags []cli.Flag) error {
	if cliCtx.IsSet(ConfigFileFlag.Name) {
		if err := altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc(ConfigFileFlag.Name))(cliCtx); err != nil {
			return err
		}
	}
	return nil
}
