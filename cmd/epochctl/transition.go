package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/transition"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db/kv"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	state_native "github.com/prysmaticlabs/epoch-engine/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/epoch-engine/cmd/flags"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

const forkAuto = "auto"

var transitionFlags = struct {
	StatePath  string
	Fork       string
	Slot       uint64
	DataDir    string
	OutputPath string
	Quiet      bool
}{}

var transitionCmd = &cli.Command{
	Name:  "transition",
	Usage: "advance an SSZ state snapshot through empty slots up to a target slot",
	Action: func(cliCtx *cli.Context) error {
		if err := transitionAction(cliCtx.Context, cliCtx.App.Writer); err != nil {
			return errors.Wrap(err, "could not process transition")
		}
		return nil
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "state",
			Usage:       "path to the SSZ encoded pre-state",
			Destination: &transitionFlags.StatePath,
			Required:    true,
		},
		flags.EnumValue{
			Name:        "fork",
			Usage:       "fork of the pre-state, auto picks it from the slot and the altair fork epoch",
			Destination: &transitionFlags.Fork,
			Enum:        []string{forkAuto, version.String(version.Phase0), version.String(version.Altair)},
			Value:       forkAuto,
		}.GenericFlag(),
		&cli.Uint64Flag{
			Name:        "slot",
			Usage:       "target slot",
			Destination: &transitionFlags.Slot,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "datadir",
			Usage:       "archive every post-epoch state into the state archive in this directory",
			Destination: &transitionFlags.DataDir,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "write the SSZ encoded post-state to this path",
			Destination: &transitionFlags.OutputPath,
		},
		&cli.BoolFlag{
			Name:        "quiet",
			Usage:       "do not render a progress bar",
			Destination: &transitionFlags.Quiet,
		},
	},
}

func transitionAction(ctx context.Context, w io.Writer) error {
	st, err := loadState(transitionFlags.StatePath, transitionFlags.Fork)
	if err != nil {
		return err
	}
	target := primitives.Slot(transitionFlags.Slot)
	if target <= st.Slot() {
		return errors.Errorf("target slot %d is not after the state slot %d", target, st.Slot())
	}

	var opts []transition.EngineOption
	if transitionFlags.DataDir != "" {
		store, err := kv.NewKVStore(ctx, transitionFlags.DataDir)
		if err != nil {
			return errors.Wrap(err, "could not open state archive")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Error("Could not close state archive")
			}
		}()
		opts = append(opts, transition.WithStateSink(store))
	}
	engine, err := transition.NewEngine(opts...)
	if err != nil {
		return err
	}

	post, summaries, err := advanceWithProgress(ctx, engine, st, target, w)
	if err != nil {
		return err
	}
	renderSummaries(w, summaries)

	root, err := post.HashTreeRoot(ctx)
	if err != nil {
		return errors.Wrap(err, "could not compute post-state root")
	}
	fmt.Fprintf(w, "Post-state at slot %d (%s), root %#x\n", post.Slot(), version.String(post.Version()), root)

	if transitionFlags.OutputPath != "" {
		enc, err := post.MarshalSSZ()
		if err != nil {
			return errors.Wrap(err, "could not encode post-state")
		}
		if err := os.WriteFile(transitionFlags.OutputPath, enc, 0600); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s to %s\n", humanize.Bytes(uint64(len(enc))), transitionFlags.OutputPath)
	}
	return nil
}

func loadState(path, fork string) (state.BeaconState, error) {
	enc, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read state file")
	}
	if fork == forkAuto || fork == "" {
		return state_native.InitializeFromSSZBytes(enc)
	}
	v, ok := version.FromString(fork)
	if !ok {
		return nil, errors.Errorf("unknown fork %s", fork)
	}
	return state_native.InitializeFromSSZBytesVersion(enc, v)
}

// advanceWithProgress advances one epoch boundary at a time so progress can be reported.
func advanceWithProgress(
	ctx context.Context,
	engine *transition.Engine,
	st state.BeaconState,
	target primitives.Slot,
	w io.Writer,
) (state.BeaconState, []*transition.EpochSummary, error) {
	steps := uint64(slots.ToEpoch(target-1)-slots.ToEpoch(st.Slot())) + 1
	var bar *progressbar.ProgressBar
	if !transitionFlags.Quiet {
		bar = progressbar.NewOptions(
			int(steps),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionSetDescription("Processing epochs"),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}

	var all []*transition.EpochSummary
	for st.Slot() < target {
		next, err := slots.EpochStart(slots.ToEpoch(st.Slot()) + 1)
		if err != nil {
			return nil, nil, err
		}
		if next > target {
			next = target
		}
		post, summaries, err := engine.Advance(ctx, st, next)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, summaries...)
		st = post
		if bar != nil {
			if err := bar.Add(1); err != nil {
				return nil, nil, err
			}
		}
	}
	if bar != nil {
		if err := bar.Finish(); err != nil {
			return nil, nil, err
		}
	}
	return st, all, nil
}

func renderSummaries(w io.Writer, summaries []*transition.EpochSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No epoch boundary crossed")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Epoch", "Eligible", "Rewards (Gwei)", "Penalties (Gwei)"})
	for _, s := range summaries {
		tw.AppendRow(table.Row{
			s.Epoch,
			humanize.Comma(int64(s.Rewards.Eligible)),
			humanize.Comma(int64(s.Rewards.Rewards)),
			humanize.Comma(int64(s.Rewards.Penalties)),
		})
	}
	tw.Render()
}
