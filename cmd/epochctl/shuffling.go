package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
	"github.com/urfave/cli/v2"
)

// maxMembersShown caps the committee members printed per row.
const maxMembersShown = 16

var shufflingFlags = struct {
	Validators uint64
	Seed       string
	Epoch      uint64
	Full       bool
}{}

var shufflingCmd = &cli.Command{
	Name:  "shuffling",
	Usage: "print the committees of an epoch for a registry of active validators",
	Action: func(cliCtx *cli.Context) error {
		if err := shufflingAction(cliCtx.App.Writer); err != nil {
			return errors.Wrap(err, "could not compute shuffling")
		}
		return nil
	},
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:        "validators",
			Usage:       "number of active validators, indexed from zero",
			Destination: &shufflingFlags.Validators,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "seed",
			Usage:       "0x prefixed 32 byte shuffling seed",
			Destination: &shufflingFlags.Seed,
			Value:       hexutil.Encode(make([]byte, 32)),
		},
		&cli.Uint64Flag{
			Name:        "epoch",
			Usage:       "epoch of the shuffling, used to label slots",
			Destination: &shufflingFlags.Epoch,
		},
		&cli.BoolFlag{
			Name:        "full",
			Usage:       "print every committee member",
			Destination: &shufflingFlags.Full,
		},
	},
}

func shufflingAction(w io.Writer) error {
	seed, err := parseRoot(shufflingFlags.Seed)
	if err != nil {
		return errors.Wrap(err, "invalid seed")
	}
	if shufflingFlags.Validators == 0 {
		return errors.New("at least one validator is required")
	}
	indices := make([]primitives.ValidatorIndex, shufflingFlags.Validators)
	for i := range indices {
		indices[i] = primitives.ValidatorIndex(i)
	}
	s, err := helpers.ComputeShuffling(primitives.Epoch(shufflingFlags.Epoch), seed, indices)
	if err != nil {
		return err
	}
	start, err := slots.EpochStart(s.Epoch)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Epoch %d, %s active validators, %d committees per slot\n",
		s.Epoch, humanize.Comma(int64(len(s.ActiveIndices))), s.CommitteesPerSlot)
	renderShuffling(w, s, start, shufflingFlags.Full)
	return nil
}

func renderShuffling(w io.Writer, s *cache.Shuffling, start primitives.Slot, full bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Slot", "Committee", "Size", "Members"})
	for i, committee := range s.Committees {
		slot := start + primitives.Slot(uint64(i)/s.CommitteesPerSlot)
		index := uint64(i) % s.CommitteesPerSlot
		tw.AppendRow(table.Row{slot, index, len(committee), formatMembers(committee, full)})
	}
	tw.Render()
}

func formatMembers(committee []primitives.ValidatorIndex, full bool) string {
	shown := committee
	if !full && len(shown) > maxMembersShown {
		shown = shown[:maxMembersShown]
	}
	parts := make([]string, len(shown))
	for i, idx := range shown {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	s := strings.Join(parts, " ")
	if len(shown) < len(committee) {
		s += fmt.Sprintf(" ... (+%d)", len(committee)-len(shown))
	}
	return s
}

func parseRoot(s string) ([32]byte, error) {
	var root [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return root, err
	}
	if len(b) != len(root) {
		return root, errors.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(root[:], b)
	return root, nil
}
