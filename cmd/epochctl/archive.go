package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
	"github.com/urfave/cli/v2"
)

var archiveFlags = struct {
	DataDir    string
	Slot       uint64
	Root       string
	OutputPath string
	BackupDir  string
}{}

var archiveDataDirFlag = &cli.StringFlag{
	Name:        "datadir",
	Usage:       "directory holding the state archive",
	Destination: &archiveFlags.DataDir,
	Required:    true,
}

var archiveCmd = &cli.Command{
	Name:  "archive",
	Usage: "inspect the state archive",
	Subcommands: []*cli.Command{
		{
			Name:  "root-index",
			Usage: "list the archived state roots and their slots",
			Flags: []cli.Flag{archiveDataDirFlag},
			Action: func(cliCtx *cli.Context) error {
				return withArchive(cliCtx.Context, func(d db.ReadOnlyDatabase) error {
					return rootIndexAction(cliCtx.Context, d, cliCtx.App.Writer)
				})
			},
		},
		{
			Name:  "state",
			Usage: "print an archived state by slot or by root",
			Flags: []cli.Flag{
				archiveDataDirFlag,
				&cli.Uint64Flag{
					Name:        "slot",
					Usage:       "slot of the archived state",
					Destination: &archiveFlags.Slot,
				},
				&cli.StringFlag{
					Name:        "root",
					Usage:       "0x prefixed state root of the archived state",
					Destination: &archiveFlags.Root,
				},
				&cli.StringFlag{
					Name:        "output",
					Usage:       "write the SSZ encoded state to this path",
					Destination: &archiveFlags.OutputPath,
				},
			},
			Action: func(cliCtx *cli.Context) error {
				if cliCtx.IsSet("slot") == (archiveFlags.Root != "") {
					return errors.New("exactly one of --slot or --root must be set")
				}
				return withArchive(cliCtx.Context, func(d db.ReadOnlyDatabase) error {
					return archivedStateAction(cliCtx.Context, d, cliCtx.App.Writer, cliCtx.IsSet("slot"))
				})
			},
		},
		{
			Name:  "backup",
			Usage: "write a copy of the state archive to a backup directory",
			Flags: []cli.Flag{
				archiveDataDirFlag,
				&cli.StringFlag{
					Name:        "output",
					Usage:       "backup directory, defaults to the backups directory next to the archive",
					Destination: &archiveFlags.BackupDir,
				},
			},
			Action: func(cliCtx *cli.Context) error {
				d, err := db.NewDB(cliCtx.Context, archiveFlags.DataDir)
				if err != nil {
					return errors.Wrap(err, "could not open state archive")
				}
				defer closeDB(d)
				path, err := d.Backup(cliCtx.Context, archiveFlags.BackupDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cliCtx.App.Writer, "Backup written to %s\n", path)
				return nil
			},
		},
	},
}

func withArchive(ctx context.Context, f func(db.ReadOnlyDatabase) error) error {
	d, err := db.NewDB(ctx, archiveFlags.DataDir)
	if err != nil {
		return errors.Wrap(err, "could not open state archive")
	}
	defer closeDB(d)
	return f(d)
}

func closeDB(d db.Database) {
	if err := d.Close(); err != nil {
		log.WithError(err).Error("Could not close state archive")
	}
}

func rootIndexAction(ctx context.Context, d db.ReadOnlyDatabase, w io.Writer) error {
	entries, err := d.RootIndexEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "The state archive is empty")
		return nil
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Root", "Slot"})
	for _, e := range entries {
		tw.AppendRow(table.Row{fmt.Sprintf("%#x", e.Root), e.Slot})
	}
	tw.AppendFooter(table.Row{"Total", len(entries)})
	tw.Render()
	return nil
}

func archivedStateAction(ctx context.Context, d db.ReadOnlyDatabase, w io.Writer, bySlot bool) error {
	var (
		st  state.BeaconState
		err error
	)
	if bySlot {
		st, err = d.ArchivedState(ctx, primitives.Slot(archiveFlags.Slot))
	} else {
		root, perr := parseRoot(archiveFlags.Root)
		if perr != nil {
			return perr
		}
		st, err = d.ArchivedStateByRoot(ctx, root)
	}
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("no archived state found")
	}

	root, err := st.HashTreeRoot(ctx)
	if err != nil {
		return errors.Wrap(err, "could not compute state root")
	}
	var total uint64
	for _, b := range st.Balances() {
		total += b
	}
	fmt.Fprintf(w, "Slot:       %d\n", st.Slot())
	fmt.Fprintf(w, "Fork:       %s\n", version.String(st.Version()))
	fmt.Fprintf(w, "Root:       %#x\n", root)
	fmt.Fprintf(w, "Validators: %s\n", humanize.Comma(int64(st.NumValidators())))
	fmt.Fprintf(w, "Balance:    %s Gwei\n", humanize.Comma(int64(total)))

	if archiveFlags.OutputPath != "" {
		enc, err := st.MarshalSSZ()
		if err != nil {
			return errors.Wrap(err, "could not encode state")
		}
		if err := os.WriteFile(archiveFlags.OutputPath, enc, 0600); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s to %s\n", humanize.Bytes(uint64(len(enc))), archiveFlags.OutputPath)
	}
	return nil
}
