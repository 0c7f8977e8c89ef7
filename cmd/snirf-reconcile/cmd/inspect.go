package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scigolib/snirf"
	"github.com/scigolib/snirf/internal/output"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show every group and dataset of an HDF5 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			store, err := snirf.OpenHDF5(args[0])
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			objs, err := store.Objects()
			if err != nil {
				return err
			}
			a.logger.Debug().
				Str("file", args[0]).
				Uint8("superblock", store.SuperblockVersion()).
				Int("objects", len(objs)).
				Msg("walked file")

			inv := output.Inventory{File: args[0], Entries: make([]output.Entry, 0, len(objs))}
			for _, o := range objs {
				e := output.Entry{Path: o.Path, Type: "group"}
				if !o.Group {
					e.Type = o.Class
					if e.Type == "" {
						e.Type = "dataset"
					}
					e.Shape = o.Shape
				}
				inv.Entries = append(inv.Entries, e)
			}
			return output.Render(cmd.OutOrStdout(), a.format(), inv)
		},
	}
}
