package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scigolib/snirf"
	"github.com/scigolib/snirf/internal/output"
)

func newKeysCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file>...",
		Short: "List the probe entries of SNIRF files",
		Long: `List the entry names of the nirs/probe group of each file, marking which
ones are fields defined by the SNIRF format.`,
		Example: `  snirf-reconcile keys raw_data.snirf processed.snirf`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var listings output.KeyListings
			for _, f := range args {
				keys, err := snirf.ListProbeKeys(f)
				if err != nil {
					return err
				}
				a.logger.Debug().Str("file", f).Int("keys", len(keys)).Msg("listed probe keys")
				listings.Files = append(listings.Files, output.KeyListing{File: f, Keys: keys})
			}
			return output.Render(cmd.OutOrStdout(), a.format(), listings)
		},
	}
}
