package main

import (
	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the built-in sample holon descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open()
			if err != nil {
				return err
			}
			stored, err := service.SeedSamples(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]listRow, len(stored))
			for i, s := range stored {
				rows[i] = holonRow(s)
			}
			return renderTable(cmd.OutOrStdout(), rows)
		},
		DisableAutoGenTag: true,
	}
}
