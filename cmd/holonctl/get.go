package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/holon-descriptors/internal/store"
	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

// getOutput is a stored record with its entry decoded
type getOutput struct {
	Handle    store.Handle          `json:"handle"`
	Original  store.Handle          `json:"original"`
	Previous  store.Handle          `json:"previous,omitempty"`
	Kind      descriptor.EntityKind `json:"kind"`
	EntryHash string                `json:"entry_hash"`
	CreatedAt time.Time             `json:"created_at"`
	Value     any                   `json:"value"`
}

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get {handle}",
		Short: "Print a stored entity, the latest version for a root handle",
		Example: `holonctl get 01HZY8Z5W4G9V8K6J3N2M1P0QR
holonctl get 01HZY8Z5W4G9V8K6J3N2M1P0QR -oyaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := outputFlag(cmd, "json", "yaml")
			if err != nil {
				return err
			}
			handle, err := store.ParseHandle(args[0])
			if err != nil {
				return err
			}
			service, err := a.open()
			if err != nil {
				return err
			}

			rec, err := service.Store().Read(cmd.Context(), handle)
			if err != nil {
				return err
			}
			value, err := descriptor.DecodeKind(rec.Kind, rec.Entry)
			if err != nil {
				return err
			}

			data, err := encodeValue(output, getOutput{
				Handle:    rec.Handle,
				Original:  rec.Original,
				Previous:  rec.Previous,
				Kind:      rec.Kind,
				EntryHash: rec.EntryHash,
				CreatedAt: rec.CreatedAt,
				Value:     value,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagOutput, "o", "json", "output format: json or yaml")
	return cmd
}
