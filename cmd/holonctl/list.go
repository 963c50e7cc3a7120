package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/holon-descriptors/internal/descriptors"
	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the latest version of every stored entity",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := cmd.Flags().GetString(FlagKind)
			if err != nil {
				return fmt.Errorf("getting kind flag failed: %w", err)
			}
			service, err := a.open()
			if err != nil {
				return err
			}

			kinds := descriptor.AllEntityKinds()
			if kind != "" {
				if !descriptor.EntityKind(kind).IsValid() {
					return fmt.Errorf("unknown entity kind %q", kind)
				}
				kinds = []descriptor.EntityKind{descriptor.EntityKind(kind)}
			}

			var rows []listRow
			for _, k := range kinds {
				r, err := listKind(cmd, service, k)
				if err != nil {
					return err
				}
				rows = append(rows, r...)
			}
			return renderTable(cmd.OutOrStdout(), rows)
		},
		DisableAutoGenTag: true,
	}

	cmd.Flags().String(FlagKind, "", "only list this entity kind")
	return cmd
}

func listKind(cmd *cobra.Command, service *descriptors.Service, kind descriptor.EntityKind) ([]listRow, error) {
	ctx := cmd.Context()
	var rows []listRow
	switch kind {
	case descriptor.KindHolonDescriptor:
		items, err := service.GetAllHolonDescriptors(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range items {
			rows = append(rows, holonRow(s))
		}
	case descriptor.KindPropertyDescriptor:
		items, err := service.GetAllPropertyDescriptors(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range items {
			rows = append(rows, listRow{
				Handle:     s.Original.String(),
				Head:       s.Handle.String(),
				Kind:       kind,
				TypeName:   s.Value.Header.TypeName,
				BaseType:   s.Value.Header.BaseType.String(),
				Version:    s.Value.Header.Version.String(),
				Properties: "-",
			})
		}
	case descriptor.KindTypeHeader:
		items, err := service.GetAllTypeHeaders(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range items {
			rows = append(rows, listRow{
				Handle:     s.Original.String(),
				Head:       s.Handle.String(),
				Kind:       kind,
				TypeName:   s.Value.TypeName,
				BaseType:   s.Value.BaseType.String(),
				Version:    s.Value.Version.String(),
				Properties: "-",
			})
		}
	}
	return rows, nil
}
