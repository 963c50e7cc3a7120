package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"github.com/JamesPrial/holon-descriptors/internal/descriptors"
	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

type listRow struct {
	Handle     string
	Head       string
	Kind       descriptor.EntityKind
	TypeName   string
	BaseType   string
	Version    string
	Properties string
}

func holonRow(s *descriptors.Stored[descriptor.HolonDescriptor]) listRow {
	return listRow{
		Handle:     s.Original.String(),
		Head:       s.Handle.String(),
		Kind:       descriptor.KindHolonDescriptor,
		TypeName:   s.Value.Header.TypeName,
		BaseType:   s.Value.Header.BaseType.String(),
		Version:    s.Value.Header.Version.String(),
		Properties: strconv.Itoa(len(s.Value.Properties)),
	}
}

func renderTable(w io.Writer, rows []listRow) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Handle", "Head", "Kind", "Type Name", "Base Type", "Version", "Properties"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Handle, r.Head, r.Kind, r.TypeName, r.BaseType, r.Version, r.Properties})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, AutoMerge: true},
	})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}

// encodeValue renders v as indented JSON or as YAML
func encodeValue(output string, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding as json failed: %w", err)
	}
	switch output {
	case "json":
		return append(data, '\n'), nil
	case "yaml":
		return yaml.JSONToYAML(data)
	}
	return nil, fmt.Errorf("unknown output format: %q", output)
}
