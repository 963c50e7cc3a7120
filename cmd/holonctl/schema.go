package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "schema {HolonDescriptor|PropertyDescriptor|TypeHeader}",
		Short:     "Print the JSON Schema of an entity kind",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := outputFlag(cmd, "json", "yaml")
			if err != nil {
				return err
			}
			raw, err := descriptor.JSONSchemaBytes(descriptor.EntityKind(args[0]))
			if err != nil {
				return err
			}

			var data []byte
			switch output {
			case "yaml":
				data, err = yaml.JSONToYAML(raw)
			default:
				var buf bytes.Buffer
				err = json.Indent(&buf, raw, "", "  ")
				buf.WriteByte('\n')
				data = buf.Bytes()
			}
			if err != nil {
				return fmt.Errorf("encoding schema as %q failed: %w", output, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagOutput, "o", "json", "output format: json or yaml")
	return cmd
}

func kindNames() []string {
	kinds := descriptor.AllEntityKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// outputFlag returns the --output value, refusing anything outside allowed
func outputFlag(cmd *cobra.Command, allowed ...string) (string, error) {
	output, err := cmd.Flags().GetString(FlagOutput)
	if err != nil {
		return "", fmt.Errorf("getting output flag failed: %w", err)
	}
	for _, a := range allowed {
		if output == a {
			return output, nil
		}
	}
	return "", fmt.Errorf("unknown output format: %q", output)
}
