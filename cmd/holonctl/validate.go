package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate {file}",
		Short: "Check a YAML or JSON descriptor file against the validation rules",
		Long: `Check a YAML or JSON descriptor file against the validation rules.

The file holds one entity in its encoded form. Integer bounds are strings,
base types are tagged objects such as {"type": "Holon"}.`,
		Example: `holonctl validate book.yaml
holonctl validate --kind PropertyDescriptor year.json`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := cmd.Flags().GetString(FlagKind)
			if err != nil {
				return fmt.Errorf("getting kind flag failed: %w", err)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading descriptor file failed: %w", err)
			}

			v, err := validateDocument(descriptor.EntityKind(kind), data, a.settings.ValidationOptions()...)
			if err != nil {
				if field := errors.GetField(err); field != "" {
					return fmt.Errorf("%s is invalid at %s: %w", args[0], field, err)
				}
				return fmt.Errorf("%s is invalid: %w", args[0], err)
			}

			hash, err := contentHash(v)
			if err != nil {
				return err
			}
			header := headerOf(v)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q is valid (%s)\n", kind, header.TypeName, hash)
			return nil
		},
	}

	cmd.Flags().String(FlagKind, string(descriptor.KindHolonDescriptor), "entity kind of the file: HolonDescriptor, PropertyDescriptor or TypeHeader")
	return cmd
}

// validateDocument decodes a YAML or JSON document strictly as kind and
// validates it
func validateDocument(kind descriptor.EntityKind, data []byte, opts ...descriptor.Option) (any, error) {
	if !kind.IsValid() {
		return nil, errors.InvalidParams("unknown entity kind %q", string(kind))
	}
	// YAML is a superset of JSON, so both go through the same conversion
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.DecodeFailed(string(kind), err)
	}

	v, err := descriptor.DecodeKind(kind, jsonData)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case descriptor.HolonDescriptor:
		return v, descriptor.ValidateHolonDescriptor(v, opts...)
	case descriptor.PropertyDescriptor:
		return v, descriptor.ValidatePropertyDescriptor(v, opts...)
	case descriptor.TypeHeader:
		return descriptor.ValidateTypeHeader(v, opts...)
	}
	return nil, fmt.Errorf("unsupported entity %T", v)
}

func headerOf(v any) descriptor.TypeHeader {
	switch v := v.(type) {
	case descriptor.HolonDescriptor:
		return v.Header
	case descriptor.PropertyDescriptor:
		return v.Header
	case descriptor.TypeHeader:
		return v
	}
	return descriptor.TypeHeader{}
}

func contentHash(v any) (string, error) {
	switch v := v.(type) {
	case descriptor.HolonDescriptor:
		return descriptor.ContentHash(v)
	case descriptor.PropertyDescriptor:
		return descriptor.ContentHash(v)
	case descriptor.TypeHeader:
		return descriptor.ContentHash(v)
	}
	return "", fmt.Errorf("unsupported entity %T", v)
}
