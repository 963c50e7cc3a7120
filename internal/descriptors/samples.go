package descriptors

import (
	"strings"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

// deriveTypeName joins prefix, "<BaseType>_Type" and suffix with
// underscores, skipping empty parts
func deriveTypeName(prefix string, baseType descriptor.BaseType, suffix string) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, baseType.String()+"_Type")
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "_")
}

func sampleUsage(p descriptor.PropertyDescriptor) descriptor.PropertyDescriptorUsage {
	return descriptor.NewUsage(p.Header.Description, p)
}

// sampleScalarProperties holds one property of each scalar kind, with every
// integer format bounded by its own representable range
func sampleScalarProperties() descriptor.PropertyDescriptorMap {
	props := descriptor.PropertyDescriptorMap{}

	props = props.Upsert("a_boolean_property", sampleUsage(descriptor.NewBooleanDescriptor(
		deriveTypeName("simple", descriptor.BaseTypeBoolean, ""),
		"Simple Boolean Property Type description",
		true,
		false,
	)))

	props = props.Upsert("a_string_property", sampleUsage(descriptor.NewStringDescriptor(
		deriveTypeName("simple_", descriptor.BaseTypeString, ""),
		"Simple String Property Type description",
		true,
		0,
		2048,
	)))

	formats := []struct {
		property string
		label    string
		format   descriptor.IntegerFormat
	}{
		{"an_I8_property", "I8", descriptor.FormatI8},
		{"an_I16_property", "I16", descriptor.FormatI16},
		{"an_I32_property", "I32", descriptor.FormatI32},
		{"an_I64_property", "I64", descriptor.FormatI64},
		{"a_U8_property", "U8", descriptor.FormatU8},
		{"a_U16_property", "U16", descriptor.FormatU16},
		{"a_U32_property", "U32", descriptor.FormatU32},
		{"a_U64_property", "U64", descriptor.FormatU64},
	}
	for _, f := range formats {
		lo, hi, _ := f.format.Range()
		props = props.Upsert(f.property, sampleUsage(descriptor.NewIntegerDescriptor(
			deriveTypeName("simple_"+f.label, descriptor.BaseTypeInteger, ""),
			"Simple Integer ("+f.label+") Property Type description",
			true,
			f.format,
			lo,
			hi,
		)))
	}

	return props
}

// SampleHolonDescriptors returns a small data set running from a holon with
// no properties up to one with a composite property. Every value passes
// ValidateHolonDescriptor under the default rules.
func SampleHolonDescriptors() []descriptor.HolonDescriptor {
	noProperties := descriptor.NewHolonDescriptor(
		deriveTypeName("", descriptor.BaseTypeHolon, "_with_no_properties"),
		"A simple holon type that has no properties.",
		false,
	)

	singleBoolean := descriptor.NewHolonDescriptor(
		deriveTypeName("", descriptor.BaseTypeHolon, "_with_single_boolean_property"),
		"A simple holon type that has a single boolean property",
		false,
	).WithProperty("a_boolean_property", sampleUsage(descriptor.NewBooleanDescriptor(
		deriveTypeName("simple", descriptor.BaseTypeBoolean, ""),
		"Simple Boolean Property Type description",
		true,
		false,
	)))

	scalar := descriptor.NewHolonDescriptor(
		deriveTypeName("", descriptor.BaseTypeHolon, "_with_scalar_properties"),
		"A holon type that has a single property of each scalar property type.",
		false,
	)
	scalar.Properties = sampleScalarProperties()

	composite := descriptor.NewHolonDescriptor(
		deriveTypeName("", descriptor.BaseTypeHolon, "_with_composite_properties"),
		"A holon type that has a single property of a composite property type.",
		false,
	).WithProperty("a_composite_property", sampleUsage(descriptor.NewCompositeDescriptor(
		deriveTypeName("Simple_", descriptor.BaseTypeComposite, "_with_scalar_properties"),
		"Simple Composite Property Type description",
		true,
		sampleScalarProperties(),
	)))

	return []descriptor.HolonDescriptor{noProperties, singleBoolean, scalar, composite}
}
