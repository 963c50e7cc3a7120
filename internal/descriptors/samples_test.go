package descriptors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

func TestDeriveTypeName(t *testing.T) {
	tests := []struct {
		prefix, suffix string
		baseType       descriptor.BaseType
		want           string
	}{
		{"", "", descriptor.BaseTypeHolon, "Holon_Type"},
		{"", "_with_no_properties", descriptor.BaseTypeHolon, "Holon_Type__with_no_properties"},
		{"simple", "", descriptor.BaseTypeBoolean, "simple_Boolean_Type"},
		{"simple_", "", descriptor.BaseTypeString, "simple__String_Type"},
		{"Simple_", "_with_scalar_properties", descriptor.BaseTypeComposite, "Simple__Composite_Type__with_scalar_properties"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveTypeName(tt.prefix, tt.baseType, tt.suffix))
	}
}

func TestSampleHolonDescriptors(t *testing.T) {
	samples := SampleHolonDescriptors()
	require.Len(t, samples, 4)

	names := make([]string, len(samples))
	for i, s := range samples {
		names[i] = s.Header.TypeName
	}
	assert.Equal(t, []string{
		"Holon_Type__with_no_properties",
		"Holon_Type__with_single_boolean_property",
		"Holon_Type__with_scalar_properties",
		"Holon_Type__with_composite_properties",
	}, names)

	assert.Empty(t, samples[0].Properties)
	assert.Equal(t, []string{"a_boolean_property"}, samples[1].Properties.Names())
	assert.Len(t, samples[2].Properties, 10)

	composite, ok := samples[3].Properties["a_composite_property"].Descriptor.Details.(descriptor.CompositeDescriptor)
	require.True(t, ok)
	assert.Equal(t, samples[2].Properties, composite.Properties)
}

func TestSampleHolonDescriptors_AreValid(t *testing.T) {
	strict := []descriptor.Option{
		descriptor.WithDescriptionPolicy(descriptor.DescriptionRequired),
		descriptor.WithStrictBaseTypes(),
	}
	for _, s := range SampleHolonDescriptors() {
		t.Run(s.Header.TypeName, func(t *testing.T) {
			assert.NoError(t, descriptor.ValidateHolonDescriptor(s, strict...))

			encoded, err := descriptor.Encode(s)
			require.NoError(t, err)
			decoded, err := descriptor.Decode[descriptor.HolonDescriptor](encoded)
			require.NoError(t, err)
			assert.Equal(t, s, decoded)
		})
	}
}

func TestSampleIntegerBoundsMatchFormats(t *testing.T) {
	scalar := SampleHolonDescriptors()[2]
	for _, name := range scalar.Properties.Names() {
		integer, ok := scalar.Properties[name].Descriptor.Details.(descriptor.IntegerDescriptor)
		if !ok {
			continue
		}
		lo, hi, ok := integer.Format.Range()
		require.True(t, ok)
		assert.Equal(t, lo, integer.MinValue, name)
		assert.Equal(t, hi, integer.MaxValue, name)
	}
}
