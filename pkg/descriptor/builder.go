package descriptor

// Builders stage new descriptor values. They never validate; pass the
// result through the Validate functions before storing it.

// NewTypeHeader creates a header at the default version
func NewTypeHeader(typeName string, baseType BaseType, description string, isDependent bool) TypeHeader {
	return TypeHeader{
		TypeName:    typeName,
		BaseType:    baseType,
		Description: description,
		Version:     DefaultSemanticVersion(),
		IsDependent: isDependent,
	}
}

// WithVersion returns a copy of h at version v
func (h TypeHeader) WithVersion(v SemanticVersion) TypeHeader {
	h.Version = v
	return h
}

// NewHolonDescriptor creates a Holon descriptor with no properties
func NewHolonDescriptor(typeName, description string, isDependent bool) HolonDescriptor {
	return HolonDescriptor{
		Header:     NewTypeHeader(typeName, BaseTypeHolon, description, isDependent),
		Properties: PropertyDescriptorMap{},
	}
}

// WithProperty returns a copy of h with name bound to usage
func (h HolonDescriptor) WithProperty(name string, usage PropertyDescriptorUsage) HolonDescriptor {
	h.Properties = h.Properties.Upsert(name, usage)
	return h
}

// WithoutProperty returns a copy of h without name
func (h HolonDescriptor) WithoutProperty(name string) HolonDescriptor {
	h.Properties = h.Properties.Remove(name)
	return h
}

func newPropertyDescriptor(typeName, description string, baseType BaseType, isDependent bool, details Details) PropertyDescriptor {
	return PropertyDescriptor{
		Header:  NewTypeHeader(typeName, baseType, description, isDependent),
		Details: details,
	}
}

// NewBooleanDescriptor creates a Boolean property descriptor
func NewBooleanDescriptor(typeName, description string, isDependent, isFuzzy bool) PropertyDescriptor {
	return newPropertyDescriptor(typeName, description, BaseTypeBoolean, isDependent,
		BooleanDescriptor{IsFuzzy: isFuzzy})
}

// NewStringDescriptor creates a String property descriptor
func NewStringDescriptor(typeName, description string, isDependent bool, minLength, maxLength uint32) PropertyDescriptor {
	return newPropertyDescriptor(typeName, description, BaseTypeString, isDependent,
		StringDescriptor{MinLength: minLength, MaxLength: maxLength})
}

// NewIntegerDescriptor creates an Integer property descriptor
func NewIntegerDescriptor(typeName, description string, isDependent bool, format IntegerFormat, minValue, maxValue int64) PropertyDescriptor {
	return newPropertyDescriptor(typeName, description, BaseTypeInteger, isDependent,
		IntegerDescriptor{Format: format, MinValue: minValue, MaxValue: maxValue})
}

// NewCompositeDescriptor creates a Composite property descriptor. A nil
// map is replaced by an empty one.
func NewCompositeDescriptor(typeName, description string, isDependent bool, properties PropertyDescriptorMap) PropertyDescriptor {
	if properties == nil {
		properties = PropertyDescriptorMap{}
	}
	return newPropertyDescriptor(typeName, description, BaseTypeComposite, isDependent,
		CompositeDescriptor{Properties: properties})
}

// NewValueCollectionDescriptor creates a collection descriptor over items named by itemType
func NewValueCollectionDescriptor(typeName, description string, isDependent bool, itemType string, minItems, maxItems uint32, uniqueItems, isOrdered bool) PropertyDescriptor {
	return newPropertyDescriptor(typeName, description, BaseTypeCollection, isDependent,
		ValueCollectionDescriptor{
			ContainsItemsOfType: itemType,
			MinItems:            minItems,
			MaxItems:            maxItems,
			UniqueItems:         uniqueItems,
			IsOrdered:           isOrdered,
		})
}

// WithDetails returns a copy of p with different details
func (p PropertyDescriptor) WithDetails(d Details) PropertyDescriptor {
	p.Details = d
	return p
}

// NewUsage binds a dedicated descriptor to a usage note. The label defaults
// to the descriptor's type name.
func NewUsage(description string, descriptor PropertyDescriptor) PropertyDescriptorUsage {
	return PropertyDescriptorUsage{
		Description: description,
		Descriptor:  descriptor,
		Label:       descriptor.Header.TypeName,
	}
}

// WithLabel returns a copy of u with a display label
func (u PropertyDescriptorUsage) WithLabel(label string) PropertyDescriptorUsage {
	u.Label = label
	return u
}

// SharedWith returns a copy of u that references the stored descriptor at handle
func (u PropertyDescriptorUsage) SharedWith(handle string) PropertyDescriptorUsage {
	u.Sharing = DescriptorSharing{Shared: handle}
	return u
}
