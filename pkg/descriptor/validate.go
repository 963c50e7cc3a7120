package descriptor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// DescriptionPolicy decides whether TypeHeader.Description may be empty
type DescriptionPolicy int

const (
	DescriptionOptional DescriptionPolicy = iota
	DescriptionRequired
)

func (p DescriptionPolicy) String() string {
	switch p {
	case DescriptionOptional:
		return "optional"
	case DescriptionRequired:
		return "required"
	}
	return fmt.Sprintf("DescriptionPolicy(%d)", int(p))
}

// ParseDescriptionPolicy accepts "optional" or "required", case-insensitive
func ParseDescriptionPolicy(s string) (DescriptionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optional":
		return DescriptionOptional, nil
	case "required":
		return DescriptionRequired, nil
	}
	return DescriptionOptional, fmt.Errorf("invalid description policy: %s", s)
}

type options struct {
	descriptionPolicy DescriptionPolicy
	strictBaseTypes   bool
}

// Option configures validation
type Option func(*options)

// WithDescriptionPolicy selects the description rule applied to every header
func WithDescriptionPolicy(p DescriptionPolicy) Option {
	return func(o *options) {
		o.descriptionPolicy = p
	}
}

// WithStrictBaseTypes requires holon headers to be Holon and property
// headers to match their details variant.
func WithStrictBaseTypes() Option {
	return func(o *options) {
		o.strictBaseTypes = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateTypeHeader checks the header fields and returns the header on
// success, the zero header otherwise
func ValidateTypeHeader(h TypeHeader, opts ...Option) (TypeHeader, error) {
	o := buildOptions(opts)
	if err := validateHeader(h, "", o); err != nil {
		return TypeHeader{}, err
	}
	return h, nil
}

// ValidatePropertyDetails checks the populated variant of d
func ValidatePropertyDetails(d Details, opts ...Option) error {
	o := buildOptions(opts)
	return validateDetails(d, "", o)
}

// ValidatePropertyDescriptor checks the header, then the details
func ValidatePropertyDescriptor(p PropertyDescriptor, opts ...Option) error {
	o := buildOptions(opts)
	return validatePropertyDescriptor(p, "", o)
}

// ValidateHolonDescriptor checks the header and then every property in
// name order, returning the first failure.
func ValidateHolonDescriptor(h HolonDescriptor, opts ...Option) error {
	o := buildOptions(opts)

	if err := validateHeader(h.Header, "", o); err != nil {
		return err
	}
	if o.strictBaseTypes && h.Header.BaseType != BaseTypeHolon {
		return errors.BaseTypeMismatch("base_type", string(BaseTypeHolon), string(h.Header.BaseType))
	}
	return validateProperties(h.Properties, "", o)
}

func validateHeader(h TypeHeader, prefix string, o options) error {
	if strings.TrimSpace(h.TypeName) == "" {
		return errors.EmptyField(prefix + "type_name")
	}
	if err := checkText(prefix+"type_name", h.TypeName); err != nil {
		return err
	}
	if err := checkText(prefix+"description", h.Description); err != nil {
		return err
	}
	if !h.BaseType.IsValid() {
		return errors.UnknownBaseType(prefix+"base_type", string(h.BaseType))
	}
	if o.descriptionPolicy == DescriptionRequired && strings.TrimSpace(h.Description) == "" {
		return errors.EmptyField(prefix + "description")
	}
	return nil
}

func validatePropertyDescriptor(p PropertyDescriptor, prefix string, o options) error {
	if err := validateHeader(p.Header, prefix, o); err != nil {
		return err
	}
	if p.Details == nil {
		return errors.EmptyField(prefix + "details")
	}
	if o.strictBaseTypes {
		if want := p.Details.Kind().BaseType(); p.Header.BaseType != want {
			return errors.BaseTypeMismatch(prefix+"base_type", string(want), string(p.Header.BaseType))
		}
	}
	return validateDetails(p.Details, prefix, o)
}

func validateProperties(m PropertyDescriptorMap, prefix string, o options) error {
	for _, name := range m.Names() {
		path := prefix + "properties." + name + "."
		if strings.TrimSpace(name) == "" {
			return errors.EmptyField(prefix + "properties.<name>")
		}
		if !utf8.ValidString(name) {
			return errors.InvalidUTF8(prefix + "properties.<name>")
		}
		usage := m[name]
		if err := checkText(path+"description", usage.Description); err != nil {
			return err
		}
		if err := checkText(path+"label", usage.Label); err != nil {
			return err
		}
		if usage.Sharing.IsShared() && strings.TrimSpace(usage.Sharing.Shared) == "" {
			return errors.EmptyField(path + "sharing.shared")
		}
		if err := checkText(path+"sharing.shared", usage.Sharing.Shared); err != nil {
			return err
		}
		if err := validatePropertyDescriptor(usage.Descriptor, path, o); err != nil {
			return err
		}
	}
	return nil
}

func validateDetails(d Details, prefix string, o options) error {
	switch v := d.(type) {
	case BooleanDescriptor:
		return nil
	case CompositeDescriptor:
		return validateProperties(v.Properties, prefix, o)
	case IntegerDescriptor:
		return validateInteger(v, prefix)
	case StringDescriptor:
		if v.MinLength > v.MaxLength {
			return errors.RangeInverted(prefix+"min_length", v.MinLength, v.MaxLength)
		}
		return nil
	case ValueCollectionDescriptor:
		if strings.TrimSpace(v.ContainsItemsOfType) == "" {
			return errors.EmptyField(prefix + "contains_items_of_type")
		}
		if err := checkText(prefix+"contains_items_of_type", v.ContainsItemsOfType); err != nil {
			return err
		}
		if v.MinItems > v.MaxItems {
			return errors.RangeInverted(prefix+"min_items", v.MinItems, v.MaxItems)
		}
		return nil
	case nil:
		return errors.EmptyField(prefix + "details")
	default:
		return fmt.Errorf("%sdetails: unsupported type %T", prefix, d)
	}
}

func validateInteger(v IntegerDescriptor, prefix string) error {
	if v.MinValue > v.MaxValue {
		return errors.RangeInverted(prefix+"min_value", v.MinValue, v.MaxValue)
	}

	lo, hi, ok := v.Format.Range()
	if !ok {
		return errors.FormatOverflow(prefix+"format", string(v.Format), v.Format)
	}
	if v.MinValue < lo {
		return errors.FormatOverflow(prefix+"min_value", string(v.Format), v.MinValue)
	}
	if v.MaxValue > hi {
		return errors.FormatOverflow(prefix+"max_value", string(v.Format), v.MaxValue)
	}
	return nil
}

// checkText rejects strings that JSON encoding would rewrite with U+FFFD
func checkText(field, s string) error {
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(field)
	}
	return nil
}
