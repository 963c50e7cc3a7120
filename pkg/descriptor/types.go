// Package descriptor defines the holon descriptor vocabulary: base types,
// type headers, property descriptor variants and holon descriptors, together
// with their validation rules and canonical wire encoding.
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// BaseType is the closed set of kinds a descriptor can describe
type BaseType string

const (
	BaseTypeHolon        BaseType = "Holon"
	BaseTypeCollection   BaseType = "Collection"
	BaseTypeComposite    BaseType = "Composite"
	BaseTypeRelationship BaseType = "Relationship"
	BaseTypeBoolean      BaseType = "Boolean"
	BaseTypeInteger      BaseType = "Integer"
	BaseTypeString       BaseType = "String"
	BaseTypeEnum         BaseType = "Enum"
)

// AllBaseTypes returns every base type in declaration order
func AllBaseTypes() []BaseType {
	return []BaseType{
		BaseTypeHolon,
		BaseTypeCollection,
		BaseTypeComposite,
		BaseTypeRelationship,
		BaseTypeBoolean,
		BaseTypeInteger,
		BaseTypeString,
		BaseTypeEnum,
	}
}

// IsValid reports whether b is one of the known base types
func (b BaseType) IsValid() bool {
	switch b {
	case BaseTypeHolon, BaseTypeCollection, BaseTypeComposite, BaseTypeRelationship,
		BaseTypeBoolean, BaseTypeInteger, BaseTypeString, BaseTypeEnum:
		return true
	}
	return false
}

func (b BaseType) String() string {
	return string(b)
}

// ParseBaseType converts a name into a BaseType
func ParseBaseType(name string) (BaseType, error) {
	b := BaseType(name)
	if !b.IsValid() {
		return "", errors.UnknownBaseType("base_type", name)
	}
	return b, nil
}

type baseTypeWire struct {
	Type string `json:"type"`
}

// MarshalJSON writes the tagged form {"type":"Holon"}
func (b BaseType) MarshalJSON() ([]byte, error) {
	if !b.IsValid() {
		return nil, errors.UnknownBaseType("base_type", string(b))
	}
	return json.Marshal(baseTypeWire{Type: string(b)})
}

// UnmarshalJSON reads the tagged form and rejects unknown names
func (b *BaseType) UnmarshalJSON(data []byte) error {
	var wire baseTypeWire
	if err := strictUnmarshal(data, &wire); err != nil {
		return err
	}
	parsed, err := ParseBaseType(wire.Type)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// TypeHeader is the metadata shared by every descriptor
type TypeHeader struct {
	TypeName    string          `json:"type_name"`
	BaseType    BaseType        `json:"base_type"`
	Description string          `json:"description"`
	Version     SemanticVersion `json:"version"`
	IsDependent bool            `json:"is_dependent"`
}

// IntegerFormat is the fixed-width representation of an integer property
type IntegerFormat string

const (
	FormatI8  IntegerFormat = "i8"
	FormatI16 IntegerFormat = "i16"
	FormatI32 IntegerFormat = "i32"
	FormatI64 IntegerFormat = "i64"
	FormatU8  IntegerFormat = "u8"
	FormatU16 IntegerFormat = "u16"
	FormatU32 IntegerFormat = "u32"
	FormatU64 IntegerFormat = "u64"
)

// Range returns the representable bounds of the format. Bounds are int64,
// so u64 is clipped to math.MaxInt64. ok is false for unknown formats.
func (f IntegerFormat) Range() (min, max int64, ok bool) {
	switch f {
	case FormatI8:
		return math.MinInt8, math.MaxInt8, true
	case FormatI16:
		return math.MinInt16, math.MaxInt16, true
	case FormatI32:
		return math.MinInt32, math.MaxInt32, true
	case FormatI64:
		return math.MinInt64, math.MaxInt64, true
	case FormatU8:
		return 0, math.MaxUint8, true
	case FormatU16:
		return 0, math.MaxUint16, true
	case FormatU32:
		return 0, math.MaxUint32, true
	case FormatU64:
		return 0, math.MaxInt64, true
	}
	return 0, 0, false
}

// DetailsKind names the populated variant of a Details union
type DetailsKind string

const (
	DetailsBoolean         DetailsKind = "boolean"
	DetailsComposite       DetailsKind = "composite"
	DetailsInteger         DetailsKind = "integer"
	DetailsString          DetailsKind = "string"
	DetailsValueCollection DetailsKind = "valueCollection"
)

// BaseType returns the header base type a descriptor with this kind should carry
func (k DetailsKind) BaseType() BaseType {
	switch k {
	case DetailsBoolean:
		return BaseTypeBoolean
	case DetailsComposite:
		return BaseTypeComposite
	case DetailsInteger:
		return BaseTypeInteger
	case DetailsString:
		return BaseTypeString
	case DetailsValueCollection:
		return BaseTypeCollection
	}
	panic(fmt.Sprintf("descriptor: unhandled details kind %q", string(k)))
}

// Details is the closed union of property descriptor variants. Only the
// five descriptor types in this package implement it.
type Details interface {
	Kind() DetailsKind
	isDetails()
}

// BooleanDescriptor describes a strictly binary or fuzzy boolean property
type BooleanDescriptor struct {
	IsFuzzy bool `json:"isFuzzy"`
}

// CompositeDescriptor describes a property built from named nested properties
type CompositeDescriptor struct {
	Properties PropertyDescriptorMap `json:"properties"`
}

// IntegerDescriptor bounds are carried as JSON strings so canonical
// encoding keeps full 64-bit precision.
type IntegerDescriptor struct {
	Format   IntegerFormat `json:"format" jsonschema:"enum=i8,enum=i16,enum=i32,enum=i64,enum=u8,enum=u16,enum=u32,enum=u64"`
	MinValue int64         `json:"minValue,string" jsonschema:"type=string,pattern=^-?[0-9]+$"`
	MaxValue int64         `json:"maxValue,string" jsonschema:"type=string,pattern=^-?[0-9]+$"`
}

// StringDescriptor bounds the length of a string property
type StringDescriptor struct {
	MinLength uint32 `json:"minLength"`
	MaxLength uint32 `json:"maxLength"`
}

// ValueCollectionDescriptor describes a collection of values of a named type.
// ContainsItemsOfType is an unresolved type name.
type ValueCollectionDescriptor struct {
	ContainsItemsOfType string `json:"containsItemsOfType"`
	MinItems            uint32 `json:"minItems"`
	MaxItems            uint32 `json:"maxItems"`
	UniqueItems         bool   `json:"uniqueItems"`
	IsOrdered           bool   `json:"isOrdered"`
}

func (BooleanDescriptor) Kind() DetailsKind         { return DetailsBoolean }
func (CompositeDescriptor) Kind() DetailsKind       { return DetailsComposite }
func (IntegerDescriptor) Kind() DetailsKind         { return DetailsInteger }
func (StringDescriptor) Kind() DetailsKind          { return DetailsString }
func (ValueCollectionDescriptor) Kind() DetailsKind { return DetailsValueCollection }

func (BooleanDescriptor) isDetails()         {}
func (CompositeDescriptor) isDetails()       {}
func (IntegerDescriptor) isDetails()         {}
func (StringDescriptor) isDetails()          {}
func (ValueCollectionDescriptor) isDetails() {}

// PropertyDescriptor describes a property type that only exists inside a parent
type PropertyDescriptor struct {
	Header  TypeHeader `json:"header"`
	Details Details    `json:"details"`
}

// propertyDescriptorWire is the encoded shape of PropertyDescriptor and
// doubles as its JSON Schema source.
type propertyDescriptorWire struct {
	Header  TypeHeader  `json:"header"`
	Details detailsWire `json:"details"`
}

// detailsWire is the externally tagged form of Details: exactly one field set
type detailsWire struct {
	Boolean         *BooleanDescriptor         `json:"boolean,omitempty" jsonschema:"oneof_required=boolean"`
	Composite       *CompositeDescriptor       `json:"composite,omitempty" jsonschema:"oneof_required=composite"`
	Integer         *IntegerDescriptor         `json:"integer,omitempty" jsonschema:"oneof_required=integer"`
	String          *StringDescriptor          `json:"string,omitempty" jsonschema:"oneof_required=string"`
	ValueCollection *ValueCollectionDescriptor `json:"valueCollection,omitempty" jsonschema:"oneof_required=valueCollection"`
}

// JSONSchemaAlias points schema generation at the tagged wire shape
func (PropertyDescriptor) JSONSchemaAlias() any {
	return propertyDescriptorWire{}
}

// MarshalJSON encodes Details with its variant tag
func (p PropertyDescriptor) MarshalJSON() ([]byte, error) {
	details, err := toDetailsWire(p.Details)
	if err != nil {
		return nil, err
	}
	return json.Marshal(propertyDescriptorWire{Header: p.Header, Details: details})
}

// UnmarshalJSON requires exactly one known variant tag in details
func (p *PropertyDescriptor) UnmarshalJSON(data []byte) error {
	var wire struct {
		Header  TypeHeader      `json:"header"`
		Details json.RawMessage `json:"details"`
	}
	if err := strictUnmarshal(data, &wire); err != nil {
		return err
	}
	details, err := UnmarshalDetails(wire.Details)
	if err != nil {
		return err
	}
	p.Header = wire.Header
	p.Details = details
	return nil
}

// MarshalDetails encodes a Details value as {"<kind>":{...}}
func MarshalDetails(d Details) ([]byte, error) {
	wire, err := toDetailsWire(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

func toDetailsWire(d Details) (detailsWire, error) {
	var wire detailsWire
	switch v := d.(type) {
	case BooleanDescriptor:
		wire.Boolean = &v
	case CompositeDescriptor:
		wire.Composite = &v
	case IntegerDescriptor:
		wire.Integer = &v
	case StringDescriptor:
		wire.String = &v
	case ValueCollectionDescriptor:
		wire.ValueCollection = &v
	case nil:
		return wire, errors.EmptyField("details")
	default:
		return wire, fmt.Errorf("unsupported details type %T", d)
	}
	return wire, nil
}

// UnmarshalDetails decodes the tagged form. Zero, several, repeated or
// unknown tags fail, as do unknown fields inside the variant body.
func UnmarshalDetails(data []byte) (Details, error) {
	if err := checkDuplicateKeys(data); err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("details must carry exactly one variant tag, found %d", len(tagged))
	}

	for tag, body := range tagged {
		if len(body) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			return nil, fmt.Errorf("details variant %q has no body", tag)
		}
		switch DetailsKind(tag) {
		case DetailsBoolean:
			var v BooleanDescriptor
			if err := strictUnmarshal(body, &v); err != nil {
				return nil, err
			}
			return v, nil
		case DetailsComposite:
			var v CompositeDescriptor
			if err := strictUnmarshal(body, &v); err != nil {
				return nil, err
			}
			return v, nil
		case DetailsInteger:
			var v IntegerDescriptor
			if err := strictUnmarshal(body, &v); err != nil {
				return nil, err
			}
			return v, nil
		case DetailsString:
			var v StringDescriptor
			if err := strictUnmarshal(body, &v); err != nil {
				return nil, err
			}
			return v, nil
		case DetailsValueCollection:
			var v ValueCollectionDescriptor
			if err := strictUnmarshal(body, &v); err != nil {
				return nil, err
			}
			return v, nil
		default:
			return nil, fmt.Errorf("unknown details variant %q", tag)
		}
	}
	return nil, fmt.Errorf("details must carry exactly one variant tag")
}

// DescriptorSharing says whether a usage owns its descriptor or shares one
// stored elsewhere. An empty Shared handle means dedicated.
type DescriptorSharing struct {
	Shared string `json:"shared,omitempty"`
}

// IsShared reports whether the usage references a shared descriptor
func (s DescriptorSharing) IsShared() bool {
	return s.Shared != ""
}

// PropertyDescriptorUsage binds a descriptor to a usage note inside a map
type PropertyDescriptorUsage struct {
	Description string             `json:"description"`
	Descriptor  PropertyDescriptor `json:"descriptor"`
	Label       string             `json:"label"`
	Sharing     DescriptorSharing  `json:"sharing"`
}

// PropertyDescriptorMap maps property names to their usages
type PropertyDescriptorMap map[string]PropertyDescriptorUsage

// Names returns the property names in sorted order
func (m PropertyDescriptorMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Upsert returns a copy of m with name bound to usage
func (m PropertyDescriptorMap) Upsert(name string, usage PropertyDescriptorUsage) PropertyDescriptorMap {
	out := make(PropertyDescriptorMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[name] = usage
	return out
}

// Remove returns a copy of m without name
func (m PropertyDescriptorMap) Remove(name string) PropertyDescriptorMap {
	out := make(PropertyDescriptorMap, len(m))
	for k, v := range m {
		if k != name {
			out[k] = v
		}
	}
	return out
}

// HolonDescriptor is the root descriptor type
type HolonDescriptor struct {
	Header     TypeHeader            `json:"header"`
	Properties PropertyDescriptorMap `json:"properties"`
}
