package descriptor

import (
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// JSONSchema returns the JSON Schema document for an entity kind. The
// details union appears as a oneOf over its variant tags.
func JSONSchema(kind EntityKind) (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{
		Mapper: schemaMapper,
		Namer:  schemaName,
	}

	switch kind {
	case KindHolonDescriptor:
		return r.Reflect(&HolonDescriptor{}), nil
	case KindPropertyDescriptor:
		return r.Reflect(&PropertyDescriptor{}), nil
	case KindTypeHeader:
		return r.Reflect(&TypeHeader{}), nil
	}
	return nil, errors.InvalidParams("unknown entity kind %q", string(kind))
}

// JSONSchemaBytes returns the marshalled schema for kind
func JSONSchemaBytes(kind EntityKind) ([]byte, error) {
	schema, err := JSONSchema(kind)
	if err != nil {
		return nil, err
	}
	return schema.MarshalJSON()
}

// schemaMapper describes BaseType in its tagged {"type":"Holon"} form
func schemaMapper(t reflect.Type) *jsonschema.Schema {
	if t != reflect.TypeOf(BaseType("")) {
		return nil
	}

	names := make([]any, 0, len(AllBaseTypes()))
	for _, b := range AllBaseTypes() {
		names = append(names, string(b))
	}

	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Type: "string", Enum: names})

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"type"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// schemaName gives wire-shape helper types the name of the type they encode
func schemaName(t reflect.Type) string {
	name := t.Name()
	if trimmed := strings.TrimSuffix(name, "Wire"); trimmed != name && trimmed != "" {
		return strings.ToUpper(trimmed[:1]) + trimmed[1:]
	}
	return name
}
