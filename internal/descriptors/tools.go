package descriptors

import (
	"context"
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"github.com/JamesPrial/holon-descriptors/internal/store"
	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// Tool represents a callable tool with its metadata
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	ToolCreateHolonDescriptor     = "descriptors__create_holon_descriptor"
	ToolGetHolonDescriptor        = "descriptors__get_holon_descriptor"
	ToolUpdateHolonDescriptor     = "descriptors__update_holon_descriptor"
	ToolDeleteHolonDescriptor     = "descriptors__delete_holon_descriptor"
	ToolGetAllHolonDescriptors    = "descriptors__get_all_holon_descriptors"
	ToolCreatePropertyDescriptor  = "descriptors__create_property_descriptor"
	ToolGetPropertyDescriptor     = "descriptors__get_property_descriptor"
	ToolUpdatePropertyDescriptor  = "descriptors__update_property_descriptor"
	ToolDeletePropertyDescriptor  = "descriptors__delete_property_descriptor"
	ToolGetAllPropertyDescriptors = "descriptors__get_all_property_descriptors"
	ToolCreateTypeHeader          = "descriptors__create_type_header"
	ToolGetTypeHeader             = "descriptors__get_type_header"
	ToolGetAllTypeHeaders         = "descriptors__get_all_type_headers"
	ToolGetSampleDescriptors      = "descriptors__get_sample_holon_descriptors"
	ToolGetSchema                 = "descriptors__get_schema"
	ToolGetStatistics             = "descriptors__get_statistics"
)

// HandleListTools returns the list of available tools
func (s *Service) HandleListTools() []Tool {
	return []Tool{
		{Name: ToolCreateHolonDescriptor, Description: "Validate and store a new holon descriptor"},
		{Name: ToolGetHolonDescriptor, Description: "Get the latest version of a holon descriptor, or a specific version by its handle"},
		{Name: ToolUpdateHolonDescriptor, Description: "Store a new version of a holon descriptor on top of the previous head"},
		{Name: ToolDeleteHolonDescriptor, Description: "Delete a holon descriptor and every version of it"},
		{Name: ToolGetAllHolonDescriptors, Description: "List the latest version of every holon descriptor"},
		{Name: ToolCreatePropertyDescriptor, Description: "Validate and store a new property descriptor"},
		{Name: ToolGetPropertyDescriptor, Description: "Get the latest version of a property descriptor, or a specific version by its handle"},
		{Name: ToolUpdatePropertyDescriptor, Description: "Store a new version of a property descriptor on top of the previous head"},
		{Name: ToolDeletePropertyDescriptor, Description: "Delete a property descriptor and every version of it"},
		{Name: ToolGetAllPropertyDescriptors, Description: "List the latest version of every property descriptor"},
		{Name: ToolCreateTypeHeader, Description: "Validate and store a type header"},
		{Name: ToolGetTypeHeader, Description: "Get a stored type header"},
		{Name: ToolGetAllTypeHeaders, Description: "List every stored type header"},
		{Name: ToolGetSampleDescriptors, Description: "Return the built-in sample holon descriptors without storing them"},
		{Name: ToolGetSchema, Description: "Get the JSON Schema of a descriptor kind"},
		{Name: ToolGetStatistics, Description: "Get record counts from the store"},
	}
}

// HandleCallTool dispatches a tool call by name
func (s *Service) HandleCallTool(ctx context.Context, toolName string, args map[string]interface{}) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch toolName {
	case ToolCreateHolonDescriptor:
		v, err := descriptorArg[descriptor.HolonDescriptor](args)
		if err != nil {
			return nil, err
		}
		return s.CreateHolonDescriptor(ctx, v)
	case ToolGetHolonDescriptor:
		h, err := handleArg(args)
		if err != nil {
			return nil, err
		}
		return s.GetHolonDescriptor(ctx, h)
	case ToolUpdateHolonDescriptor:
		in, v, err := updateArgs[descriptor.HolonDescriptor](args)
		if err != nil {
			return nil, err
		}
		return s.UpdateHolonDescriptor(ctx, in.original, in.previous, v)
	case ToolDeleteHolonDescriptor:
		h, err := handleArg(args)
		if err != nil {
			return nil, err
		}
		return deleted(h, s.DeleteHolonDescriptor(ctx, h))
	case ToolGetAllHolonDescriptors:
		items, err := s.GetAllHolonDescriptors(ctx)
		return listed(items, err)

	case ToolCreatePropertyDescriptor:
		v, err := descriptorArg[descriptor.PropertyDescriptor](args)
		if err != nil {
			return nil, err
		}
		return s.CreatePropertyDescriptor(ctx, v)
	case ToolGetPropertyDescriptor:
		h, err := handleArg(args)
		if err != nil {
			return nil, err
		}
		return s.GetPropertyDescriptor(ctx, h)
	case ToolUpdatePropertyDescriptor:
		in, v, err := updateArgs[descriptor.PropertyDescriptor](args)
		if err != nil {
			return nil, err
		}
		return s.UpdatePropertyDescriptor(ctx, in.original, in.previous, v)
	case ToolDeletePropertyDescriptor:
		h, err := handleArg(args)
		if err != nil {
			return nil, err
		}
		return deleted(h, s.DeletePropertyDescriptor(ctx, h))
	case ToolGetAllPropertyDescriptors:
		items, err := s.GetAllPropertyDescriptors(ctx)
		return listed(items, err)

	case ToolCreateTypeHeader:
		v, err := descriptorArg[descriptor.TypeHeader](args)
		if err != nil {
			return nil, err
		}
		return s.CreateTypeHeader(ctx, v)
	case ToolGetTypeHeader:
		h, err := handleArg(args)
		if err != nil {
			return nil, err
		}
		return s.GetTypeHeader(ctx, h)
	case ToolGetAllTypeHeaders:
		items, err := s.GetAllTypeHeaders(ctx)
		return listed(items, err)

	case ToolGetSampleDescriptors:
		samples := SampleHolonDescriptors()
		return map[string]interface{}{
			"descriptors": samples,
			"count":       len(samples),
		}, nil
	case ToolGetSchema:
		return schemaArg(args)
	case ToolGetStatistics:
		return s.Statistics(ctx)
	default:
		return nil, errors.Newf(errors.ErrCodeTransportUnknownTool, "unknown tool: %s", toolName)
	}
}

// decodeArgs decodes a tool argument map into out, refusing unknown keys
func decodeArgs(args map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return errors.Internal(err)
	}
	if err := dec.Decode(args); err != nil {
		return errors.InvalidParams("invalid arguments: %v", err)
	}
	return nil
}

type handleInput struct {
	Handle string `mapstructure:"handle"`
}

func handleArg(args map[string]interface{}) (store.Handle, error) {
	var in handleInput
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if in.Handle == "" {
		return "", errors.InvalidParams("handle parameter is required").WithField("handle")
	}
	return store.ParseHandle(in.Handle)
}

type descriptorInput struct {
	Descriptor map[string]interface{} `mapstructure:"descriptor"`
}

// descriptorArg re-encodes the "descriptor" argument and decodes it strictly
// as T, so tool input obeys the same wire rules as stored entries
func descriptorArg[T descriptor.Entity](args map[string]interface{}) (T, error) {
	var (
		in   descriptorInput
		zero T
	)
	if err := decodeArgs(args, &in); err != nil {
		return zero, err
	}
	return decodePayload[T](in.Descriptor)
}

func decodePayload[T descriptor.Entity](payload map[string]interface{}) (T, error) {
	var zero T
	if payload == nil {
		return zero, errors.InvalidParams("descriptor parameter is required").WithField("descriptor")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return zero, errors.InvalidParams("descriptor is not valid JSON: %v", err).WithField("descriptor")
	}
	return descriptor.Decode[T](raw)
}

type updateInput struct {
	Original   string                 `mapstructure:"original"`
	Previous   string                 `mapstructure:"previous"`
	Descriptor map[string]interface{} `mapstructure:"descriptor"`
}

type updateHandles struct {
	original store.Handle
	previous store.Handle
}

func updateArgs[T descriptor.Entity](args map[string]interface{}) (updateHandles, T, error) {
	var (
		in   updateInput
		out  updateHandles
		zero T
	)
	if err := decodeArgs(args, &in); err != nil {
		return out, zero, err
	}
	if in.Original == "" {
		return out, zero, errors.InvalidParams("original parameter is required").WithField("original")
	}
	if in.Previous == "" {
		return out, zero, errors.InvalidParams("previous parameter is required").WithField("previous")
	}

	var err error
	if out.original, err = store.ParseHandle(in.Original); err != nil {
		return out, zero, err
	}
	if out.previous, err = store.ParseHandle(in.Previous); err != nil {
		return out, zero, err
	}

	v, err := decodePayload[T](in.Descriptor)
	if err != nil {
		return out, zero, err
	}
	return out, v, nil
}

type schemaInput struct {
	Kind string `mapstructure:"kind"`
}

func schemaArg(args map[string]interface{}) (interface{}, error) {
	var in schemaInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return descriptor.JSONSchema(descriptor.EntityKind(in.Kind))
}

func deleted(h store.Handle, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"success": true,
		"deleted": h,
	}, nil
}

func listed[T descriptor.Entity](items []*Stored[T], err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"descriptors": items,
		"count":       len(items),
	}, nil
}
