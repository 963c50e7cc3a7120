package descriptors

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// wireMap turns v into the generic map a JSON-RPC client would send
func wireMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHandleListTools(t *testing.T) {
	svc := newTestService(t)
	tools := svc.HandleListTools()
	require.Len(t, tools, 16)

	seen := make(map[string]bool)
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
	}
	assert.True(t, seen[ToolCreateHolonDescriptor])
	assert.True(t, seen[ToolGetSchema])
}

func TestHandleCallTool_HolonDescriptorLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.HandleCallTool(ctx, ToolCreateHolonDescriptor, map[string]interface{}{
		"descriptor": wireMap(t, bookDescriptor()),
	})
	require.NoError(t, err)
	created, ok := result.(*Stored[descriptor.HolonDescriptor])
	require.True(t, ok)
	assert.Equal(t, bookDescriptor(), created.Value)

	result, err = svc.HandleCallTool(ctx, ToolGetHolonDescriptor, map[string]interface{}{
		"handle": created.Handle.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, created.Handle, result.(*Stored[descriptor.HolonDescriptor]).Handle)

	renamed := bookDescriptor()
	renamed.Header.Description = "A printed book"
	result, err = svc.HandleCallTool(ctx, ToolUpdateHolonDescriptor, map[string]interface{}{
		"original":   created.Handle.String(),
		"previous":   created.Handle.String(),
		"descriptor": wireMap(t, renamed),
	})
	require.NoError(t, err)
	updated := result.(*Stored[descriptor.HolonDescriptor])
	assert.Equal(t, created.Handle, updated.Original)
	assert.Equal(t, "A printed book", updated.Value.Header.Description)

	result, err = svc.HandleCallTool(ctx, ToolGetAllHolonDescriptors, nil)
	require.NoError(t, err)
	listing := result.(map[string]interface{})
	assert.Equal(t, 1, listing["count"])

	result, err = svc.HandleCallTool(ctx, ToolDeleteHolonDescriptor, map[string]interface{}{
		"handle": created.Handle.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, true, result.(map[string]interface{})["success"])

	_, err = svc.HandleCallTool(ctx, ToolGetHolonDescriptor, map[string]interface{}{
		"handle": created.Handle.String(),
	})
	assert.True(t, errors.Is(err, errors.ErrCodeStoreNotFound))
}

func TestHandleCallTool_PropertyDescriptorAndHeader(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	prop := descriptor.NewIntegerDescriptor("Year", "A calendar year", false, descriptor.FormatI16, -9999, 9999)
	result, err := svc.HandleCallTool(ctx, ToolCreatePropertyDescriptor, map[string]interface{}{
		"descriptor": wireMap(t, prop),
	})
	require.NoError(t, err)
	stored := result.(*Stored[descriptor.PropertyDescriptor])
	assert.Equal(t, prop, stored.Value)

	header := descriptor.NewTypeHeader("Person", descriptor.BaseTypeHolon, "A person", false)
	result, err = svc.HandleCallTool(ctx, ToolCreateTypeHeader, map[string]interface{}{
		"descriptor": wireMap(t, header),
	})
	require.NoError(t, err)
	assert.Equal(t, header, result.(*Stored[descriptor.TypeHeader]).Value)

	result, err = svc.HandleCallTool(ctx, ToolGetStatistics, nil)
	require.NoError(t, err)
	stats := result.(map[string]int)
	assert.Equal(t, 1, stats[string(descriptor.KindPropertyDescriptor)])
	assert.Equal(t, 1, stats[string(descriptor.KindTypeHeader)])
}

func TestHandleCallTool_ArgumentErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		wantCode errors.ErrorCode
	}{
		{"unknown tool", "descriptors__nope", nil, errors.ErrCodeTransportUnknownTool},
		{"missing handle", ToolGetHolonDescriptor, map[string]interface{}{}, errors.ErrCodeTransportInvalidParams},
		{"malformed handle", ToolGetPropertyDescriptor, map[string]interface{}{"handle": "not-a-handle"}, errors.ErrCodeTransportInvalidParams},
		{"unused argument", ToolGetTypeHeader, map[string]interface{}{"handle": "01HZY8Z5W4G9V8K6J3N2M1P0QR", "extra": 1}, errors.ErrCodeTransportInvalidParams},
		{"handle of wrong type", ToolDeleteHolonDescriptor, map[string]interface{}{"handle": 42}, errors.ErrCodeTransportInvalidParams},
		{"missing descriptor", ToolCreateHolonDescriptor, map[string]interface{}{}, errors.ErrCodeTransportInvalidParams},
		{"malformed descriptor", ToolCreateHolonDescriptor, map[string]interface{}{
			"descriptor": map[string]interface{}{"header": "oops"},
		}, errors.ErrCodeDecodeFailed},
		{"unknown base type", ToolCreateTypeHeader, map[string]interface{}{
			"descriptor": map[string]interface{}{
				"type_name":    "X",
				"base_type":    map[string]interface{}{"type": "Widget"},
				"description":  "",
				"version":      map[string]interface{}{"major": 0, "minor": 0, "patch": 1},
				"is_dependent": false,
			},
		}, errors.ErrCodeValidationUnknownBaseType},
		{"update without previous", ToolUpdateHolonDescriptor, map[string]interface{}{
			"original":   "01HZY8Z5W4G9V8K6J3N2M1P0QR",
			"descriptor": wireMap(t, bookDescriptor()),
		}, errors.ErrCodeTransportInvalidParams},
		{"unknown schema kind", ToolGetSchema, map[string]interface{}{"kind": "Widget"}, errors.ErrCodeTransportInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HandleCallTool(ctx, tt.tool, tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestHandleCallTool_ValidationFailureCarriesField(t *testing.T) {
	svc := newTestService(t)

	bad := bookDescriptor().WithProperty("title", descriptor.NewUsage("The book title",
		descriptor.NewStringDescriptor("Title", "A title", true, 10, 1)))
	_, err := svc.HandleCallTool(context.Background(), ToolCreateHolonDescriptor, map[string]interface{}{
		"descriptor": wireMap(t, bad),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationRangeInverted, errors.GetCode(err))
	assert.Equal(t, "properties.title.min_length", errors.GetField(err))
}

func TestHandleCallTool_SchemaAndSamples(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.HandleCallTool(ctx, ToolGetSchema, map[string]interface{}{
		"kind": string(descriptor.KindHolonDescriptor),
	})
	require.NoError(t, err)
	_, ok := result.(*jsonschema.Schema)
	assert.True(t, ok)

	result, err = svc.HandleCallTool(ctx, ToolGetSampleDescriptors, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.(map[string]interface{})["count"])

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats["records"], "samples are not stored")
}

func TestHandleCallTool_CanceledContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.HandleCallTool(ctx, ToolGetStatistics, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
