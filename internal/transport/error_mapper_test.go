package transport

import (
	stderrors "errors"
	"testing"

	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

func TestToJSONRPCError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedData string
	}{
		{
			name:         "invalid json",
			err:          errors.New(errors.ErrCodeTransportInvalidJSON, "Invalid JSON format"),
			expectedCode: ParseError,
			expectedData: "TRANSPORT_INVALID_JSON",
		},
		{
			name:         "unknown tool",
			err:          errors.New(errors.ErrCodeTransportUnknownTool, "unknown tool: x"),
			expectedCode: MethodNotFound,
			expectedData: "TRANSPORT_UNKNOWN_TOOL",
		},
		{
			name:         "invalid params",
			err:          errors.InvalidParams("handle parameter is required"),
			expectedCode: InvalidParams,
			expectedData: "TRANSPORT_INVALID_PARAMS",
		},
		{
			name:         "decode failed",
			err:          errors.DecodeFailed("HolonDescriptor", stderrors.New("unexpected end of JSON input")),
			expectedCode: InvalidParams,
			expectedData: "DECODE_FAILED",
		},
		{
			name:         "range inverted",
			err:          errors.RangeInverted("properties.title.min_length", 10, 1),
			expectedCode: ValidationFailed,
			expectedData: "VALIDATION_RANGE_INVERTED",
		},
		{
			name:         "invalid utf-8",
			err:          errors.InvalidUTF8("type_name"),
			expectedCode: ValidationFailed,
			expectedData: "VALIDATION_INVALID_UTF8",
		},
		{
			name:         "not found",
			err:          errors.NotFound("record 01HZY8Z5W4G9V8K6J3N2M1P0QR"),
			expectedCode: NotFound,
			expectedData: "STORE_NOT_FOUND",
		},
		{
			name:         "conflict",
			err:          errors.Conflict("previous %s is not the head", "01HZY8Z5W4G9V8K6J3N2M1P0QR"),
			expectedCode: Conflict,
			expectedData: "STORE_CONFLICT",
		},
		{
			name:         "rejected",
			err:          errors.Rejected("update refused by integrity check", nil),
			expectedCode: Rejected,
			expectedData: "STORE_REJECTED",
		},
		{
			name:         "unavailable",
			err:          errors.Unavailable(stderrors.New("store is closed")),
			expectedCode: Unavailable,
			expectedData: "STORE_UNAVAILABLE",
		},
		{
			name:         "plain error",
			err:          stderrors.New("boom"),
			expectedCode: InternalError,
			expectedData: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToJSONRPCError(tt.err)

			if result.Code != tt.expectedCode {
				t.Errorf("Expected code %d, got %d", tt.expectedCode, result.Code)
			}
			if result.Message != errors.GetMessage(tt.err) {
				t.Errorf("Expected message '%s', got '%s'", errors.GetMessage(tt.err), result.Message)
			}

			data, ok := result.Data.(map[string]interface{})
			if !ok {
				t.Fatalf("Expected data to be a map, got %T", result.Data)
			}
			if data["error_code"] != tt.expectedData {
				t.Errorf("Expected error_code '%s', got '%v'", tt.expectedData, data["error_code"])
			}
		})
	}
}

func TestToJSONRPCError_Nil(t *testing.T) {
	if ToJSONRPCError(nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestToJSONRPCError_Field(t *testing.T) {
	err := errors.Wrap(errors.EmptyField("properties.title.type_name"), errors.ErrCodeStoreRejected, "create refused by integrity check")

	result := ToJSONRPCError(err)
	if result.Code != Rejected {
		t.Errorf("Expected code %d, got %d", Rejected, result.Code)
	}
	data := result.Data.(map[string]interface{})
	if data["field"] != "properties.title.type_name" {
		t.Errorf("Expected field to survive wrapping, got %v", data["field"])
	}

	plain := ToJSONRPCError(errors.NotFound("record"))
	if _, exists := plain.Data.(map[string]interface{})["field"]; exists {
		t.Error("Expected no field for an error without one")
	}
}

func TestToJSONRPCResponse(t *testing.T) {
	success := ToJSONRPCResponse(1, nil)
	if success.Error != nil || success.Result == nil {
		t.Errorf("Expected success result, got %+v", success)
	}

	failure := ToJSONRPCResponse("abc", errors.NotFound("record"))
	if failure.ID != "abc" || failure.JSONRPC != "2.0" {
		t.Errorf("Unexpected envelope %+v", failure)
	}
	if failure.Result != nil || failure.Error == nil || failure.Error.Code != NotFound {
		t.Errorf("Expected not found error, got %+v", failure.Error)
	}
}

func TestCreateFallbackErrorResponse(t *testing.T) {
	resp := CreateFallbackErrorResponse(7, "")
	if resp.Error.Code != InternalError {
		t.Errorf("Expected code %d, got %d", InternalError, resp.Error.Code)
	}
	if resp.Error.Message != "An unexpected error occurred" {
		t.Errorf("Unexpected message %q", resp.Error.Message)
	}
}
