package transport

import (
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// ToJSONRPCError maps AppError codes to JSON-RPC error codes. Data carries
// the application code and, for validation failures, the offending field.
func ToJSONRPCError(err error) *JSONRPCError {
	if err == nil {
		return nil
	}

	code := errors.GetCode(err)
	message := errors.GetMessage(err)

	var jsonRPCCode int
	switch code {
	case errors.ErrCodeTransportInvalidJSON, errors.ErrCodeTransportMarshal:
		jsonRPCCode = ParseError
	case errors.ErrCodeTransportMethodNotFound, errors.ErrCodeTransportUnknownTool:
		jsonRPCCode = MethodNotFound
	case errors.ErrCodeTransportInvalidParams, errors.ErrCodeDecodeFailed:
		jsonRPCCode = InvalidParams

	case errors.ErrCodeValidationEmptyField, errors.ErrCodeValidationUnknownBaseType,
		errors.ErrCodeValidationRangeInverted, errors.ErrCodeValidationFormatOverflow,
		errors.ErrCodeValidationBaseTypeMismatch, errors.ErrCodeValidationInvalidUTF8:
		jsonRPCCode = ValidationFailed

	case errors.ErrCodeStoreNotFound:
		jsonRPCCode = NotFound
	case errors.ErrCodeStoreConflict:
		jsonRPCCode = Conflict
	case errors.ErrCodeStoreRejected:
		jsonRPCCode = Rejected
	case errors.ErrCodeStoreUnavailable:
		jsonRPCCode = Unavailable

	default:
		jsonRPCCode = InternalError
	}

	data := map[string]interface{}{"error_code": string(code)}
	if field := errors.GetField(err); field != "" {
		data["field"] = field
	}

	return &JSONRPCError{
		Code:    jsonRPCCode,
		Message: message,
		Data:    data,
	}
}

// ToJSONRPCResponse creates a complete JSONRPCResponse with error
func ToJSONRPCResponse(id interface{}, err error) *JSONRPCResponse {
	if err == nil {
		return NewResult(id, map[string]interface{}{"success": true})
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   ToJSONRPCError(err),
	}
}

// CreateFallbackErrorResponse creates a safe fallback error response for critical failures
func CreateFallbackErrorResponse(id interface{}, message string) *JSONRPCResponse {
	if message == "" {
		message = "An unexpected error occurred"
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    InternalError,
			Message: message,
			Data:    map[string]interface{}{"error_code": "FALLBACK_ERROR"},
		},
	}
}
