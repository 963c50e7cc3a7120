package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a standardized error code
type ErrorCode string

// Standard error codes organized by category
const (
	// Validation errors, always raised locally before any store call
	ErrCodeValidationEmptyField       ErrorCode = "VALIDATION_EMPTY_FIELD"
	ErrCodeValidationUnknownBaseType  ErrorCode = "VALIDATION_UNKNOWN_BASE_TYPE"
	ErrCodeValidationRangeInverted    ErrorCode = "VALIDATION_RANGE_INVERTED"
	ErrCodeValidationFormatOverflow   ErrorCode = "VALIDATION_FORMAT_OVERFLOW"
	ErrCodeValidationBaseTypeMismatch ErrorCode = "VALIDATION_BASE_TYPE_MISMATCH"
	ErrCodeValidationInvalidUTF8      ErrorCode = "VALIDATION_INVALID_UTF8"

	// Store errors, raised by the record store boundary
	ErrCodeStoreRejected    ErrorCode = "STORE_REJECTED"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreNotFound    ErrorCode = "STORE_NOT_FOUND"
	ErrCodeStoreConflict    ErrorCode = "STORE_CONFLICT"

	// Transport errors
	ErrCodeTransportInvalidJSON    ErrorCode = "TRANSPORT_INVALID_JSON"
	ErrCodeTransportMarshal        ErrorCode = "TRANSPORT_MARSHAL_ERROR"
	ErrCodeTransportMethodNotFound ErrorCode = "TRANSPORT_METHOD_NOT_FOUND"
	ErrCodeTransportInvalidParams  ErrorCode = "TRANSPORT_INVALID_PARAMS"
	ErrCodeTransportUnknownTool    ErrorCode = "TRANSPORT_UNKNOWN_TOOL"
	ErrCodeDecodeFailed            ErrorCode = "DECODE_FAILED"

	// System errors
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	ErrCodeConfiguration   ErrorCode = "CONFIGURATION_ERROR"
)

// AppError represents a standardized application error
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Field    string      `json:"field,omitempty"`
	Details  interface{} `json:"details,omitempty"`
	Internal error       `json:"-"` // Internal error not exposed to clients
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithField records the (possibly nested) field the error refers to
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// ToJSON returns a JSON representation safe for clients
func (e *AppError) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Field   string      `json:"field,omitempty"`
		Details interface{} `json:"details,omitempty"`
	}{
		Code:    e.Code,
		Message: e.Message,
		Field:   e.Field,
		Details: e.Details,
	})
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	wrapped := &AppError{
		Code:     code,
		Message:  message,
		Internal: err,
	}

	// Keep the field of an inner AppError so the path survives re-coding
	var inner *AppError
	if stderrors.As(err, &inner) {
		wrapped.Field = inner.Field
	}

	return wrapped
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// As finds the outermost AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error has a specific error code
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}

	return appErr.Code == code
}

// IsAny checks if an error matches any of the provided codes
func IsAny(err error, codes ...ErrorCode) bool {
	for _, code := range codes {
		if Is(err, code) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err belongs to the validation taxonomy
func IsValidation(err error) bool {
	return IsAny(err,
		ErrCodeValidationEmptyField,
		ErrCodeValidationUnknownBaseType,
		ErrCodeValidationRangeInverted,
		ErrCodeValidationFormatOverflow,
		ErrCodeValidationBaseTypeMismatch,
		ErrCodeValidationInvalidUTF8,
	)
}

// IsStore reports whether err originated at the record store boundary
func IsStore(err error) bool {
	return IsAny(err,
		ErrCodeStoreRejected,
		ErrCodeStoreUnavailable,
		ErrCodeStoreNotFound,
		ErrCodeStoreConflict,
	)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	appErr, ok := As(err)
	if !ok {
		return ErrCodeInternal
	}

	return appErr.Code
}

// GetField extracts the field path from an error, if any
func GetField(err error) string {
	appErr, ok := As(err)
	if !ok {
		return ""
	}
	return appErr.Field
}

// GetMessage returns a safe message for the client
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	appErr, ok := As(err)
	if !ok {
		return "An internal error occurred"
	}

	return appErr.Message
}

// GetInternal returns the internal error for logging
func GetInternal(err error) error {
	if err == nil {
		return nil
	}

	appErr, ok := As(err)
	if !ok {
		return err
	}

	if appErr.Internal != nil {
		return appErr.Internal
	}

	return appErr
}

// Internal creates an internal error with a safe message
func Internal(internalErr error) *AppError {
	return Wrap(internalErr, ErrCodeInternal, "An internal error occurred")
}
