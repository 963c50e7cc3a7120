package errors

import "fmt"

// EmptyField reports a required field that is empty or missing.
func EmptyField(field string) *AppError {
	return Newf(ErrCodeValidationEmptyField, "%s field is missing", field).WithField(field)
}

// UnknownBaseType reports a base type outside the closed set.
func UnknownBaseType(field, value string) *AppError {
	return Newf(ErrCodeValidationUnknownBaseType, "%s: unknown base type %q", field, value).
		WithField(field).
		WithDetails(map[string]interface{}{"value": value})
}

// RangeInverted reports a min/max pair with min greater than max.
func RangeInverted(field string, min, max interface{}) *AppError {
	return Newf(ErrCodeValidationRangeInverted, "%s: minimum %v is greater than maximum %v", field, min, max).
		WithField(field).
		WithDetails(map[string]interface{}{"min": min, "max": max})
}

// FormatOverflow reports a bound that the integer format cannot represent.
func FormatOverflow(field, format string, value interface{}) *AppError {
	return Newf(ErrCodeValidationFormatOverflow, "%s: value %v does not fit integer format %s", field, value, format).
		WithField(field).
		WithDetails(map[string]interface{}{"format": format, "value": value})
}

// BaseTypeMismatch reports a header base type that disagrees with its descriptor.
func BaseTypeMismatch(field, want, got string) *AppError {
	return Newf(ErrCodeValidationBaseTypeMismatch, "%s: expected base type %s, got %s", field, want, got).
		WithField(field).
		WithDetails(map[string]interface{}{"expected": want, "actual": got})
}

// InvalidUTF8 reports a text field that is not valid UTF-8 and could not
// be encoded without changing it.
func InvalidUTF8(field string) *AppError {
	return Newf(ErrCodeValidationInvalidUTF8, "%s: text is not valid UTF-8", field).WithField(field)
}

// Rejected reports a value the store refused, usually failed integrity validation.
func Rejected(reason string, cause error) *AppError {
	if cause != nil {
		return Wrap(cause, ErrCodeStoreRejected, fmt.Sprintf("record rejected: %s", reason))
	}
	return Newf(ErrCodeStoreRejected, "record rejected: %s", reason)
}

// Unavailable reports a store that cannot serve requests.
func Unavailable(cause error) *AppError {
	if cause != nil {
		return Wrap(cause, ErrCodeStoreUnavailable, "record store unavailable")
	}
	return New(ErrCodeStoreUnavailable, "record store unavailable")
}

// NotFound reports a missing or tombstoned record.
func NotFound(resource string) *AppError {
	return Newf(ErrCodeStoreNotFound, "%s not found", resource)
}

// Conflict reports an update built on a version that is no longer the head.
func Conflict(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeStoreConflict, format, args...)
}

// InvalidParams reports malformed tool arguments.
func InvalidParams(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeTransportInvalidParams, format, args...)
}

// DecodeFailed reports bytes that do not decode into a descriptor.
func DecodeFailed(what string, cause error) *AppError {
	return Wrapf(cause, ErrCodeDecodeFailed, "failed to decode %s: %v", what, cause)
}
