package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
	}{
		{
			name:    "creates store error with code and message",
			code:    ErrCodeStoreNotFound,
			message: "record not found",
		},
		{
			name:    "creates validation error",
			code:    ErrCodeValidationEmptyField,
			message: "type_name field is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, err.Message)
			}
			if err.Internal != nil {
				t.Error("expected Internal to be nil")
			}
			if err.Error() != tt.message {
				t.Errorf("Error() should return message")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("disk I/O error")

	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		message  string
		checkNil bool
	}{
		{
			name:    "wraps standard error",
			err:     originalErr,
			code:    ErrCodeStoreUnavailable,
			message: "record store unavailable",
		},
		{
			name:     "returns nil for nil error",
			err:      nil,
			code:     ErrCodeInternal,
			message:  "should not appear",
			checkNil: true,
		},
		{
			name:    "preserves AppError chain",
			err:     EmptyField("type_name"),
			code:    ErrCodeStoreRejected,
			message: "wrapped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.code, tt.message)

			if tt.checkNil {
				if wrapped != nil {
					t.Error("expected nil for nil error")
				}
				return
			}
			if wrapped.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, wrapped.Code)
			}
			if wrapped.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, wrapped.Message)
			}
			if unwrapped := wrapped.Unwrap(); unwrapped != tt.err {
				t.Error("Unwrap should return the internal error")
			}
		})
	}
}

func TestWrap_KeepsInnerField(t *testing.T) {
	inner := RangeInverted("properties.age.min_value", 10, 2)
	wrapped := Rejected("integrity check failed", inner)

	if wrapped.Field != "properties.age.min_value" {
		t.Errorf("expected field to survive wrapping, got %q", wrapped.Field)
	}
	if !Is(wrapped, ErrCodeStoreRejected) {
		t.Error("outer code should be STORE_REJECTED")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{
			name:     "matches AppError code",
			err:      NotFound("record 01H"),
			code:     ErrCodeStoreNotFound,
			expected: true,
		},
		{
			name:     "matches through fmt.Errorf wrapping",
			err:      fmt.Errorf("reading: %w", Conflict("stale head")),
			code:     ErrCodeStoreConflict,
			expected: true,
		},
		{
			name:     "doesn't match different code",
			err:      NotFound("record"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "returns false for nil",
			err:      nil,
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "returns false for non-AppError",
			err:      errors.New("standard error"),
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Is(tt.err, tt.code); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestTaxonomy(t *testing.T) {
	validation := []*AppError{
		EmptyField("type_name"),
		UnknownBaseType("header.base_type", "Widget"),
		RangeInverted("max_length", 10, 2),
		FormatOverflow("max_value", "i8", 200),
		BaseTypeMismatch("header.base_type", "Holon", "String"),
		InvalidUTF8("type_name"),
	}
	for _, err := range validation {
		if !IsValidation(err) {
			t.Errorf("%s should be a validation error", err.Code)
		}
		if IsStore(err) {
			t.Errorf("%s should not be a store error", err.Code)
		}
		if err.Field == "" {
			t.Errorf("%s should carry a field", err.Code)
		}
	}

	store := []*AppError{
		Rejected("bad entry", nil),
		Unavailable(errors.New("closed")),
		NotFound("record"),
		Conflict("previous %s is not the head", "01H"),
	}
	for _, err := range store {
		if !IsStore(err) {
			t.Errorf("%s should be a store error", err.Code)
		}
		if IsValidation(err) {
			t.Errorf("%s should not be a validation error", err.Code)
		}
	}
}

func TestEmptyField_Message(t *testing.T) {
	err := EmptyField("type_name")
	if err.Error() != "type_name field is missing" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGetCodeAndField(t *testing.T) {
	if GetCode(nil) != "" {
		t.Error("nil error should have empty code")
	}
	if GetCode(errors.New("plain")) != ErrCodeInternal {
		t.Error("plain error should map to INTERNAL_ERROR")
	}
	err := fmt.Errorf("ctx: %w", FormatOverflow("properties.n.max_value", "u8", 300))
	if GetCode(err) != ErrCodeValidationFormatOverflow {
		t.Errorf("unexpected code %s", GetCode(err))
	}
	if GetField(err) != "properties.n.max_value" {
		t.Errorf("unexpected field %s", GetField(err))
	}
}

func TestGetMessage(t *testing.T) {
	if msg := GetMessage(errors.New("secret detail")); msg != "An internal error occurred" {
		t.Errorf("non-AppError message should be masked, got %q", msg)
	}
	if msg := GetMessage(NotFound("record X")); msg != "record X not found" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestToJSON(t *testing.T) {
	err := RangeInverted("min_length", 10, 2)
	err.Internal = errors.New("must not leak")

	data, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("ToJSON failed: %v", jsonErr)
	}

	var decoded map[string]interface{}
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		t.Fatalf("invalid JSON: %v", jsonErr)
	}
	if decoded["code"] != string(ErrCodeValidationRangeInverted) {
		t.Errorf("unexpected code %v", decoded["code"])
	}
	if decoded["field"] != "min_length" {
		t.Errorf("unexpected field %v", decoded["field"])
	}
	if strings.Contains(string(data), "must not leak") {
		t.Error("internal error leaked into JSON")
	}
}

func TestLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithSlog(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	appErr := EmptyField("type_name")
	if got := logger.LogError(ctx, appErr, "create"); got != appErr {
		t.Error("AppError should be returned unchanged")
	}
	if !strings.Contains(buf.String(), "VALIDATION_EMPTY_FIELD") {
		t.Errorf("log output missing error code: %s", buf.String())
	}

	buf.Reset()
	got := logger.LogError(ctx, errors.New("boom"), "create")
	if !Is(got, ErrCodeInternal) {
		t.Errorf("plain error should become internal, got %v", got)
	}

	if logger.LogError(ctx, nil, "noop") != nil {
		t.Error("nil error should stay nil")
	}
}
