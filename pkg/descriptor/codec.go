package descriptor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// EntityKind names the descriptor entities that cross the store boundary
type EntityKind string

const (
	KindHolonDescriptor    EntityKind = "HolonDescriptor"
	KindPropertyDescriptor EntityKind = "PropertyDescriptor"
	KindTypeHeader         EntityKind = "TypeHeader"
)

// AllEntityKinds returns the storable entity kinds
func AllEntityKinds() []EntityKind {
	return []EntityKind{KindHolonDescriptor, KindPropertyDescriptor, KindTypeHeader}
}

// IsValid reports whether k is a known entity kind
func (k EntityKind) IsValid() bool {
	switch k {
	case KindHolonDescriptor, KindPropertyDescriptor, KindTypeHeader:
		return true
	}
	return false
}

// Entity is the set of values Encode and Decode accept
type Entity interface {
	HolonDescriptor | PropertyDescriptor | TypeHeader
}

// KindOf returns the entity kind of v
func KindOf[T Entity](v T) EntityKind {
	switch any(v).(type) {
	case HolonDescriptor:
		return KindHolonDescriptor
	case PropertyDescriptor:
		return KindPropertyDescriptor
	default:
		return KindTypeHeader
	}
}

// Encode returns the RFC 8785 canonical JSON form of v. Equal values
// always encode to equal bytes.
func Encode[T Entity](v T) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return nil, appErr
		}
		return nil, fmt.Errorf("encode %s: %w", KindOf(v), err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", KindOf(v), err)
	}
	return canonical, nil
}

// Decode parses bytes produced by Encode. Unknown fields, trailing data and
// malformed details unions are rejected. Validation errors raised while
// decoding (an unknown base type) keep their code.
func Decode[T Entity](data []byte) (T, error) {
	var v T
	if err := strictUnmarshal(data, &v); err != nil {
		var zero T
		if appErr, ok := errors.As(err); ok && errors.IsValidation(appErr) {
			return zero, appErr
		}
		return zero, errors.DecodeFailed(string(KindOf(v)), err)
	}
	return v, nil
}

// DecodeKind decodes data as the entity named by kind
func DecodeKind(kind EntityKind, data []byte) (any, error) {
	switch kind {
	case KindHolonDescriptor:
		return Decode[HolonDescriptor](data)
	case KindPropertyDescriptor:
		return Decode[PropertyDescriptor](data)
	case KindTypeHeader:
		return Decode[TypeHeader](data)
	}
	return nil, errors.InvalidParams("unknown entity kind %q", string(kind))
}

// ContentHash returns the hex SHA-256 of the canonical encoding of v
func ContentHash[T Entity](v T) (string, error) {
	encoded, err := Encode(v)
	if err != nil {
		return "", err
	}
	return HashBytes(encoded), nil
}

// HashBytes returns the hex SHA-256 of already encoded bytes
func HashBytes(encoded []byte) string {
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// Canonicalize rewrites arbitrary JSON into its canonical form
func Canonicalize(data []byte) ([]byte, error) {
	return jsoncanonicalizer.Transform(data)
}

func strictUnmarshal(data []byte, v any) error {
	if err := checkDuplicateKeys(data); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// checkDuplicateKeys fails when any object in data repeats a key
func checkDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return walkKeys(dec)
}

func walkKeys(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate key %q", key)
			}
			seen[key] = struct{}{}
			if err := walkKeys(dec); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := walkKeys(dec); err != nil {
				return err
			}
		}
	}

	// closing delimiter
	_, err = dec.Token()
	return err
}
