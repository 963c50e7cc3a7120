// Package store is the record store boundary the descriptor service writes
// through. Entries are opaque canonical bytes grouped into lineages: a create
// starts a lineage whose root handle stays stable while updates append
// versions on top of the current head.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
)

// Handle identifies a stored record. Handles are ULIDs.
type Handle string

func (h Handle) String() string {
	return string(h)
}

// ParseHandle checks that s is a well formed handle
func ParseHandle(s string) (Handle, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", errors.InvalidParams("invalid handle %q: %v", s, err)
	}
	return Handle(s), nil
}

func newHandle() Handle {
	return Handle(ulid.Make().String())
}

// Record is one stored version of an entry
type Record struct {
	Handle    Handle                `json:"handle"`
	Original  Handle                `json:"original"`
	Previous  Handle                `json:"previous,omitempty"`
	Kind      descriptor.EntityKind `json:"kind"`
	Entry     json.RawMessage       `json:"entry"`
	EntryHash string                `json:"entry_hash"`
	CreatedAt time.Time             `json:"created_at"`
}

// IsRoot reports whether the record started its lineage
func (r *Record) IsRoot() bool {
	return r.Handle == r.Original
}

func (r *Record) clone() *Record {
	c := *r
	c.Entry = append(json.RawMessage(nil), r.Entry...)
	return &c
}

// Backend is the record store used by the descriptor service
type Backend interface {
	// Create starts a new lineage and returns its root record
	Create(ctx context.Context, kind descriptor.EntityKind, entry []byte) (*Record, error)
	// Read resolves a lineage root to its latest version and a version handle to itself
	Read(ctx context.Context, handle Handle) (*Record, error)
	// Update appends a version to original's lineage. previous must be the current head.
	Update(ctx context.Context, original, previous Handle, entry []byte) (*Record, error)
	// Delete tombstones the lineage handle belongs to
	Delete(ctx context.Context, handle Handle) error
	// ListAll returns the live lineage roots of kind, or of every kind when kind is empty
	ListAll(ctx context.Context, kind descriptor.EntityKind) ([]Handle, error)
	Subscribe(kinds ...descriptor.EntityKind) *Subscription
	Statistics(ctx context.Context) (map[string]int, error)
	Close() error
}

// Op names the write a Validator is asked to approve
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Validator approves or refuses a write before it is committed. For deletes
// entry is the lineage head being removed. A refusal surfaces as Rejected.
type Validator func(op Op, kind descriptor.EntityKind, entry []byte) error

// Option configures a backend
type Option func(*options)

type options struct {
	validator  Validator
	bufferSize int
}

// WithValidator installs a store-side integrity check
func WithValidator(v Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithBufferSize sets the per-subscriber event buffer
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{bufferSize: 64}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) validate(op Op, kind descriptor.EntityKind, entry []byte) error {
	if o.validator == nil {
		return nil
	}
	if err := o.validator(op, kind, entry); err != nil {
		return errors.Rejected(string(op)+" refused by integrity check", err)
	}
	return nil
}

func checkCreate(kind descriptor.EntityKind, entry []byte) error {
	if !kind.IsValid() {
		return errors.InvalidParams("unknown entity kind %q", string(kind))
	}
	if len(entry) == 0 {
		return errors.Rejected("entry is empty", nil)
	}
	return nil
}

func checkCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func newRecord(kind descriptor.EntityKind, original, previous Handle, entry []byte) *Record {
	h := newHandle()
	if original == "" {
		original = h
	}
	return &Record{
		Handle:    h,
		Original:  original,
		Previous:  previous,
		Kind:      kind,
		Entry:     append(json.RawMessage(nil), entry...),
		EntryHash: descriptor.HashBytes(entry),
		CreatedAt: time.Now().UTC(),
	}
}
