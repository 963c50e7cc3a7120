// Package descriptors is the descriptor service. Every write is validated
// locally, encoded canonically and handed to the record store; every read
// decodes the stored bytes back into a typed descriptor.
package descriptors

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JamesPrial/holon-descriptors/internal/store"
	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

// Stored is a decoded descriptor together with the record that holds it
type Stored[T descriptor.Entity] struct {
	Handle    store.Handle `json:"handle"`
	Original  store.Handle `json:"original"`
	Previous  store.Handle `json:"previous,omitempty"`
	EntryHash string       `json:"entry_hash"`
	CreatedAt time.Time    `json:"created_at"`
	Value     T            `json:"value"`
}

// Service handles descriptor operations against a record store
type Service struct {
	store           store.Backend
	validation      []descriptor.Option
	readConcurrency int
	logger          *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithValidationOptions selects the rules applied before every write
func WithValidationOptions(opts ...descriptor.Option) Option {
	return func(s *Service) {
		s.validation = append([]descriptor.Option(nil), opts...)
	}
}

// WithReadConcurrency bounds the parallel reads of the GetAll operations
func WithReadConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.readConcurrency = n
		}
	}
}

// NewService creates a Service writing through backend
func NewService(backend store.Backend, opts ...Option) *Service {
	s := &Service{
		store:           backend,
		readConcurrency: 8,
		logger:          logging.GetGlobalLogger("descriptors"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the backend the service writes through
func (s *Service) Store() store.Backend {
	return s.store
}

// CreateHolonDescriptor validates and stores a new holon descriptor lineage
func (s *Service) CreateHolonDescriptor(ctx context.Context, h descriptor.HolonDescriptor) (*Stored[descriptor.HolonDescriptor], error) {
	if err := descriptor.ValidateHolonDescriptor(h, s.validation...); err != nil {
		return nil, err
	}
	if err := s.checkSharedReferences(ctx, h.Properties, "properties."); err != nil {
		return nil, err
	}
	return create(ctx, s, h)
}

// GetHolonDescriptor returns the latest version of a lineage, or the exact
// version when handle names one
func (s *Service) GetHolonDescriptor(ctx context.Context, handle store.Handle) (*Stored[descriptor.HolonDescriptor], error) {
	return get[descriptor.HolonDescriptor](ctx, s, handle)
}

// UpdateHolonDescriptor appends a new version on top of previous
func (s *Service) UpdateHolonDescriptor(ctx context.Context, original, previous store.Handle, h descriptor.HolonDescriptor) (*Stored[descriptor.HolonDescriptor], error) {
	if err := descriptor.ValidateHolonDescriptor(h, s.validation...); err != nil {
		return nil, err
	}
	if err := s.checkSharedReferences(ctx, h.Properties, "properties."); err != nil {
		return nil, err
	}
	return update(ctx, s, original, previous, h)
}

// DeleteHolonDescriptor tombstones the lineage handle belongs to
func (s *Service) DeleteHolonDescriptor(ctx context.Context, handle store.Handle) error {
	return s.delete(ctx, descriptor.KindHolonDescriptor, handle)
}

// GetAllHolonDescriptors returns the latest version of every live holon descriptor
func (s *Service) GetAllHolonDescriptors(ctx context.Context) ([]*Stored[descriptor.HolonDescriptor], error) {
	return getAll[descriptor.HolonDescriptor](ctx, s)
}

// CreatePropertyDescriptor validates and stores a new property descriptor lineage
func (s *Service) CreatePropertyDescriptor(ctx context.Context, p descriptor.PropertyDescriptor) (*Stored[descriptor.PropertyDescriptor], error) {
	if err := descriptor.ValidatePropertyDescriptor(p, s.validation...); err != nil {
		return nil, err
	}
	if err := s.checkDetailsReferences(ctx, p.Details, ""); err != nil {
		return nil, err
	}
	return create(ctx, s, p)
}

// GetPropertyDescriptor returns the latest version of a lineage, or the
// exact version when handle names one
func (s *Service) GetPropertyDescriptor(ctx context.Context, handle store.Handle) (*Stored[descriptor.PropertyDescriptor], error) {
	return get[descriptor.PropertyDescriptor](ctx, s, handle)
}

// UpdatePropertyDescriptor appends a new version on top of previous
func (s *Service) UpdatePropertyDescriptor(ctx context.Context, original, previous store.Handle, p descriptor.PropertyDescriptor) (*Stored[descriptor.PropertyDescriptor], error) {
	if err := descriptor.ValidatePropertyDescriptor(p, s.validation...); err != nil {
		return nil, err
	}
	if err := s.checkDetailsReferences(ctx, p.Details, ""); err != nil {
		return nil, err
	}
	return update(ctx, s, original, previous, p)
}

// DeletePropertyDescriptor tombstones the lineage handle belongs to
func (s *Service) DeletePropertyDescriptor(ctx context.Context, handle store.Handle) error {
	return s.delete(ctx, descriptor.KindPropertyDescriptor, handle)
}

// GetAllPropertyDescriptors returns the latest version of every live property descriptor
func (s *Service) GetAllPropertyDescriptors(ctx context.Context) ([]*Stored[descriptor.PropertyDescriptor], error) {
	return getAll[descriptor.PropertyDescriptor](ctx, s)
}

// CreateTypeHeader stores a standalone type header. Headers cannot be
// updated or deleted once stored.
func (s *Service) CreateTypeHeader(ctx context.Context, h descriptor.TypeHeader) (*Stored[descriptor.TypeHeader], error) {
	h, err := descriptor.ValidateTypeHeader(h, s.validation...)
	if err != nil {
		return nil, err
	}
	return create(ctx, s, h)
}

// GetTypeHeader returns a stored type header
func (s *Service) GetTypeHeader(ctx context.Context, handle store.Handle) (*Stored[descriptor.TypeHeader], error) {
	return get[descriptor.TypeHeader](ctx, s, handle)
}

// GetAllTypeHeaders returns every stored type header
func (s *Service) GetAllTypeHeaders(ctx context.Context) ([]*Stored[descriptor.TypeHeader], error) {
	return getAll[descriptor.TypeHeader](ctx, s)
}

// Statistics reports record counts from the store
func (s *Service) Statistics(ctx context.Context) (map[string]int, error) {
	return s.store.Statistics(ctx)
}

// SeedSamples stores the sample holon descriptors and returns them in order
func (s *Service) SeedSamples(ctx context.Context) ([]*Stored[descriptor.HolonDescriptor], error) {
	samples := SampleHolonDescriptors()
	out := make([]*Stored[descriptor.HolonDescriptor], 0, len(samples))
	for _, h := range samples {
		stored, err := s.CreateHolonDescriptor(ctx, h)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetCode(err), "failed to seed %s: %v", h.Header.TypeName, err)
		}
		out = append(out, stored)
	}
	s.logger.InfoContext(ctx, "Seeded sample holon descriptors", slog.Int("count", len(out)))
	return out, nil
}

func create[T descriptor.Entity](ctx context.Context, s *Service, v T) (stored *Stored[T], err error) {
	kind := descriptor.KindOf(v)
	timer := logging.StartTimer(ctx, s.logger, "create "+string(kind))
	defer func() { timer.EndWithError(err) }()

	encoded, err := descriptor.Encode(v)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Create(timer.Context(), kind, encoded)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(timer.Context(), "Descriptor created",
		slog.String("kind", string(kind)),
		slog.String("handle", rec.Handle.String()),
		slog.String("entry_hash", rec.EntryHash),
	)
	return decodeRecord[T](rec)
}

func get[T descriptor.Entity](ctx context.Context, s *Service, handle store.Handle) (*Stored[T], error) {
	rec, err := s.store.Read(ctx, handle)
	if err != nil {
		return nil, err
	}
	var zero T
	if want := descriptor.KindOf(zero); rec.Kind != want {
		return nil, errors.NotFound(string(want) + " " + handle.String())
	}
	return decodeRecord[T](rec)
}

func update[T descriptor.Entity](ctx context.Context, s *Service, original, previous store.Handle, v T) (stored *Stored[T], err error) {
	kind := descriptor.KindOf(v)
	timer := logging.StartTimer(ctx, s.logger, "update "+string(kind))
	defer func() { timer.EndWithError(err) }()

	encoded, err := descriptor.Encode(v)
	if err != nil {
		return nil, err
	}

	// a lineage of another kind is reported as missing rather than rewritten
	current, err := s.store.Read(timer.Context(), original)
	if err != nil {
		return nil, err
	}
	if current.Kind != kind || current.Original != original {
		return nil, errors.NotFound(string(kind) + " " + original.String())
	}

	rec, err := s.store.Update(timer.Context(), original, previous, encoded)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(timer.Context(), "Descriptor updated",
		slog.String("kind", string(kind)),
		slog.String("original", original.String()),
		slog.String("handle", rec.Handle.String()),
	)
	return decodeRecord[T](rec)
}

func (s *Service) delete(ctx context.Context, kind descriptor.EntityKind, handle store.Handle) (err error) {
	timer := logging.StartTimer(ctx, s.logger, "delete "+string(kind))
	defer func() { timer.EndWithError(err) }()

	rec, err := s.store.Read(timer.Context(), handle)
	if err != nil {
		return err
	}
	if rec.Kind != kind {
		return errors.NotFound(string(kind) + " " + handle.String())
	}
	if err := s.store.Delete(timer.Context(), handle); err != nil {
		return err
	}

	s.logger.InfoContext(timer.Context(), "Descriptor deleted",
		slog.String("kind", string(kind)),
		slog.String("handle", handle.String()),
	)
	return nil
}

// getAll reads every live lineage of T's kind with bounded concurrency,
// keeping the order ListAll returned. Lineages deleted after ListAll are
// skipped.
func getAll[T descriptor.Entity](ctx context.Context, s *Service) ([]*Stored[T], error) {
	var zero T
	kind := descriptor.KindOf(zero)

	handles, err := s.store.ListAll(ctx, kind)
	if err != nil {
		return nil, err
	}

	out := make([]*Stored[T], len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)
	for i, h := range handles {
		g.Go(func() error {
			stored, err := get[T](gctx, s, h)
			if errors.Is(err, errors.ErrCodeStoreNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			out[i] = stored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	live := out[:0]
	for _, stored := range out {
		if stored != nil {
			live = append(live, stored)
		}
	}
	out = live

	s.logger.DebugContext(ctx, "Listed descriptors",
		slog.String("kind", string(kind)),
		slog.Int("count", len(out)),
	)
	return out, nil
}

func decodeRecord[T descriptor.Entity](rec *store.Record) (*Stored[T], error) {
	v, err := descriptor.Decode[T](rec.Entry)
	if err != nil {
		return nil, err
	}
	return &Stored[T]{
		Handle:    rec.Handle,
		Original:  rec.Original,
		Previous:  rec.Previous,
		EntryHash: rec.EntryHash,
		CreatedAt: rec.CreatedAt,
		Value:     v,
	}, nil
}

// checkSharedReferences makes sure every shared usage points at a stored
// property descriptor
func (s *Service) checkSharedReferences(ctx context.Context, props descriptor.PropertyDescriptorMap, prefix string) error {
	for _, name := range props.Names() {
		usage := props[name]
		path := prefix + name
		if usage.Sharing.IsShared() {
			if err := s.checkShared(ctx, usage.Sharing.Shared, path+".sharing.shared"); err != nil {
				return err
			}
		}
		if err := s.checkDetailsReferences(ctx, usage.Descriptor.Details, path+"."); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkDetailsReferences(ctx context.Context, d descriptor.Details, prefix string) error {
	composite, ok := d.(descriptor.CompositeDescriptor)
	if !ok {
		return nil
	}
	return s.checkSharedReferences(ctx, composite.Properties, prefix+"properties.")
}

func (s *Service) checkShared(ctx context.Context, ref, field string) error {
	handle, err := store.ParseHandle(ref)
	if err != nil {
		return errors.InvalidParams("%s: invalid handle %q", field, ref).WithField(field)
	}
	rec, err := s.store.Read(ctx, handle)
	if err != nil {
		if errors.Is(err, errors.ErrCodeStoreNotFound) {
			return errors.NotFound("shared property descriptor " + ref).WithField(field)
		}
		return err
	}
	if rec.Kind != descriptor.KindPropertyDescriptor {
		return errors.Rejected(field+" does not reference a property descriptor", nil).WithField(field)
	}
	return nil
}
