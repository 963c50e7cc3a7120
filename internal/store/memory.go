package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

type lineage struct {
	root     Handle
	kind     descriptor.EntityKind
	versions []Handle
	deleted  bool
}

func (l *lineage) head() Handle {
	return l.versions[len(l.versions)-1]
}

// MemoryStore keeps records in process memory. It is the default backend
// and the one tests run against.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[Handle]*Record
	lineages map[Handle]*lineage
	order    []Handle
	closed   bool

	opts     options
	notifier *notifier
	logger   *slog.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...Option) *MemoryStore {
	logger := logging.GetGlobalLogger("store.memory")
	o := buildOptions(opts)

	logger.Info("Creating memory store", slog.Int("buffer_size", o.bufferSize))

	return &MemoryStore{
		records:  make(map[Handle]*Record),
		lineages: make(map[Handle]*lineage),
		opts:     o,
		notifier: newNotifier(o.bufferSize, logger),
		logger:   logger,
	}
}

// Create stores entry as the root of a new lineage
func (m *MemoryStore) Create(ctx context.Context, kind descriptor.EntityKind, entry []byte) (rec *Record, err error) {
	timer := logging.StartTimer(ctx, m.logger, "create")
	defer func() { timer.EndWithError(err) }()

	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	if err := checkCreate(kind, entry); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.Unavailable(nil)
	}
	if err := m.opts.validate(OpCreate, kind, entry); err != nil {
		return nil, err
	}

	rec = newRecord(kind, "", "", entry)
	m.records[rec.Handle] = rec
	m.lineages[rec.Handle] = &lineage{
		root:     rec.Handle,
		kind:     kind,
		versions: []Handle{rec.Handle},
	}
	m.order = append(m.order, rec.Handle)

	m.logger.DebugContext(ctx, "Record stored in memory",
		slog.String("handle", rec.Handle.String()),
		slog.String("kind", string(kind)),
		slog.String("entry_hash", rec.EntryHash),
	)
	m.notifier.publish(ctx, EntryCreated, rec)

	return rec.clone(), nil
}

// Read returns the record for handle. A lineage root resolves to its head.
func (m *MemoryStore) Read(ctx context.Context, handle Handle) (*Record, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errors.Unavailable(nil)
	}

	rec, ok := m.records[handle]
	if !ok {
		m.logger.DebugContext(ctx, "Record not found in memory", slog.String("handle", handle.String()))
		return nil, errors.NotFound("record " + handle.String())
	}
	lin := m.lineages[rec.Original]
	if lin.deleted {
		return nil, errors.NotFound("record " + handle.String())
	}
	if handle == lin.root {
		rec = m.records[lin.head()]
	}
	return rec.clone(), nil
}

// Update appends entry to original's lineage on top of previous
func (m *MemoryStore) Update(ctx context.Context, original, previous Handle, entry []byte) (rec *Record, err error) {
	timer := logging.StartTimer(ctx, m.logger, "update")
	defer func() { timer.EndWithError(err) }()

	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	if len(entry) == 0 {
		return nil, errors.Rejected("entry is empty", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.Unavailable(nil)
	}

	lin, ok := m.lineages[original]
	if !ok || lin.deleted {
		return nil, errors.NotFound("lineage " + original.String())
	}
	prev, ok := m.records[previous]
	if !ok {
		return nil, errors.NotFound("record " + previous.String())
	}
	if prev.Original != original {
		return nil, errors.Rejected("previous "+previous.String()+" belongs to another lineage", nil)
	}
	if head := lin.head(); head != previous {
		m.logger.WarnContext(ctx, "Update built on stale version",
			slog.String("original", original.String()),
			slog.String("previous", previous.String()),
			slog.String("head", head.String()),
		)
		return nil, errors.Conflict("lineage %s has moved on: head is %s, not %s", original, head, previous)
	}
	if err := m.opts.validate(OpUpdate, lin.kind, entry); err != nil {
		return nil, err
	}

	rec = newRecord(lin.kind, original, previous, entry)
	m.records[rec.Handle] = rec
	lin.versions = append(lin.versions, rec.Handle)

	m.logger.DebugContext(ctx, "Record version appended",
		slog.String("handle", rec.Handle.String()),
		slog.String("original", original.String()),
		slog.Int("versions", len(lin.versions)),
	)
	m.notifier.publish(ctx, EntryUpdated, rec)

	return rec.clone(), nil
}

// Delete tombstones the lineage handle belongs to
func (m *MemoryStore) Delete(ctx context.Context, handle Handle) (err error) {
	timer := logging.StartTimer(ctx, m.logger, "delete")
	defer func() { timer.EndWithError(err) }()

	if err := checkCanceled(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.Unavailable(nil)
	}

	rec, ok := m.records[handle]
	if !ok {
		return errors.NotFound("record " + handle.String())
	}
	lin := m.lineages[rec.Original]
	if lin.deleted {
		return errors.NotFound("record " + handle.String())
	}
	head := m.records[lin.head()]
	if err := m.opts.validate(OpDelete, lin.kind, head.Entry); err != nil {
		return err
	}

	lin.deleted = true
	m.logger.InfoContext(ctx, "Lineage tombstoned",
		slog.String("original", lin.root.String()),
		slog.String("kind", string(lin.kind)),
	)
	m.notifier.publish(ctx, EntryDeleted, head)

	return nil
}

// ListAll returns live lineage roots in creation order
func (m *MemoryStore) ListAll(ctx context.Context, kind descriptor.EntityKind) ([]Handle, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errors.Unavailable(nil)
	}

	handles := make([]Handle, 0, len(m.order))
	for _, root := range m.order {
		lin := m.lineages[root]
		if lin.deleted || (kind != "" && lin.kind != kind) {
			continue
		}
		handles = append(handles, root)
	}
	return handles, nil
}

// Subscribe delivers change events for kinds, or for every kind when none are given
func (m *MemoryStore) Subscribe(kinds ...descriptor.EntityKind) *Subscription {
	return m.notifier.subscribe(kinds)
}

// Statistics counts live lineages per kind along with record totals
func (m *MemoryStore) Statistics(ctx context.Context) (map[string]int, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errors.Unavailable(nil)
	}

	stats := newStats()
	stats["records"] = len(m.records)
	for _, lin := range m.lineages {
		if lin.deleted {
			stats["tombstoned"]++
			continue
		}
		stats[string(lin.kind)]++
		stats["lineages"]++
	}
	return stats, nil
}

// Close releases subscribers. Later calls fail with Unavailable.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.notifier.close()
	m.logger.Info("Memory store closed", slog.Int("records", len(m.records)))
	return nil
}

func newStats() map[string]int {
	stats := map[string]int{
		"records":    0,
		"lineages":   0,
		"tombstoned": 0,
	}
	for _, k := range descriptor.AllEntityKinds() {
		stats[string(k)] = 0
	}
	return stats
}
