package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

// EventType identifies a change notification
type EventType string

const (
	EntryCreated EventType = "entry_created"
	EntryUpdated EventType = "entry_updated"
	EntryDeleted EventType = "entry_deleted"
)

// Event is delivered to subscribers after a write commits
type Event struct {
	ID     string                `json:"id"`
	Type   EventType             `json:"type"`
	Kind   descriptor.EntityKind `json:"kind"`
	Record *Record               `json:"record"`
	At     time.Time             `json:"at"`
}

// Subscription receives events on C until Close is called or the store closes
type Subscription struct {
	C <-chan Event

	ch    chan Event
	kinds map[descriptor.EntityKind]bool
	n     *notifier
	once  sync.Once
}

// Close stops delivery and closes C
func (s *Subscription) Close() {
	s.n.remove(s)
}

func (s *Subscription) wants(kind descriptor.EntityKind) bool {
	return len(s.kinds) == 0 || s.kinds[kind]
}

// notifier fans events out without ever blocking the writer
type notifier struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	logger *slog.Logger
}

func newNotifier(buffer int, logger *slog.Logger) *notifier {
	return &notifier{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (n *notifier) subscribe(kinds []descriptor.EntityKind) *Subscription {
	ch := make(chan Event, n.buffer)
	s := &Subscription{C: ch, ch: ch, n: n}
	if len(kinds) > 0 {
		s.kinds = make(map[descriptor.EntityKind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	n.subs[s] = struct{}{}
	return s
}

func (n *notifier) remove(s *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, s)
	s.once.Do(func() { close(s.ch) })
}

func (n *notifier) publish(ctx context.Context, typ EventType, rec *Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || len(n.subs) == 0 {
		return
	}

	ev := Event{
		ID:   uuid.NewString(),
		Type: typ,
		Kind: rec.Kind,
		At:   time.Now().UTC(),
	}
	for s := range n.subs {
		if !s.wants(rec.Kind) {
			continue
		}
		ev.Record = rec.clone()
		select {
		case s.ch <- ev:
		default:
			n.logger.WarnContext(ctx, "Subscriber buffer full, dropping event",
				slog.String("event_type", string(typ)),
				slog.String("kind", string(rec.Kind)),
				slog.String("handle", rec.Handle.String()),
			)
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for s := range n.subs {
		s.once.Do(func() { close(s.ch) })
		delete(n.subs, s)
	}
}
