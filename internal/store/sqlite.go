package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

// SqliteStore persists records in a SQLite database
type SqliteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool

	opts     options
	notifier *notifier
	logger   *slog.Logger
}

// NewSqliteStore opens (or creates) the database at dbPath
func NewSqliteStore(dbPath string, walMode bool, opts ...Option) (*SqliteStore, error) {
	logger := logging.GetGlobalLogger("store.sqlite")

	connStr := dbPath
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	if walMode {
		connStr += sep + "_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=true&_busy_timeout=5000"
	} else {
		connStr += sep + "_synchronous=FULL&_cache_size=1000&_foreign_keys=true&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every pooled connection to an in-memory path gets its own empty database
	if isInMemory(dbPath) {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	o := buildOptions(opts)
	s := &SqliteStore{
		db:       db,
		opts:     o,
		notifier: newNotifier(o.bufferSize, logger),
		logger:   logger,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Opened sqlite store",
		slog.String("path", dbPath),
		slog.Bool("wal_mode", walMode),
	)
	return s, nil
}

func isInMemory(dbPath string) bool {
	return dbPath == ":memory:" ||
		strings.HasPrefix(dbPath, "file::memory:") ||
		strings.Contains(dbPath, "mode=memory")
}

func (s *SqliteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lineages (
		root TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		head TEXT NOT NULL,
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		handle TEXT PRIMARY KEY,
		original TEXT NOT NULL REFERENCES lineages(root),
		previous TEXT,
		kind TEXT NOT NULL,
		entry BLOB NOT NULL,
		entry_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lineages_kind ON lineages(kind);
	CREATE INDEX IF NOT EXISTS idx_records_original ON records(original);
	CREATE INDEX IF NOT EXISTS idx_records_entry_hash ON records(entry_hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

const recordColumns = `handle, original, previous, kind, entry, entry_hash, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec      Record
		previous sql.NullString
		kind     string
		entry    []byte
	)
	err := row.Scan(&rec.Handle, &rec.Original, &previous, &kind, &entry, &rec.EntryHash, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Previous = Handle(previous.String)
	rec.Kind = descriptor.EntityKind(kind)
	rec.Entry = entry
	return &rec, nil
}

type lineageRow struct {
	kind    descriptor.EntityKind
	head    Handle
	deleted bool
}

func readLineage(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, root Handle) (*lineageRow, error) {
	var (
		l    lineageRow
		kind string
		head string
	)
	err := q.QueryRowContext(ctx, `SELECT kind, head, deleted FROM lineages WHERE root = ?`, root.String()).
		Scan(&kind, &head, &l.deleted)
	if err != nil {
		return nil, err
	}
	l.kind = descriptor.EntityKind(kind)
	l.head = Handle(head)
	return &l, nil
}

func unavailable(op string, err error) error {
	return errors.Unavailable(fmt.Errorf("%s: %w", op, err))
}

func insertRecord(ctx context.Context, tx *sql.Tx, rec *Record) error {
	var previous any
	if rec.Previous != "" {
		previous = rec.Previous.String()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Handle.String(),
		rec.Original.String(),
		previous,
		string(rec.Kind),
		[]byte(rec.Entry),
		rec.EntryHash,
		rec.CreatedAt,
	)
	return err
}

// Create stores entry as the root of a new lineage
func (s *SqliteStore) Create(ctx context.Context, kind descriptor.EntityKind, entry []byte) (rec *Record, err error) {
	timer := logging.StartTimer(ctx, s.logger, "create")
	defer func() { timer.EndWithError(err) }()

	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	if err := checkCreate(kind, entry); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.Unavailable(nil)
	}
	if err := s.opts.validate(OpCreate, kind, entry); err != nil {
		return nil, err
	}

	rec = newRecord(kind, "", "", entry)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lineages (root, kind, head, deleted, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		rec.Handle.String(), string(kind), rec.Handle.String(), rec.CreatedAt,
	)
	if err != nil {
		return nil, unavailable("failed to insert lineage", err)
	}
	if err := insertRecord(ctx, tx, rec); err != nil {
		return nil, unavailable("failed to insert record", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("failed to commit transaction", err)
	}

	s.logger.DebugContext(ctx, "Record stored in sqlite",
		slog.String("handle", rec.Handle.String()),
		slog.String("kind", string(kind)),
		slog.String("entry_hash", rec.EntryHash),
	)
	s.notifier.publish(ctx, EntryCreated, rec)

	return rec, nil
}

// Read returns the record for handle. A lineage root resolves to its head.
func (s *SqliteStore) Read(ctx context.Context, handle Handle) (*Record, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.Unavailable(nil)
	}

	var root string
	err := s.db.QueryRowContext(ctx, `SELECT original FROM records WHERE handle = ?`, handle.String()).Scan(&root)
	if stderrors.Is(err, sql.ErrNoRows) {
		s.logger.DebugContext(ctx, "Record not found in sqlite", slog.String("handle", handle.String()))
		return nil, errors.NotFound("record " + handle.String())
	}
	if err != nil {
		return nil, unavailable("failed to read record", err)
	}

	lin, err := readLineage(ctx, s.db, Handle(root))
	if err != nil {
		return nil, unavailable("failed to read lineage", err)
	}
	if lin.deleted {
		return nil, errors.NotFound("record " + handle.String())
	}

	target := handle
	if handle == Handle(root) {
		target = lin.head
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE handle = ?`, target.String()))
	if err != nil {
		return nil, unavailable("failed to read record", err)
	}
	return rec, nil
}

// Update appends entry to original's lineage on top of previous
func (s *SqliteStore) Update(ctx context.Context, original, previous Handle, entry []byte) (rec *Record, err error) {
	timer := logging.StartTimer(ctx, s.logger, "update")
	defer func() { timer.EndWithError(err) }()

	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	if len(entry) == 0 {
		return nil, errors.Rejected("entry is empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.Unavailable(nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	lin, err := readLineage(ctx, tx, original)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("lineage " + original.String())
	}
	if err != nil {
		return nil, unavailable("failed to read lineage", err)
	}
	if lin.deleted {
		return nil, errors.NotFound("lineage " + original.String())
	}

	var prevOriginal string
	err = tx.QueryRowContext(ctx, `SELECT original FROM records WHERE handle = ?`, previous.String()).Scan(&prevOriginal)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("record " + previous.String())
	}
	if err != nil {
		return nil, unavailable("failed to read previous record", err)
	}
	if Handle(prevOriginal) != original {
		return nil, errors.Rejected("previous "+previous.String()+" belongs to another lineage", nil)
	}
	if lin.head != previous {
		s.logger.WarnContext(ctx, "Update built on stale version",
			slog.String("original", original.String()),
			slog.String("previous", previous.String()),
			slog.String("head", lin.head.String()),
		)
		return nil, errors.Conflict("lineage %s has moved on: head is %s, not %s", original, lin.head, previous)
	}
	if err := s.opts.validate(OpUpdate, lin.kind, entry); err != nil {
		return nil, err
	}

	rec = newRecord(lin.kind, original, previous, entry)
	if err := insertRecord(ctx, tx, rec); err != nil {
		return nil, unavailable("failed to insert record", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE lineages SET head = ? WHERE root = ?`, rec.Handle.String(), original.String()); err != nil {
		return nil, unavailable("failed to advance lineage head", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("failed to commit transaction", err)
	}

	s.logger.DebugContext(ctx, "Record version appended",
		slog.String("handle", rec.Handle.String()),
		slog.String("original", original.String()),
	)
	s.notifier.publish(ctx, EntryUpdated, rec)

	return rec, nil
}

// Delete tombstones the lineage handle belongs to
func (s *SqliteStore) Delete(ctx context.Context, handle Handle) (err error) {
	timer := logging.StartTimer(ctx, s.logger, "delete")
	defer func() { timer.EndWithError(err) }()

	if err := checkCanceled(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.Unavailable(nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var root string
	err = tx.QueryRowContext(ctx, `SELECT original FROM records WHERE handle = ?`, handle.String()).Scan(&root)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("record " + handle.String())
	}
	if err != nil {
		return unavailable("failed to read record", err)
	}

	lin, err := readLineage(ctx, tx, Handle(root))
	if err != nil {
		return unavailable("failed to read lineage", err)
	}
	if lin.deleted {
		return errors.NotFound("record " + handle.String())
	}

	head, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE handle = ?`, lin.head.String()))
	if err != nil {
		return unavailable("failed to read lineage head", err)
	}
	if err := s.opts.validate(OpDelete, lin.kind, head.Entry); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE lineages SET deleted = 1 WHERE root = ?`, root); err != nil {
		return unavailable("failed to tombstone lineage", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("failed to commit transaction", err)
	}

	s.logger.InfoContext(ctx, "Lineage tombstoned",
		slog.String("original", root),
		slog.String("kind", string(lin.kind)),
	)
	s.notifier.publish(ctx, EntryDeleted, head)

	return nil
}

// ListAll returns live lineage roots in creation order
func (s *SqliteStore) ListAll(ctx context.Context, kind descriptor.EntityKind) ([]Handle, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.Unavailable(nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT root FROM lineages
		WHERE deleted = 0 AND (? = '' OR kind = ?)
		ORDER BY rowid`,
		string(kind), string(kind),
	)
	if err != nil {
		return nil, unavailable("failed to list lineages", err)
	}
	defer rows.Close()

	handles := []Handle{}
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, unavailable("failed to scan lineage", err)
		}
		handles = append(handles, Handle(root))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate lineages", err)
	}
	return handles, nil
}

// Subscribe delivers change events for kinds, or for every kind when none are given
func (s *SqliteStore) Subscribe(kinds ...descriptor.EntityKind) *Subscription {
	return s.notifier.subscribe(kinds)
}

// Statistics counts live lineages per kind along with record totals
func (s *SqliteStore) Statistics(ctx context.Context) (map[string]int, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.Unavailable(nil)
	}

	stats := newStats()

	var records int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&records); err != nil {
		return nil, unavailable("failed to count records", err)
	}
	stats["records"] = records

	rows, err := s.db.QueryContext(ctx, `SELECT kind, deleted, COUNT(*) FROM lineages GROUP BY kind, deleted`)
	if err != nil {
		return nil, unavailable("failed to count lineages", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind    string
			deleted bool
			count   int
		)
		if err := rows.Scan(&kind, &deleted, &count); err != nil {
			return nil, unavailable("failed to scan lineage counts", err)
		}
		if deleted {
			stats["tombstoned"] += count
			continue
		}
		stats[kind] += count
		stats["lineages"] += count
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate lineage counts", err)
	}
	return stats, nil
}

// Close closes the database. Later calls fail with Unavailable.
func (s *SqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.notifier.close()

	start := time.Now()
	err := s.db.Close()
	s.logger.Info("Sqlite store closed", slog.Duration("duration", time.Since(start)))
	return err
}
