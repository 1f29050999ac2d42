package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/pawscribe/internal/model"
)

// SQLiteStore implements SlotStore and EventStore using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		name        TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		version     INTEGER NOT NULL DEFAULT 1,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory_events (
		id          TEXT PRIMARY KEY,
		type        TEXT NOT NULL DEFAULT 'event',
		predicate   TEXT,
		object      TEXT,
		raw_text    TEXT NOT NULL,
		confidence  REAL NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_type ON memory_events(type);

	CREATE VIRTUAL TABLE IF NOT EXISTS memory_events_fts USING fts5(
		predicate,
		object,
		raw_text,
		content=memory_events,
		content_rowid=rowid
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memory_events_ai AFTER INSERT ON memory_events BEGIN
		INSERT INTO memory_events_fts(rowid, predicate, object, raw_text)
		VALUES (new.rowid, new.predicate, new.object, new.raw_text);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memory_events_ad AFTER DELETE ON memory_events BEGIN
		INSERT INTO memory_events_fts(memory_events_fts, rowid, predicate, object, raw_text)
		VALUES ('delete', old.rowid, old.predicate, old.object, old.raw_text);
	END`)

	return nil
}

func (s *SQLiteStore) GetSlot(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get slot %s: %w", name, err)
	}
	return value, true, nil
}

// Slot returns the full slot record.
func (s *SQLiteStore) Slot(ctx context.Context, name string) (*model.Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, value, version, updated_at FROM slots WHERE name = ?`, name)
	slot, err := scanSlot(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", name, ErrSlotNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *SQLiteStore) SetSlot(ctx context.Context, name, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (name, value, version, updated_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, version = slots.version + 1,
		   updated_at = excluded.updated_at`,
		name, value, now)
	if err != nil {
		return fmt.Errorf("set slot %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) ListSlots(ctx context.Context) ([]model.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, version, updated_at FROM slots ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *SQLiteStore) RmSlot(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", name, ErrSlotNotFound)
	}
	return nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, e *model.MemoryEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = s.newID(e.CreatedAt)
	}
	if e.Type == "" {
		e.Type = "event"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := insertEvent(ctx, tx, e); err != nil {
		return err
	}
	if err := pruneEvents(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// insertEvent reports whether a row was written; an existing ID is skipped.
func insertEvent(ctx context.Context, tx *sql.Tx, e *model.MemoryEntry) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO memory_events (id, type, predicate, object, raw_text, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, nullable(e.Predicate), nullable(e.Object), e.RawText, e.Confidence,
		e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func pruneEvents(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM memory_events WHERE id NOT IN (
			SELECT id FROM memory_events ORDER BY id DESC LIMIT ?)`, MaxEvents)
	if err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, p ListEventsParams) ([]model.MemoryEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = MaxEvents
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, p.Type)
	}
	query := `SELECT id, type, predicate, object, raw_text, confidence, created_at
	          FROM memory_events WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row scanner) (model.Slot, error) {
	var slot model.Slot
	var updatedAt string
	if err := row.Scan(&slot.Name, &slot.Value, &slot.Version, &updatedAt); err != nil {
		return slot, err
	}
	slot.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return slot, nil
}

func scanEvent(row scanner) (model.MemoryEntry, error) {
	var e model.MemoryEntry
	var predicate, object sql.NullString
	var createdAt string

	err := row.Scan(&e.ID, &e.Type, &predicate, &object, &e.RawText, &e.Confidence, &createdAt)
	if err != nil {
		return e, err
	}
	e.Predicate = predicate.String
	e.Object = object.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]model.MemoryEntry, error) {
	var events []model.MemoryEntry
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
