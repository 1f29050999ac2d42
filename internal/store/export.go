package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/pawscribe/internal/model"
)

// ExportAll returns every slot and every stored memory event.
func (s *SQLiteStore) ExportAll(ctx context.Context) (*model.Export, error) {
	slots, err := s.ListSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	events, err := s.ListEvents(ctx, ListEventsParams{Limit: MaxEvents})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return &model.Export{Slots: slots, Memories: events}, nil
}

// Import stores slots and events from an export. Slots overwrite existing
// values; events with an ID already present are skipped. Returns the number
// of slots and events written.
func (s *SQLiteStore) Import(ctx context.Context, exp *model.Export) (int, error) {
	for _, e := range exp.Memories {
		if !model.ValidEntryTypes[e.Type] {
			return 0, fmt.Errorf("invalid memory type %q", e.Type)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	now := time.Now().UTC()
	for _, slot := range exp.Slots {
		if slot.Name == "" {
			continue
		}
		updated := slot.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO slots (name, value, version, updated_at) VALUES (?, ?, 1, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value, version = slots.version + 1,
			   updated_at = excluded.updated_at`,
			slot.Name, slot.Value, updated.UTC().Format(time.RFC3339))
		if err != nil {
			return imported, fmt.Errorf("import slot %s: %w", slot.Name, err)
		}
		imported++
	}

	for _, e := range exp.Memories {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.ID == "" {
			e.ID = s.newID(e.CreatedAt)
		}
		written, err := insertEvent(ctx, tx, &e)
		if err != nil {
			return imported, err
		}
		if written {
			imported++
		}
	}

	if err := pruneEvents(ctx, tx); err != nil {
		return imported, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}
