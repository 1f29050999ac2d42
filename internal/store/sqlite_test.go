package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/pawscribe/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetAndGetSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetSlot(ctx, "name", "Ann"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.GetSlot(ctx, "name")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "Ann" {
		t.Errorf("expected Ann, got %q (ok=%v)", v, ok)
	}

	_, ok, err = s.GetSlot(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Error("expected missing slot to report ok=false")
	}
}

func TestSlotVersioning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.SetSlot(ctx, "name", "Ann")
	s.SetSlot(ctx, "name", "Anna")

	slot, err := s.Slot(ctx, "name")
	if err != nil {
		t.Fatalf("slot: %v", err)
	}
	if slot.Value != "Anna" {
		t.Errorf("expected 'Anna', got %q", slot.Value)
	}
	if slot.Version != 2 {
		t.Errorf("expected version 2, got %d", slot.Version)
	}
	if slot.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}

	if _, err := s.Slot(ctx, "nope"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestListSlots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.SetSlot(ctx, "pet", "cat")
	s.SetSlot(ctx, "age", "31")
	s.SetSlot(ctx, "name", "Ann")

	slots, err := s.ListSlots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	want := []string{"age", "name", "pet"}
	for i, slot := range slots {
		if slot.Name != want[i] {
			t.Errorf("slot %d: expected %q, got %q", i, want[i], slot.Name)
		}
	}
}

func TestRmSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.SetSlot(ctx, "name", "Ann")
	if err := s.RmSlot(ctx, "name"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, ok, _ := s.GetSlot(ctx, "name"); ok {
		t.Error("expected slot to be gone")
	}
	if err := s.RmSlot(ctx, "name"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestAppendAndListEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &model.MemoryEntry{Type: "event", Predicate: "cat", Object: "Tom", RawText: "I adopted a cat named Tom", Confidence: 1}
	if err := s.AppendEvent(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected created_at to be assigned")
	}
	s.AppendEvent(ctx, &model.MemoryEntry{Type: "fact", RawText: "I am a pilot", Confidence: 1})

	events, err := s.ListEvents(ctx, ListEventsParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "fact" {
		t.Errorf("expected newest first, got %q", events[0].Type)
	}
	if events[1].Object != "Tom" || events[1].Predicate != "cat" {
		t.Errorf("unexpected event: %+v", events[1])
	}

	facts, _ := s.ListEvents(ctx, ListEventsParams{Type: "fact"})
	if len(facts) != 1 {
		t.Errorf("expected 1 fact, got %d", len(facts))
	}
	limited, _ := s.ListEvents(ctx, ListEventsParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}
}

func TestEventsArePruned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < MaxEvents+15; i++ {
		if err := s.AppendEvent(ctx, &model.MemoryEntry{RawText: fmt.Sprintf("event %d", i)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	events, _ := s.ListEvents(ctx, ListEventsParams{Limit: MaxEvents * 2})
	if len(events) != MaxEvents {
		t.Fatalf("expected %d events, got %d", MaxEvents, len(events))
	}
	if events[0].RawText != fmt.Sprintf("event %d", MaxEvents+14) {
		t.Errorf("expected newest event first, got %q", events[0].RawText)
	}
	if events[0].Type != "event" {
		t.Errorf("expected default type 'event', got %q", events[0].Type)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c", "test.db")
	s, err := NewSQLiteStore(nested)
	if err != nil {
		t.Fatalf("create nested: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(nested)); err != nil {
		t.Fatalf("dir not created: %v", err)
	}
}
